package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeHistory(t *testing.T, stdout string) HistoryResult {
	t.Helper()
	var resp struct {
		Status string        `json:"status"`
		Data   HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestHistoryListsRuns(t *testing.T) {
	p := newProject(t, notesYAML)
	for range 2 {
		_, _, err := execute(t, "sync", p.model, "--ledger", p.ledger, "--history", p.history)
		require.NoError(t, err)
	}
	p.writeModel(t, notesWithoutTagsYAML)
	_, _, err := execute(t, "sync", p.model, "--ledger", p.ledger, "--history", p.history)
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "--ledger", p.ledger, "--history", p.history, "--retired", "--format", "json")
	require.NoError(t, err)

	res := decodeHistory(t, stdout)
	require.Len(t, res.Runs, 3)
	assert.True(t, res.Runs[0].Written)
	assert.False(t, res.Runs[1].Written)
	assert.True(t, res.Runs[2].Written)
	assert.Empty(t, res.Runs[1].Retirements)
	// Tag entity, its id property and the Note.tags relation.
	assert.Len(t, res.Runs[2].Retirements, 3)

	stdout, _, err = execute(t, "history", "--ledger", p.ledger, "--history", p.history, "-n", "1", "--format", "json")
	require.NoError(t, err)
	res = decodeHistory(t, stdout)
	require.Len(t, res.Runs, 1)
	assert.Equal(t, int64(3), res.Runs[0].Seq)
}

func TestHistoryOtherLedgerNeedsAll(t *testing.T) {
	p := newProject(t, notesYAML)
	_, _, err := execute(t, "sync", p.model, "--ledger", p.ledger, "--history", p.history)
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "--ledger", p.dir+"/other.json", "--history", p.history)
	require.NoError(t, err)
	assert.Equal(t, "No sync runs recorded\n", stdout)

	stdout, _, err = execute(t, "history", "--ledger", p.dir+"/other.json", "--history", p.history, "--all", "--format", "json")
	require.NoError(t, err)
	assert.Len(t, decodeHistory(t, stdout).Runs, 1)
}

func TestHistoryNotConfigured(t *testing.T) {
	newProject(t, notesYAML)

	stdout, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error ["+ErrCodeHistory+"]")
}
