package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idsync/internal/ledger"
)

func syncProject(t *testing.T, p *project) {
	t.Helper()
	_, _, err := execute(t, "sync", p.model)
	require.NoError(t, err)
}

func TestValidateSyncedLedger(t *testing.T) {
	p := newProject(t, notesYAML)
	syncProject(t, p)

	stdout, _, err := execute(t, "validate", p.ledger, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Entities)
	assert.Equal(t, 5, resp.Data.Properties)
	assert.Equal(t, 1, resp.Data.Indexes)
	assert.Equal(t, 1, resp.Data.Relations)
	assert.Nil(t, resp.Data.InSync)
}

func TestValidateTextOutput(t *testing.T) {
	p := newProject(t, notesYAML)
	syncProject(t, p)

	stdout, _, err := execute(t, "validate", p.ledger)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "✓ "+p.ledger+" is valid"))
}

func TestValidateDuplicateID(t *testing.T) {
	p := newProject(t, notesYAML)
	syncProject(t, p)

	l, err := ledger.Load(p.ledger)
	require.NoError(t, err)
	l.Entities[1].ID.ID = l.Entities[0].ID.ID
	data, err := ledger.Marshal(l)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p.ledger, data, 0o644))

	stdout, _, err := execute(t, "validate", p.ledger)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [DUPLICATE_ID]")
}

func TestValidateMissingLedger(t *testing.T) {
	p := newProject(t, notesYAML)

	stdout, _, err := execute(t, "validate", p.ledger)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error ["+ErrCodeNotFound+"]")
}

func TestValidateModelInSync(t *testing.T) {
	p := newProject(t, notesYAML)
	syncProject(t, p)
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, "idsync.yaml"), []byte("model: model\n"), 0o644))

	stdout, _, err := execute(t, "validate", "--model")
	require.NoError(t, err)
	assert.Contains(t, stdout, "model in sync: true")
}

func TestValidateModelOutOfDate(t *testing.T) {
	p := newProject(t, notesYAML)
	syncProject(t, p)
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, "idsync.yaml"), []byte("model: model\n"), 0o644))
	p.writeModel(t, notesYAML+"  - name: Comment\n")

	before, err := os.ReadFile(p.ledger)
	require.NoError(t, err)

	stdout, _, err := execute(t, "validate", "--model")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error ["+ErrCodeOutOfDate+"]")

	after, err := os.ReadFile(p.ledger)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
