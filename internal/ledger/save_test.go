package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idsync/internal/ir"
)

func TestSaveCreatesFileWithoutBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ids.json")

	res, err := Save(validLedger(), path)
	require.NoError(t, err)
	assert.True(t, res.Written)
	assert.Empty(t, res.BackupPath)
	assert.Len(t, res.Digest, 64)

	_, err = os.Stat(path + BackupSuffix)
	assert.True(t, os.IsNotExist(err))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Note", loaded.Entities[0].Name)
}

func TestSaveSkipsIdenticalContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	_, err := Save(validLedger(), path)
	require.NoError(t, err)

	before, err := os.Stat(path)
	require.NoError(t, err)

	res, err := Save(validLedger(), path)
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Empty(t, res.BackupPath)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	_, err = os.Stat(path + BackupSuffix)
	assert.True(t, os.IsNotExist(err), "no backup for a no-op save")
}

func TestSaveBacksUpPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	_, err := Save(validLedger(), path)
	require.NoError(t, err)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	changed := validLedger()
	changed.Entities[1].Name = "Label"
	res, err := Save(changed, path)
	require.NoError(t, err)
	assert.True(t, res.Written)
	assert.Equal(t, path+BackupSuffix, res.BackupPath)

	backup, err := os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), `"Label"`)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ids.json")
	_, err := Save(validLedger(), path)
	require.NoError(t, err)

	changed := validLedger()
	changed.RetiredEntityUIDs = []int64{5555}
	_, err = Save(changed, path)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"ids.json", "ids.json.bak"}, names)
}

func TestSaveReportsBackupWriteError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ids.json")
	_, err := Save(validLedger(), path)
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A non-empty directory in place of the backup cannot be renamed over.
	require.NoError(t, os.MkdirAll(filepath.Join(path+BackupSuffix, "keep"), 0o755))

	changed := validLedger()
	changed.RetiredEntityUIDs = []int64{5555}
	_, err = Save(changed, path)
	require.Error(t, err)

	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, path+BackupSuffix, we.Path)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestVerifyAcceptsSavedLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	_, err := Save(validLedger(), path)
	require.NoError(t, err)

	data, err := Marshal(validLedger())
	require.NoError(t, err)

	l, err := Verify(path, data)
	require.NoError(t, err)
	assert.Len(t, l.Entities, 2)
}

func TestVerifyReportsInternalError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	broken := validLedger()
	broken.LastEntityID.UID = 1
	data, err := Marshal(broken)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Verify(path, data)
	require.Error(t, err)
	assert.True(t, ir.IsInternal(err))
	assert.True(t, ir.HasCode(err, ir.CodeLastIDMismatch))
}

func TestVerifyDetectsContentDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	_, err := Save(validLedger(), path)
	require.NoError(t, err)

	_, err = Verify(path, []byte("{}"))
	assert.True(t, ir.IsInternal(err))
}
