package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsModelFile(t *testing.T) {
	tests := map[string]bool{
		"model/notes.cue":                true,
		"model/notes.YAML":               true,
		"model/notes.yml":                true,
		"model/idsync-model.json":        false,
		"model/idsync-model.json.bak":    false,
		"model/.notes.cue.swp":           false,
		"model/.idsync-model.json-1.tmp": false,
		"model/.hidden.yaml":             false,
	}
	for path, want := range tests {
		assert.Equal(t, want, IsModelFile(path), path)
	}
}

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) handle(_ context.Context, changed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, changed)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func TestRunDebouncesModelChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 100*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.handle) }()

	a := filepath.Join(dir, "a.cue")
	b := filepath.Join(dir, "b.cue")
	require.NoError(t, os.WriteFile(a, []byte("package model\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("package model\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ids.json"), []byte("{}"), 0o644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{a, b}, batches[0])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunIgnoresLedgerWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go func() { _ = w.Run(ctx, rec.handle) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ids.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ids.json.bak"), []byte("{}"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestNewFailsForMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent"), time.Millisecond, nil)
	assert.Error(t, err)
}
