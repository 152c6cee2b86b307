package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const notesYAML = `entities:
  - name: Note
    properties:
      - name: id
      - name: text
        index: true
      - name: author
        target: User
    relations:
      - name: tags
        target: Tag
  - name: Tag
    properties:
      - name: id
  - name: User
    properties:
      - name: id
`

// project is a temp working directory with a model dir and a ledger path.
type project struct {
	dir     string
	model   string
	ledger  string
	history string
}

func newProject(t *testing.T, modelYAML string) *project {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir) // no idsync.yaml is picked up from the package dir

	p := &project{
		dir:     dir,
		model:   filepath.Join(dir, "model"),
		ledger:  filepath.Join(dir, "model", "idsync-model.json"),
		history: filepath.Join(dir, "history.db"),
	}
	require.NoError(t, os.MkdirAll(p.model, 0o755))
	p.writeModel(t, modelYAML)
	return p
}

func (p *project) writeModel(t *testing.T, modelYAML string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(p.model, "model.yaml"), []byte(modelYAML), 0o644))
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
