package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counter = `
name: counter
mode: repeat
root: inc
nodes:
  inc:
    type: script
    params:
      source: bb.add("n", 1)
`

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunCommand(t *testing.T) {
	t.Setenv("BEHAVE_CONFIG", "")
	var out, errOut bytes.Buffer
	err := run(context.Background(),
		[]string{"run", "-frames", "5", "-rate", "0", "-log-level", "silent", writeDoc(t, counter)},
		&out, &errOut)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "counter: Running after 5 frames")
	assert.Contains(t, out.String(), "n = 5")
}

func TestRunHoldModeOverride(t *testing.T) {
	t.Setenv("BEHAVE_CONFIG", "")
	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"run", "-mode", "hold", "-rate", "0", "-log-level", "silent", writeDoc(t, counter)},
		&out, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "counter: finished: Success after 1 frames")
}

func TestValidateCommand(t *testing.T) {
	t.Setenv("BEHAVE_CONFIG", "")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(),
		[]string{"validate", "-log-level", "silent", writeDoc(t, counter)}, &out, &out))
	assert.Contains(t, out.String(), `counter: ok (root "inc", mode repeat)`)

	err := run(context.Background(),
		[]string{"validate", "-log-level", "silent", writeDoc(t, "root: x\nnodes: {}\n")}, &out, &out)
	assert.Error(t, err)
}

func TestUsageErrors(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), nil, &out, &out))
	assert.Contains(t, out.String(), "Usage:")

	assert.ErrorContains(t, run(context.Background(), []string{"fly"}, &out, &out), "unknown command")
	assert.ErrorContains(t, run(context.Background(), []string{"run"}, &out, &out), "expected one document")
}
