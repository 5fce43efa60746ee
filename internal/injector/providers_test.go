package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/core/bt"
)

const doc = `
name: tiny
level: arena
root: s
nodes:
  s: {type: set, params: {key: score, value: 3, scope: level}}
`

func TestInitializeAppRunsDocument(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "silent"
	cfg.Driver.FrameRate = 0
	cfg.Driver.Mode = "hold"
	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "tiny.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	tree, err := app.LoadTree(path)
	require.NoError(t, err)
	assert.Equal(t, bt.HoldAtEnd, tree.Mode())

	app.Runner.Add(tree)
	require.NoError(t, app.Runner.Run(t.Context()))
	assert.Equal(t, bt.StatusSuccess, tree.Result())
	assert.Equal(t, 3, app.Stores.Level("arena").GetInt("score"))
}

func TestLoadTreeReportsBuildErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "silent"
	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: x\nnodes: {x: {type: nope}}\n"), 0o600))
	_, err = app.LoadTree(path)
	assert.ErrorContains(t, err, "nope")
}
