package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/behave/internal/core/blackboard"
	"github.com/zeusync/behave/internal/core/bt"
)

func runScript(t *testing.T, body string, setup func(*bt.Tree)) (*Script, *bt.Tree) {
	t.Helper()
	s, err := NewScript("s", body)
	require.NoError(t, err)
	tree := bt.NewTree("t", bt.WithRegistry(blackboard.NewRegistry()), bt.WithLevel("lvl")).SetRoot(s)
	if setup != nil {
		setup(tree)
	}
	tree.Spawn()
	tree.Tick()
	return s, tree
}

func TestScriptResults(t *testing.T) {
	cases := map[string]bt.Status{
		`return "running"`:     bt.StatusRunning,
		`return "failure"`:     bt.StatusFailure,
		`return true`:          bt.StatusSuccess,
		`return false`:         bt.StatusFailure,
		``:                     bt.StatusSuccess,
		`return 42`:            bt.StatusFailure,
		`throw new Error("x")`: bt.StatusFailure,
	}
	for body, want := range cases {
		t.Run(body, func(t *testing.T) {
			s, _ := runScript(t, body, nil)
			assert.Equal(t, want, s.Status())
		})
	}
}

func TestScriptStoreAccess(t *testing.T) {
	_, tree := runScript(t, `
		bb.set("name", "orc");
		bb.set("speed", 2);
		bb.set("pos", {x: 1, y: 2, z: 3});
		level.set("seen", bb.has("name"));
		global.add("kills", 2);
		bb.set("tick", frame);
	`, func(tree *bt.Tree) {
		tree.LocalStore().SetFloat("speed", 0.5)
	})

	local := tree.LocalStore()
	assert.Equal(t, "orc", local.GetString("name"))
	assert.InDelta(t, 2.0, local.GetFloat("speed"), 1e-9)
	assert.Equal(t, blackboard.Vec3{X: 1, Y: 2, Z: 3}, local.GetVec3("pos"))
	assert.Equal(t, 1, local.GetInt("tick"))
	assert.True(t, tree.Registry().Level("lvl").GetBool("seen"))
	assert.Equal(t, 2, tree.Registry().Global().GetInt("kills"))
}

func TestScriptTypeConflictFails(t *testing.T) {
	s, tree := runScript(t, `bb.set("hp", "lots")`, func(tree *bt.Tree) {
		tree.LocalStore().SetInt("hp", 3)
	})
	assert.Equal(t, bt.StatusFailure, s.Status())
	require.Error(t, s.Err())
	assert.Contains(t, s.Err().Error(), "cannot write")
	assert.Equal(t, 3, tree.LocalStore().GetInt("hp"))
}

func TestScriptRejectsReservedKeys(t *testing.T) {
	s, tree := runScript(t, `bb.set("level", 3)`, nil)
	assert.Equal(t, bt.StatusFailure, s.Status())
	require.Error(t, s.Err())
	assert.Contains(t, s.Err().Error(), ErrReservedKey.Error())
	assert.False(t, tree.LocalStore().Has("level"))

	s, tree = runScript(t, `level.set("frame", 1); global.add("global", 1)`, nil)
	assert.Equal(t, bt.StatusSuccess, s.Status())
	assert.Equal(t, 1, tree.Registry().Level("lvl").GetInt("frame"))
	assert.Equal(t, 1, tree.Registry().Global().GetInt("global"))
}
