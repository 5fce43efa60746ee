package graph

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/expr-lang/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/behave/internal/core/blackboard"
	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/observability/log"
)

func TestExprsCacheBySource(t *testing.T) {
	e := NewExprs(nil)
	p1, err := e.Compile("a > 1")
	require.NoError(t, err)
	p2, err := e.Compile("a > 1")
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, e.Len())

	_, err = e.Compile("a >")
	assert.Error(t, err)
	assert.Equal(t, 1, e.Len())
}

func TestExprsCacheChecksSource(t *testing.T) {
	e := NewExprs(nil)
	other, err := e.Compile("false")
	require.NoError(t, err)
	e.progs[xxhash.Sum64String("true")] = compiled{src: "false", prog: other}

	p, err := e.Compile("true")
	require.NoError(t, err)
	assert.NotSame(t, other, p)
	out, err := expr.Run(p, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestExprsRequireBool(t *testing.T) {
	_, err := NewExprs(nil).Compile(`"text"`)
	assert.Error(t, err)
}

func TestEnvScopes(t *testing.T) {
	reg := blackboard.NewRegistry()
	reg.Global().SetString("weather", "rain")
	reg.Level("keep").SetInt("guards", 4)

	var got map[string]any
	capture := bt.NewAction("capture", func(ctx bt.TickContext) bt.Status {
		got = Env(ctx)
		return bt.StatusSuccess
	})
	tree := bt.NewTree("t", bt.WithRegistry(reg), bt.WithLevel("keep")).SetRoot(capture)
	tree.LocalStore().SetFloat("hp", 0.5)
	tree.Spawn()
	tree.Tick()

	assert.Equal(t, 0.5, got["hp"])
	assert.Equal(t, uint64(1), got["frame"])
	assert.Equal(t, map[string]any{"guards": int64(4)}, got["level"])
	assert.Equal(t, map[string]any{"weather": "rain"}, got["global"])
}

func TestPredicateEvaluates(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := NewExprs(log.FromZap(zap.New(core)))

	ok, err := e.Predicate(`hp < 0.3 || global.weather == "rain"`)
	require.NoError(t, err)
	broken, err := e.Predicate(`hp + "x" > 1`)
	require.NoError(t, err)

	reg := blackboard.NewRegistry()
	var results []bool
	capture := bt.NewAction("capture", func(ctx bt.TickContext) bt.Status {
		results = append(results, ok(ctx), broken(ctx))
		return bt.StatusSuccess
	})
	tree := bt.NewTree("t", bt.WithRegistry(reg)).SetRoot(capture)
	tree.LocalStore().SetFloat("hp", 0.9)
	reg.Global().SetString("weather", "rain")
	tree.Spawn()
	tree.Tick()

	assert.Equal(t, []bool{true, false}, results)
	assert.Equal(t, 1, logs.FilterMessage("expression failed").Len())
}
