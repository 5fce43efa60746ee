package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":  LevelDebug,
		"":       LevelInfo,
		"info":   LevelInfo,
		"warn":   LevelWarn,
		"error":  LevelError,
		"silent": LevelSilent,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFieldsReachZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core))

	l.Named("bt").With(String("tree", "guard")).Warn("interrupted",
		Int("frame", 3),
		Bool("parent", true),
		Duration("elapsed", time.Second),
		Error(errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "interrupted", e.Message)
	assert.Equal(t, "bt", e.LoggerName)
	ctx := e.ContextMap()
	assert.Equal(t, "guard", ctx["tree"])
	assert.Equal(t, int64(3), ctx["frame"])
	assert.Equal(t, true, ctx["parent"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestSetLevelFiltersLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core))
	l.SetLevel(LevelError)
	assert.Equal(t, LevelError, l.GetLevel())

	l.Log(LevelInfo, "dropped")
	l.Log(LevelError, "kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Info("nothing")
	assert.Equal(t, LevelSilent, l.GetLevel())
	assert.NotNil(t, Provide())
}
