package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerWritesTypedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core, LevelDebug)

	child := l.With(String("component", "sim"))
	child.Debug("spawned", Int("n", 3), Uint64("tick", 9), Bool("ok", true), Error(errors.New("boom")))

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "sim", ctx["component"])
	assert.EqualValues(t, 3, ctx["n"])
	assert.EqualValues(t, 9, ctx["tick"])
	assert.Equal(t, true, ctx["ok"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestSetLevelFiltersChildren(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core, LevelDebug)
	child := l.With(String("component", "runner"))

	l.SetLevel(LevelWarn)
	assert.Equal(t, LevelWarn, child.GetLevel())

	child.Info("dropped")
	child.Log(LevelDebug, "dropped")
	child.Warn("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().Error("nothing", String("k", "v"))
	})
}

func TestProvideSharesProcessLogger(t *testing.T) {
	first := Provide(LevelWarn)
	second := Provide(LevelDebug)

	assert.Same(t, first, second)
	assert.Equal(t, LevelDebug, first.GetLevel())

	Provide(LevelError)
	assert.Equal(t, LevelError, second.GetLevel())
}
