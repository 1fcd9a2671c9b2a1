package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "Info"} {
			logger, err := Setup(level)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		}
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := Setup("verbose")
		require.NoError(t, err)
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
		assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})
}

func TestFromContext(t *testing.T) {
	t.Run("returns stored logger", func(t *testing.T) {
		stored := slog.Default().With(slog.String("trace_id", "abc"))
		ctx := WithLogger(context.Background(), stored)

		got := FromContext(ctx)
		assert.Same(t, stored, got)
	})

	t.Run("returns default when absent", func(t *testing.T) {
		got := FromContext(context.Background())
		assert.Same(t, slog.Default(), got)
	})
}

func TestFromContextOrDefault(t *testing.T) {
	component := slog.Default().With(slog.String("component", "test"))

	t.Run("prefers context logger", func(t *testing.T) {
		stored := slog.Default().With(slog.String("trace_id", "abc"))
		ctx := WithLogger(context.Background(), stored)

		got := FromContextOrDefault(ctx, component)
		assert.Same(t, stored, got)
	})

	t.Run("falls back to provided logger", func(t *testing.T) {
		got := FromContextOrDefault(context.Background(), component)
		assert.Same(t, component, got)
	})

	t.Run("falls back to process default when both absent", func(t *testing.T) {
		got := FromContextOrDefault(context.Background(), nil)
		assert.Same(t, slog.Default(), got)
	})
}
