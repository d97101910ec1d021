package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.InfoLevel))

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")

	output := buf.String()
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warning message")
	assert.NotContains(t, output, "debug message")
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithRunID(ctx, "run-1")
	ctx = logging.WithPhase(ctx, "assets")
	ctx = logging.WithSerial(ctx, "ABC123")

	logging.FromContext(ctx).Info().Msg("asset created")

	assert.Equal(t, "run-1", logging.RunID(ctx))
	testLogger.AssertContains(t, `"run_id":"run-1"`)
	testLogger.AssertContains(t, `"phase":"assets"`)
	testLogger.AssertContains(t, `"serial":"ABC123"`)
	testLogger.AssertContains(t, "asset created")
}

func TestFromContextDefaults(t *testing.T) {
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Equal(t, "", logging.RunID(context.Background()))
}

func TestFileSinkCapturesDebug(t *testing.T) {
	for _, level := range []string{"debug", "info", "error"} {
		t.Run(level, func(t *testing.T) {
			file := &bytes.Buffer{}
			logger := logging.NewLoggerFromConfig(&logging.Config{
				Level:  level,
				Format: "json",
				Output: "discard",
				File:   file,
			})
			logger.Debug().Msg("d")
			logger.Info().Msg("i")
			logger.Error().Msg("e")

			assert.Contains(t, file.String(), `"level":"debug"`)
			assert.Contains(t, file.String(), `"level":"info"`)
			assert.Contains(t, file.String(), `"level":"error"`)
		})
	}
}

func TestConsoleLevelWithoutFile(t *testing.T) {
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "error",
		Format: "json",
		Output: "discard",
	})
	assert.Equal(t, zerolog.ErrorLevel, logger.GetLevel())
}

func TestConfigurationFields(t *testing.T) {
	file := &bytes.Buffer{}
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "info",
		Format: "json",
		Output: "discard",
		File:   file,
		Fields: map[string]any{"app": "assetsync"},
	})
	logger.Info().Msg("hello")
	assert.Contains(t, file.String(), `"app":"assetsync"`)
}

func TestOpenRunLog(t *testing.T) {
	dir := t.TempDir()

	first, err := logging.OpenRunLog(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, constants.DefaultLogFile), first.Path)
	_, err = first.Write([]byte("first run\n"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := logging.OpenRunLog(dir, 2)
	require.NoError(t, err)
	_, err = second.Write([]byte("second run\n"))
	require.NoError(t, err)
	require.NoError(t, second.Close())

	current, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, "second run\n", string(current))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	backups := 0
	for _, e := range entries {
		if e.Name() != constants.DefaultLogFile && strings.HasPrefix(e.Name(), "assetsync-") {
			backups++
		}
	}
	assert.Equal(t, 1, backups)
}

func TestOpenRunLogEmptyFileNotRotated(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.DefaultLogFile), nil, constants.FilePermissions))

	rl, err := logging.OpenRunLog(dir, 0)
	require.NoError(t, err)
	defer rl.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
