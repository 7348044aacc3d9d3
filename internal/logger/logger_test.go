package logger_test

import (
	"bytes"
	stderrors "errors"
	"testing"

	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	lvl, ok := logger.ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, logger.DebugLevel, lvl)

	lvl, ok = logger.ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, logger.WarnLevel, lvl)

	_, ok = logger.ParseLevel("verbose")
	assert.False(t, ok)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, logger.WarnLevel, true)
	t.Cleanup(func() { logger.SetLogLevel(logger.InfoLevel) })

	logger.Info().Msg("hidden")
	logger.WarnWithCode(errors.New().Wrap(errors.ErrWrite, stderrors.New("broken pipe"))).Msg("link dropped")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "link dropped")
	assert.Contains(t, out, "write_failed")
	assert.Contains(t, out, "broken pipe")
}
