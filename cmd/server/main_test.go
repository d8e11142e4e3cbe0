package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestExitCode(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	assert.Equal(t, 0, exitCode(logger, nil))
	assert.Zero(t, logs.Len())

	assert.Equal(t, 1, exitCode(logger, errors.New("failed to ping database")))
	entries := logs.FilterMessage("server stopped").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, "failed to ping database", entries[0].ContextMap()["error"])
	}
}
