package logger

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/wonny/quantscore/pkg/config"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"}
	log := New(cfg)
	assert.NotNil(t, log)

	// Chained loggers must not panic and must return fresh instances
	derived := log.WithField("module", "test").
		WithFields(map[string]interface{}{"a": 1, "b": "two"}).
		WithError(errors.New("boom"))
	assert.NotNil(t, derived)
	derived.Debug("chained logger works")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input), "input %q", tt.input)
	}
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Info("discarded")
	log.WithField("k", "v").Error("also discarded")
}
