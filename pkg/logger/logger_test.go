package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkfeed/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"warning", false},
		{"error", false},
		{"fatal", false},
		{"disabled", false},
		{"INFO", false},
		{"trace-me", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.NotNil(t, log.GetZerolog())

	_, err = New(&config.LoggingConfig{Level: "bogus"})
	assert.Error(t, err)
}

func TestTestLoggerCapture(t *testing.T) {
	log := NewTestLogger()

	log.Info("fetching page")
	log.WithField("page", 2).Warn("token missing")
	log.WithError(errors.New("boom")).Error("fetch failed")

	assert.True(t, log.HasMessage("fetching page"))
	assert.Len(t, log.MessagesByLevel("WARN"), 1)
	assert.Equal(t, 2, log.MessagesByLevel("WARN")[0].Fields["page"])

	errs := log.MessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, "boom", errs[0].Fields["error"])

	log.Clear()
	assert.Empty(t, log.Messages())
}

func TestTestLoggerFieldChaining(t *testing.T) {
	log := NewTestLogger()

	scoped := log.WithFields(map[string]interface{}{"profile": "someuser"}).WithField("run", "abc")
	scoped.Info("started")

	msgs := log.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "someuser", msgs[0].Fields["profile"])
	assert.Equal(t, "abc", msgs[0].Fields["run"])
}
