// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	Configure(cfg)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		Configure(Config{Level: LevelInfo, Format: "text"})
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
		ok    bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"Warning", LevelWarn, true},
		{"error", LevelError, true},
		{"fatal", LevelFatal, true},
		{"verbose", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t, Config{Level: LevelWarn})

	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "warn 3")
	assert.Contains(t, out, "error 4")
	assert.Equal(t, LevelWarn, GetLevel())
}

func TestJSONFormat(t *testing.T) {
	buf := captureOutput(t, Config{Level: LevelInfo, Format: "json"})

	Info("hello", " world")

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "hello world", record["msg"])
}

func TestFatalExits(t *testing.T) {
	buf := captureOutput(t, Config{Level: LevelError})

	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	Fatalf("boom %s", "now")

	assert.Equal(t, 1, code)
	assert.True(t, strings.Contains(buf.String(), "level=FATAL"), buf.String())
	assert.Contains(t, buf.String(), "boom now")
}
