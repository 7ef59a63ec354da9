package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelString(t *testing.T) {
	cases := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.level.String())
	}
}

func TestInitAndLog(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelDebug, &buf)

	Info("test", "hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")
	assert.Contains(t, buf.String(), "subsystem=test")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelWarn, &buf)

	Debug("test", "should not appear")
	Info("test", "should not appear either")
	assert.Empty(t, buf.String())

	Warn("test", "should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestAuditEvent(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Audit(AuditEvent{
		Action:  "factory_check",
		Outcome: "failure",
		Domain:  "adapter",
		Key:     "cache",
		Error:   "blocked module",
	})

	out := buf.String()
	assert.Contains(t, out, "[AUDIT]")
	assert.Contains(t, out, "action=factory_check")
	assert.Contains(t, out, "outcome=failure")
	assert.Contains(t, out, "domain=adapter")
	assert.Contains(t, out, "key=cache")
}

func TestScrubFields(t *testing.T) {
	in := map[string]interface{}{
		"provider":    "redis",
		"api_token":   "super-secret-value",
		"password":    "hunter2",
		"owner":       "platform-team",
		"signing_key": "abcd",
	}

	out := ScrubFields(in)
	assert.Equal(t, "redis", out["provider"])
	assert.Equal(t, "platform-team", out["owner"])
	assert.Equal(t, redactedValue, out["api_token"])
	assert.Equal(t, redactedValue, out["password"])
	assert.Equal(t, redactedValue, out["signing_key"])
}

func TestScrubString(t *testing.T) {
	in := "connecting with token=abc123 and user=alice"
	out := ScrubString(in)
	assert.True(t, strings.Contains(out, "token="+redactedValue))
	assert.Contains(t, out, "user=alice")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", TruncateID("short"))
	assert.Equal(t, "12345678...", TruncateID("1234567890abcdef"))
}
