package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/unisecret/internal/logging"
)

// TestLogger captures log output for validation in tests.
//
// It embeds a real *logging.Logger writing to an in-memory buffer, so it can
// be handed to any component that takes a logger. Tests then verify that
// secret names are redacted and values never appear.
//
// Example usage:
//
//	logger := testutil.NewTestLogger(t)
//	r, _ := resolve.New(chain, resolve.WithLogger(logger.Logger))
//	_, _ = r.Resolve(ctx, "DATABASE_PASSWORD")
//
//	logger.AssertKeyRedacted(t, "DATABASE_PASSWORD")
//	logger.AssertNotContains(t, "secret123")
type TestLogger struct {
	*logging.Logger
	buffer *syncBuffer
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// NewTestLogger creates a TestLogger with debug output enabled and colors off.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()
	return NewTestLoggerWithDebug(t, true)
}

// NewTestLoggerWithDebug creates a TestLogger with the given debug setting.
func NewTestLoggerWithDebug(t *testing.T, debug bool) *TestLogger {
	t.Helper()

	buf := &syncBuffer{}
	return &TestLogger{
		Logger: logging.NewWithWriter(buf, debug, true),
		buffer: buf,
	}
}

// GetOutput returns the captured log output as a string.
func (l *TestLogger) GetOutput() string {
	return l.buffer.String()
}

// Clear clears the captured log output.
func (l *TestLogger) Clear() {
	l.buffer.Reset()
}

// AssertContains asserts that the log output contains the specified substring.
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.GetOutput(), substr, "Expected log output to contain %q", substr)
}

// AssertNotContains asserts that the log output does NOT contain the specified substring.
//
// This is particularly useful for verifying that secrets are redacted.
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, l.GetOutput(), substr, "Expected log output to NOT contain %q", substr)
}

// AssertKeyRedacted asserts that key only appears in its redacted form.
func (l *TestLogger) AssertKeyRedacted(t *testing.T, key string) {
	t.Helper()

	output := l.GetOutput()
	redacted := logging.RedactKey(key)
	assert.NotContains(t, strings.ReplaceAll(output, redacted, ""), key,
		"Secret name %q should be redacted, but appears in logs", key)
	assert.Contains(t, output, redacted, "Expected redacted name %q in logs", redacted)
}

// AssertLogCount asserts that a specific log level appears a certain number of times.
//
// Level markers:
//   - Info: "✓"
//   - Warn: "⚠"
//   - Error: "✗"
//   - Debug: "[DEBUG]"
func (l *TestLogger) AssertLogCount(t *testing.T, level string, count int) {
	t.Helper()

	var marker string
	switch level {
	case "info":
		marker = "✓"
	case "warn":
		marker = "⚠"
	case "error":
		marker = "✗"
	case "debug":
		marker = "[DEBUG]"
	default:
		t.Fatalf("Unknown log level: %s", level)
	}

	actual := strings.Count(l.GetOutput(), marker)
	assert.Equal(t, count, actual, "Expected %d %s log messages, got %d", count, level, actual)
}

// Lines returns the log output split into individual lines.
//
// Empty lines are filtered out.
func (l *TestLogger) Lines() []string {
	lines := strings.Split(l.GetOutput(), "\n")

	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
