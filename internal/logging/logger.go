package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Logger provides structured logging with redaction support
type Logger struct {
	debug   bool
	noColor bool
	out     io.Writer
	mu      *sync.Mutex
	fields  []Field
}

// Field is a key=value pair appended to every message of a derived logger.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// New creates a new logger instance writing to stderr
func New(debug, noColor bool) *Logger {
	return NewWithWriter(os.Stderr, debug, noColor)
}

// NewWithWriter creates a logger writing to out
func NewWithWriter(out io.Writer, debug, noColor bool) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{
		debug:   debug,
		noColor: noColor,
		out:     out,
		mu:      &sync.Mutex{},
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard, false, true)
}

// With returns a logger that appends fields to every message.
// The returned logger shares the destination of its parent.
func (l *Logger) With(fields ...Field) *Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{
		debug:   l.debug,
		noColor: l.noColor,
		out:     l.out,
		mu:      l.mu,
		fields:  merged,
	}
}

// DebugEnabled reports whether Debug messages are emitted.
func (l *Logger) DebugEnabled() bool {
	return l.debug
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m✓\033[0m", "✓", format, args)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m⚠\033[0m", "⚠", format, args)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m✗\033[0m", "✗", format, args)
}

// Debug logs a debug message if debug mode is enabled
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m[DEBUG]\033[0m", "[DEBUG]", format, args)
}

func (l *Logger) emit(colored, plain, format string, args []interface{}) {
	msg := fmt.Sprintf(format, args...)
	if len(l.fields) > 0 {
		var b strings.Builder
		b.WriteString(msg)
		for _, f := range l.fields {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
		msg = b.String()
	}

	prefix := colored
	if l.noColor {
		prefix = plain
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.out, "%s %s\n", prefix, msg)
}

// Secret represents a value that should be redacted in logs
type Secret string

// String implements the Stringer interface, always returning a redacted value
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements the GoStringer interface for %#v formatting
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// RedactKeys replaces every whole-token occurrence of each key in s with its
// RedactKey form. An occurrence counts only when it is not directly preceded
// or followed by a letter, digit or underscore, so short keys do not rewrite
// unrelated words.
func RedactKeys(s string, keys ...string) string {
	for _, key := range keys {
		if key != "" {
			s = replaceToken(s, key, RedactKey(key))
		}
	}
	return s
}

func replaceToken(s, token, repl string) string {
	var b strings.Builder
	start, from := 0, 0
	for from < len(s) {
		i := strings.Index(s[from:], token)
		if i < 0 {
			break
		}
		i += from
		end := i + len(token)
		if !isTokenBoundary(s, i, end) {
			_, size := utf8.DecodeRuneInString(s[i:])
			from = i + size
			continue
		}
		b.WriteString(s[start:i])
		b.WriteString(repl)
		start, from = end, end
	}
	if start == 0 {
		return s
	}
	b.WriteString(s[start:])
	return b.String()
}

func isTokenBoundary(s string, i, end int) bool {
	if i > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:i]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// RedactKey masks a secret name for log output.
//
// Names of six runes or fewer are replaced entirely with asterisks of the same
// length. Longer names keep their first and last three runes.
func RedactKey(key string) string {
	runes := []rune(key)
	if len(runes) <= 6 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:3]) + "***" + string(runes[len(runes)-3:])
}

// Key wraps a secret name so that it formats in redacted form.
type Key string

// String implements fmt.Stringer.
func (k Key) String() string {
	return RedactKey(string(k))
}

// GoString implements fmt.GoStringer.
func (k Key) GoString() string {
	return RedactKey(string(k))
}
