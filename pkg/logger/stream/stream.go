// Package stream is a logging backend that turns log calls into progress
// messages for live subscribers.
package stream

import (
	"fmt"
	"strconv"
	"strings"
)

// Publisher receives rendered lines. *progress.Hub satisfies it.
type Publisher interface {
	Publish(level, message string)
}

// StreamLogger renders "message key=value ..." lines and publishes them.
// Debug output is never published.
type StreamLogger struct {
	pub Publisher
}

func NewStreamLogger(pub Publisher) *StreamLogger {
	return &StreamLogger{pub: pub}
}

func (s *StreamLogger) Log(message string, keyvals ...any) {
	s.pub.Publish("info", Render(message, keyvals...))
}

func (s *StreamLogger) Debug(string, ...any) {}

func (s *StreamLogger) Info(message string, keyvals ...any) {
	s.pub.Publish("info", Render(message, keyvals...))
}

func (s *StreamLogger) Warn(message string, keyvals ...any) {
	s.pub.Publish("warn", Render(message, keyvals...))
}

func (s *StreamLogger) Error(message string, keyvals ...any) {
	s.pub.Publish("error", Render(message, keyvals...))
}

func (s *StreamLogger) Fatal(message string, keyvals ...any) {
	s.pub.Publish("fatal", Render(message, keyvals...))
}

// Render formats keyvals as logfmt-style pairs after the message. A
// trailing key without a value is printed with an empty value.
func Render(message string, keyvals ...any) string {
	var b strings.Builder
	b.WriteString(message)
	for i := 0; i < len(keyvals); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(keyvals[i]))
		b.WriteByte('=')
		if i+1 < len(keyvals) {
			b.WriteString(quote(fmt.Sprint(keyvals[i+1])))
		}
	}
	return b.String()
}

func quote(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		return strconv.Quote(v)
	}
	return v
}
