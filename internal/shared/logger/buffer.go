package logger

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

const logBufferSize = 500

// LogEntry は /api/logs で返すログ1件分
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type ringBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int
	full    bool
}

var logBuffer = &ringBuffer{entries: make([]LogEntry, logBufferSize)}

func (b *ringBuffer) add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[b.next] = entry
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

// snapshot returns entries oldest first.
func (b *ringBuffer) snapshot() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		out := make([]LogEntry, b.next)
		copy(out, b.entries[:b.next])
		return out
	}
	out := make([]LogEntry, 0, len(b.entries))
	out = append(out, b.entries[b.next:]...)
	out = append(out, b.entries[:b.next]...)
	return out
}

// GetLogBuffer returns up to limit most recent entries (limit<=0 means all).
func GetLogBuffer(limit int) []LogEntry {
	entries := logBuffer.snapshot()
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries
}

// bufferCore はzapのエントリをリングバッファに積むCore
type bufferCore struct {
	zapcore.LevelEnabler
	fields []zapcore.Field
}

func newBufferCore(level zapcore.LevelEnabler) zapcore.Core {
	return &bufferCore{LevelEnabler: level}
}

func (c *bufferCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &bufferCore{LevelEnabler: c.LevelEnabler, fields: merged}
}

func (c *bufferCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *bufferCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	logEntry := LogEntry{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
	}
	if len(enc.Fields) > 0 {
		logEntry.Fields = enc.Fields
	}
	logBuffer.add(logEntry)
	return nil
}

func (c *bufferCore) Sync() error {
	return nil
}
