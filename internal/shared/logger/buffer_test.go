package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestGetLogBuffer_KeepsMostRecentEntries(t *testing.T) {
	logBuffer = &ringBuffer{entries: make([]LogEntry, 3)}
	Init(false)

	Info("first")
	Info("second", zap.String("user", "bob"))
	Info("third")
	Info("fourth")

	entries := GetLogBuffer(0)
	if len(entries) != 3 {
		t.Fatalf("unexpected entry count: got=%d want=3", len(entries))
	}
	if entries[0].Message != "second" || entries[2].Message != "fourth" {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[0].Fields["user"] != "bob" {
		t.Fatalf("fields not captured: %+v", entries[0].Fields)
	}

	limited := GetLogBuffer(1)
	if len(limited) != 1 || limited[0].Message != "fourth" {
		t.Fatalf("unexpected limited entries: %+v", limited)
	}
}

func TestGetLogBuffer_SkipsDebugWhenNotEnabled(t *testing.T) {
	logBuffer = &ringBuffer{entries: make([]LogEntry, 10)}
	Init(false)

	Debug("hidden")
	Warn("visible")

	entries := GetLogBuffer(0)
	if len(entries) != 1 || entries[0].Message != "visible" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Level != "warn" {
		t.Fatalf("unexpected level: got=%q want=%q", entries[0].Level, "warn")
	}
}
