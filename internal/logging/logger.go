// Package logging wires the two log surfaces atomloop writes to: a
// leveled slog.Logger on stderr for operational messages, and an
// append-only JSONL trace of scheduling decisions under
// .atomloop/decisions.jsonl. Stdout stays clean for the MCP transport.
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace sits below slog.LevelDebug and enables per-atom scoring
// breakdowns and other high-volume output.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel converts a config-file level name into a slog.Level.
// Recognized names are "info", "debug", and "trace", case-insensitive;
// anything else is treated as info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLogger builds a text-format slog.Logger on w filtered to the given
// level name.
func NewLogger(level string, w io.Writer) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: labelTraceLevel,
	})
	return slog.New(h)
}

// labelTraceLevel renders the custom trace level as "TRACE" instead of
// slog's default "DEBUG-4".
func labelTraceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

// DecisionLogger appends one JSON object per line to decisions.jsonl:
// which atoms entered a queue and why, how each response was diagnosed,
// and how each grade moved the schedule. A nil *DecisionLogger is a
// valid no-op logger, so call sites never need to guard. Safe for
// concurrent use.
type DecisionLogger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewDecisionLogger opens dir/decisions.jsonl for append when the level
// is debug or trace. At info level nothing is created and nil is
// returned. Open failures also return nil; decision tracing is never
// worth failing a command over.
func NewDecisionLogger(dir string, level string) *DecisionLogger {
	if ParseLevel(level) >= slog.LevelInfo {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "decisions.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &DecisionLogger{f: f, enc: json.NewEncoder(f)}
}

// Log appends one event as a JSONL line, stamping it with the current
// UTC time. The caller's map is copied, not mutated. No-op on a nil
// receiver or after Close.
func (d *DecisionLogger) Log(event map[string]any) {
	if d == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enc == nil {
		return
	}
	_ = d.enc.Encode(entry)
}

// Close flushes and closes the trace file. No-op on a nil receiver.
func (d *DecisionLogger) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f != nil {
		d.f.Close()
		d.f = nil
		d.enc = nil
	}
}
