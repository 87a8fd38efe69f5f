// Package sessionlog mirrors log records into the settings UI. TeeHandler
// wraps the process's base slog handler and copies every record at or above a
// threshold into a Sink; the coordinator's sink appends to its in-memory log
// ring and pushes the entry over the UI bridge.
package sessionlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"
)

// Entry is one captured log record.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Source  string // dot-joined slog group path, "" at top level
}

// Sink receives captured entries. Handle invokes it synchronously, so a sink
// must not log through a logger backed by the same TeeHandler while holding
// locks it takes here.
type Sink func(Entry)

// TeeHandler forwards every record to a base slog.Handler and mirrors records
// at or above minLevel into a Sink. Visibility is the base handler's decision
// alone; minLevel gates only the mirror.
type TeeHandler struct {
	base     slog.Handler
	sink     Sink
	minLevel slog.Level
	source   string
}

// NewTeeHandler wraps base. A nil sink disables mirroring.
func NewTeeHandler(base slog.Handler, minLevel slog.Level, sink Sink) *TeeHandler {
	return &TeeHandler{
		base:     base,
		sink:     sink,
		minLevel: minLevel,
	}
}

func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle writes the record through the base handler first, then mirrors it.
// The mirror runs even when the base handler fails, and the base error is
// returned either way; slog prints it as its internal fallback.
func (h *TeeHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.base.Handle(ctx, record)

	if h.sink != nil && record.Level >= h.minLevel {
		h.mirror(record)
	}

	return err
}

// mirror hands the record to the sink. A panicking sink is reported on
// stderr, not through slog, which would re-enter this handler.
func (h *TeeHandler) mirror(record slog.Record) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "[session-log] sink panicked: %v\n%s\n", r, debug.Stack())
		}
	}()
	h.sink(Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Source:  h.source,
	})
}

// WithAttrs applies attrs to the base handler. The sink, threshold, and
// source path carry over unchanged.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return &TeeHandler{
		base:     h.base.WithAttrs(attrs),
		sink:     h.sink,
		minLevel: h.minLevel,
		source:   h.source,
	}
}

// WithGroup opens the group on the base handler and appends name to the
// dot-joined source path. An empty name returns the receiver unchanged, per
// the slog.Handler contract.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	source := name
	if h.source != "" {
		source = h.source + "." + name
	}
	return &TeeHandler{
		base:     h.base.WithGroup(name),
		sink:     h.sink,
		minLevel: h.minLevel,
		source:   source,
	}
}
