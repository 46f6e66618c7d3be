// Package testutil holds logging helpers shared by package tests.
package testutil

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a debug-level logger whose output goes through
// t.Log, so it shows up only for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{tb: t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type tbWriter struct{ tb testing.TB }

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// Recorder is a slog.Handler that keeps every record it receives and also
// forwards it to the test log.
type Recorder struct {
	mu      *sync.Mutex
	records *[]slog.Record
	attrs   []slog.Attr
	next    slog.Handler
}

// NewRecordingLogger returns a logger backed by a Recorder.
func NewRecordingLogger(t testing.TB) (*slog.Logger, *Recorder) {
	t.Helper()
	rec := &Recorder{
		mu:      &sync.Mutex{},
		records: &[]slog.Record{},
		next:    NewTestLogger(t).Handler(),
	}
	return slog.New(rec), rec
}

// Enabled implements slog.Handler.
func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *Recorder) Handle(ctx context.Context, rec slog.Record) error {
	rec = rec.Clone()
	rec.AddAttrs(r.attrs...)
	r.mu.Lock()
	*r.records = append(*r.records, rec)
	r.mu.Unlock()
	return r.next.Handle(ctx, rec)
}

// WithAttrs implements slog.Handler.
func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *r
	clone.attrs = append(slices.Clip(r.attrs), attrs...)
	return &clone
}

// WithGroup implements slog.Handler. Groups are flattened.
func (r *Recorder) WithGroup(string) slog.Handler { return r }

// Messages returns the messages logged so far, in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := make([]string, 0, len(*r.records))
	for _, rec := range *r.records {
		msgs = append(msgs, rec.Message)
	}
	return msgs
}

// Attr returns the values of attribute key on every record with message
// msg.
func (r *Recorder) Attr(msg, key string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var values []any
	for _, rec := range *r.records {
		if rec.Message != msg {
			continue
		}
		rec.Attrs(func(a slog.Attr) bool {
			if a.Key == key {
				values = append(values, a.Value.Any())
				return false
			}
			return true
		})
	}
	return values
}
