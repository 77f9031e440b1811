package logging

import (
	"context"
	"log/slog"
)

// SessionState reports the live state of the sync session (track count,
// flag phases, playback) at the moment a record is logged.
type SessionState func() []slog.Attr

// SessionHandler stamps every record with the current session state. Keys
// the record already carries are not repeated, so a call that logs its own
// "tracks" value keeps that value.
type SessionHandler struct {
	inner slog.Handler
	state SessionState
}

func NewSessionHandler(inner slog.Handler, state SessionState) *SessionHandler {
	return &SessionHandler{inner: inner, state: state}
}

func (h *SessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *SessionHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.state == nil {
		return h.inner.Handle(ctx, r)
	}
	attrs := h.state()
	if len(attrs) == 0 {
		return h.inner.Handle(ctx, r)
	}

	seen := make(map[string]struct{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		seen[a.Key] = struct{}{}
		return true
	})
	for _, a := range attrs {
		if _, dup := seen[a.Key]; !dup {
			r.AddAttrs(a)
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *SessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SessionHandler{inner: h.inner.WithAttrs(attrs), state: h.state}
}

func (h *SessionHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SessionHandler{inner: h.inner.WithGroup(name), state: h.state}
}
