package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionHandler_AddsLiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	phase := "idle"
	h := NewSessionHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.String("startFlag", phase)}
	})
	logger := slog.New(h)

	logger.Info("first")
	phase = "deployed"
	logger.Info("second")

	out := buf.String()
	assert.Contains(t, out, "msg=first startFlag=idle")
	assert.Contains(t, out, "msg=second startFlag=deployed")
}

func TestSessionHandler_NilProvider(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSessionHandler(slog.NewTextHandler(&buf, nil), nil))

	logger.Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}

func TestSessionHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	h := NewSessionHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.Int("tracks", 2)}
	})

	slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "engine")})).Info("attrs")
	assert.Contains(t, buf.String(), "component=engine")
	assert.Contains(t, buf.String(), "tracks=2")

	assert.Same(t, h, h.WithGroup(""))
	buf.Reset()
	slog.New(h.WithGroup("session")).Info("grouped")
	assert.Contains(t, buf.String(), "session.tracks=2")
}

func TestSessionHandler_RecordKeysWin(t *testing.T) {
	var buf bytes.Buffer
	h := NewSessionHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.Int("tracks", 2), slog.Bool("playing", false)}
	})

	slog.New(h).Info("Tracks synchronized", "tracks", 3)

	out := buf.String()
	assert.Contains(t, out, "tracks=3")
	assert.NotContains(t, out, "tracks=2")
	assert.Contains(t, out, "playing=false")
}

func TestSessionHandler_EmptyState(t *testing.T) {
	var buf bytes.Buffer
	h := NewSessionHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr { return nil })

	slog.New(h).Info("quiet")
	assert.Contains(t, buf.String(), "msg=quiet")
}

func TestSessionHandler_Enabled(t *testing.T) {
	h := NewSessionHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}), nil)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}
