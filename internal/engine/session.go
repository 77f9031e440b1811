// Package engine owns one synchronization session: the loaded tracks, the
// two flags, the synchronized timeline and the playback clock.
//
// A Session is not safe for concurrent use. The caller serializes every
// command; the session starts no goroutines and holds no timers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/tracksync/internal/colormap"
	"github.com/OCAP2/tracksync/internal/flag"
	"github.com/OCAP2/tracksync/internal/playback"
	"github.com/OCAP2/tracksync/internal/timesync"
	"github.com/OCAP2/tracksync/internal/track"
	"github.com/OCAP2/tracksync/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Option configures a Session.
type Option func(*Session)

// WithColors sets the color mapping used for markers and the legend.
func WithColors(m colormap.Mapper) Option {
	return func(s *Session) {
		s.colors = m
	}
}

// WithLegendSteps sets the number of legend intervals.
func WithLegendSteps(n int) Option {
	return func(s *Session) {
		s.legendSteps = n
	}
}

// WithMeter replaces the global meter.
func WithMeter(m metric.Meter) Option {
	return func(s *Session) {
		s.meter = m
	}
}

// Session composes the engine components.
type Session struct {
	store *track.Store
	clock *playback.Clock
	sync  *timesync.Engine
	flags *flag.Controller

	colors      colormap.Mapper
	legendSteps int

	logger  *slog.Logger
	meter   metric.Meter
	metrics *instruments
}

// New creates an empty session. A nil logger falls back to slog.Default.
func New(logger *slog.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		store:       track.NewStore(),
		clock:       playback.NewClock(),
		logger:      logger,
		legendSteps: 5,
		colors: colormap.Mapper{
			Mode:       colormap.ModeSpeed,
			Units:      colormap.Mph,
			Min:        0,
			Max:        100,
			Continuous: true,
		},
	}
	s.sync = timesync.New(s.store, s.clock)
	s.flags = flag.New(s.store, s.sync)

	for _, opt := range opts {
		opt(s)
	}
	if s.meter == nil {
		s.meter = meter()
	}

	var err error
	s.metrics, err = newInstruments(s.meter)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AddTrack stores a track and returns its index. Tracks added after a
// synchronization take part only after the next resync.
func (s *Session) AddTrack(t *core.Track) (int, error) {
	idx, err := s.store.Add(t)
	if err != nil {
		s.logger.Warn("Track rejected", "error", err)
		return -1, err
	}
	s.metrics.tracksLoaded.Add(context.Background(), 1)
	s.logger.Info("Track added", "index", idx, "name", t.Name, "points", t.Len())
	return idx, nil
}

// RemoveTrack drops the track at index and repairs flag references. With
// fewer than two visible tracks left everything is cleared. A deployed pair
// of flags is resynchronized over the remaining tracks; otherwise any
// existing synchronization is dropped, since its track indices and interval
// no longer match the store.
func (s *Session) RemoveTrack(index int) error {
	removed, err := s.store.Remove(index)
	if err != nil {
		return err
	}
	s.metrics.tracksLoaded.Add(context.Background(), -1)
	retracted := s.flags.TrackRemoved(index)
	s.logger.Info("Track removed", "index", index, "name", removed.Name, "retracted", len(retracted))

	switch {
	case s.store.VisibleCount() < 2:
		s.flags.ClearAll()
		s.logger.Debug("Flags cleared after track removal", "visible", s.store.VisibleCount())
	case s.flags.BothDeployed():
		if _, err := s.resync(); err != nil {
			return fmt.Errorf("resync after removing track %d: %w", index, err)
		}
	case len(retracted) > 0 || s.sync.Last().Synced():
		s.sync.Reset()
		s.logger.Debug("Synchronization dropped after track removal", "index", index)
	}
	return nil
}

// SetVisible shows or hides a track. Synchronization is not rerun; a newly
// shown track joins on the next resync.
func (s *Session) SetVisible(index int, visible bool) error {
	if err := s.store.SetVisible(index, visible); err != nil {
		return err
	}
	s.logger.Debug("Track visibility changed", "index", index, "visible", visible)
	return nil
}

// PickUp arms a flag for placement.
func (s *Session) PickUp(kind core.FlagKind) error {
	if err := s.flags.PickUp(kind); err != nil {
		s.logger.Debug("Pick up refused", "flag", kind.String(), "error", err)
		return err
	}
	return nil
}

// PlaceAt deploys a picked-up flag on the nearest visible track point and
// resynchronizes once both flags are down.
func (s *Session) PlaceAt(kind core.FlagKind, query core.Position3D) (core.Flag, error) {
	f, err := s.flags.PlaceAt(kind, query)
	if f.Deployed() {
		s.metrics.flagsPlaced.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("flag", kind.String())))
		s.logger.Info("Flag placed", "flag", kind.String(), "track", f.Ref.TrackIndex, "point", f.Ref.PointIndex)
	}
	if err != nil {
		s.logPlacement(kind, err)
		return f, err
	}
	if s.flags.BothDeployed() {
		s.recordSync(s.sync.Last())
	}
	return f, nil
}

// Move relocates a flag.
func (s *Session) Move(kind core.FlagKind, query core.Position3D) (core.Flag, error) {
	f, err := s.flags.Move(kind, query)
	if err != nil {
		s.logPlacement(kind, err)
		return f, err
	}
	s.metrics.flagsPlaced.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("flag", kind.String())))
	s.logger.Info("Flag moved", "flag", kind.String(), "track", f.Ref.TrackIndex, "point", f.Ref.PointIndex)
	if s.flags.BothDeployed() {
		s.recordSync(s.sync.Last())
	}
	return f, nil
}

// Clear returns one flag to idle. The current synchronization is kept.
func (s *Session) Clear(kind core.FlagKind) error {
	return s.flags.Clear(kind)
}

// ClearAll returns both flags to idle, drops every synchronized series and
// empties the playback interval.
func (s *Session) ClearAll() {
	s.flags.ClearAll()
	s.logger.Info("Flags cleared")
}

// Resync reruns synchronization from the deployed flags, picking up tracks
// that were added or shown since the last run.
func (s *Session) Resync() (timesync.Result, error) {
	return s.resync()
}

func (s *Session) resync() (timesync.Result, error) {
	res, err := s.flags.Resync()
	if err != nil {
		s.logger.Warn("Resync failed", "error", err)
		return res, err
	}
	s.recordSync(res)
	return res, nil
}

func (s *Session) recordSync(res timesync.Result) {
	ctx := context.Background()
	s.metrics.syncRuns.Add(ctx, 1)
	s.metrics.syncedTracks.Record(ctx, int64(len(res.Tracks)))
	s.logger.Info("Tracks synchronized",
		"reference", res.Reference,
		"tracks", len(res.Tracks),
		"start", res.Start,
		"end", res.End,
	)
}

func (s *Session) logPlacement(kind core.FlagKind, err error) {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidState) {
		s.logger.Debug("Flag not placed", "flag", kind.String(), "error", err)
		return
	}
	s.logger.Warn("Flag placement failed", "flag", kind.String(), "error", err)
}

// Play starts playback over the synchronized interval.
func (s *Session) Play() error {
	if err := s.clock.Play(); err != nil {
		s.logger.Debug("Play refused", "error", err)
		return err
	}
	s.logger.Debug("Playback started", "at", s.clock.CurrentTime(), "speed", s.clock.Speed())
	return nil
}

// Pause stops playback at the current time.
func (s *Session) Pause() {
	s.clock.Pause()
}

// Tick advances playback by elapsed wall-clock seconds.
func (s *Session) Tick(elapsed float64) (Frame, error) {
	f, err := s.clock.Tick(elapsed)
	if err != nil {
		return s.frame(f), err
	}
	if f.Finished {
		s.logger.Info("Playback finished", "at", f.CurrentTime)
	}
	return s.frame(f), nil
}

// SeekNormalized jumps to a fraction of the synchronized interval.
func (s *Session) SeekNormalized(p float64) Frame {
	s.clock.SeekNormalized(p)
	return s.Frame()
}

// SetSpeed changes the playback multiplier.
func (s *Session) SetSpeed(x float64) error {
	return s.clock.SetSpeed(x)
}

// ResetToSyncPoint rewinds to the start of the interval and stops.
func (s *Session) ResetToSyncPoint() Frame {
	s.clock.ResetToSyncPoint()
	return s.Frame()
}

// Frame returns the current playback state with markers.
func (s *Session) Frame() Frame {
	return s.frame(s.clock.Frame())
}

// Bounds returns the synchronized interval.
func (s *Session) Bounds() (start, end float64) {
	return s.clock.Bounds()
}

// Flags returns the state of both flags.
func (s *Session) Flags() []core.Flag {
	return s.flags.Flags()
}

// SyncResult returns the outcome of the latest synchronization.
func (s *Session) SyncResult() timesync.Result {
	return s.sync.Last()
}

// Legend returns the legend for the configured color mode.
func (s *Session) Legend() []colormap.LegendEntry {
	return s.colors.Legend(s.legendSteps)
}

// SetColors replaces the color mapping.
func (s *Session) SetColors(m colormap.Mapper) {
	s.colors = m
}

// Colors returns the color mapping.
func (s *Session) Colors() colormap.Mapper {
	return s.colors
}

// Track returns the track at index.
func (s *Session) Track(index int) (*core.Track, bool) {
	return s.store.Get(index)
}

// TrackCount returns the number of loaded tracks.
func (s *Session) TrackCount() int {
	return s.store.Len()
}

// LogAttrs describes the session for log records.
func (s *Session) LogAttrs() []slog.Attr {
	flags := s.flags.Flags()
	return []slog.Attr{
		slog.Int("tracks", s.store.Len()),
		slog.String("startFlag", flags[core.FlagStart].Phase.String()),
		slog.String("finishFlag", flags[core.FlagFinish].Phase.String()),
		slog.String("playback", s.clock.State().String()),
	}
}
