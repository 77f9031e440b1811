// Package control maps named commands onto session operations.
package control

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/OCAP2/tracksync/internal/colormap"
	"github.com/OCAP2/tracksync/internal/dispatcher"
	"github.com/OCAP2/tracksync/internal/engine"
	"github.com/OCAP2/tracksync/internal/geo"
	"github.com/OCAP2/tracksync/internal/util"
	"github.com/OCAP2/tracksync/pkg/core"
)

// Command names.
const (
	CmdTrackVisible = ":TRACK:VISIBLE:"
	CmdTrackRemove  = ":TRACK:REMOVE:"
	CmdFlagPickUp   = ":FLAG:PICKUP:"
	CmdFlagPlace    = ":FLAG:PLACE:"
	CmdFlagMove     = ":FLAG:MOVE:"
	CmdFlagClear    = ":FLAG:CLEAR:"
	CmdFlagClearAll = ":FLAG:CLEARALL:"
	CmdFlags        = ":FLAGS:"
	CmdResync       = ":RESYNC:"
	CmdPlay         = ":PLAY:"
	CmdPause        = ":PAUSE:"
	CmdTick         = ":TICK:"
	CmdSeek         = ":SEEK:"
	CmdSpeed        = ":SPEED:"
	CmdReset        = ":RESET:"
	CmdFrame        = ":FRAME:"
	CmdHover        = ":HOVER:"
	CmdLegend       = ":LEGEND:"
	CmdColorMode    = ":COLOR:MODE:"
	CmdColorUnits   = ":COLOR:UNITS:"
)

// Status strings reported for command outcomes.
const (
	StatusOK            = "ok"
	StatusNotFound      = "not_found"
	StatusInvalidState  = "invalid_state"
	StatusEmptyInterval = "empty_interval"
	StatusInvalidSpeed  = "invalid_speed"
	StatusOutOfRange    = "out_of_range"
	StatusMisaligned    = "misaligned"
	StatusError         = "error"
)

// Status converts a command error into its status string.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, core.ErrNotFound):
		return StatusNotFound
	case errors.Is(err, core.ErrInvalidState):
		return StatusInvalidState
	case errors.Is(err, core.ErrEmptyInterval):
		return StatusEmptyInterval
	case errors.Is(err, core.ErrInvalidSpeed):
		return StatusInvalidSpeed
	case errors.Is(err, core.ErrOutOfRange):
		return StatusOutOfRange
	case errors.Is(err, core.ErrMisaligned):
		return StatusMisaligned
	default:
		return StatusError
	}
}

func status(err error) (any, error) {
	return Status(err), err
}

// Service exposes session operations as dispatcher handlers.
type Service struct {
	session *engine.Session
}

// NewService creates a handler service for session.
func NewService(session *engine.Session) *Service {
	return &Service{session: session}
}

// Register adds every command handler to d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(CmdTrackVisible, s.TrackVisible, dispatcher.MinArgs(2), dispatcher.Logged())
	d.Register(CmdTrackRemove, s.TrackRemove, dispatcher.MinArgs(1), dispatcher.Logged())

	d.Register(CmdFlagPickUp, s.FlagPickUp, dispatcher.MinArgs(1), dispatcher.Logged())
	d.Register(CmdFlagPlace, s.FlagPlace, dispatcher.MinArgs(2), dispatcher.Logged())
	d.Register(CmdFlagMove, s.FlagMove, dispatcher.MinArgs(2), dispatcher.Logged())
	d.Register(CmdFlagClear, s.FlagClear, dispatcher.MinArgs(1), dispatcher.Logged())
	d.Register(CmdFlagClearAll, s.FlagClearAll, dispatcher.Logged())
	d.Register(CmdFlags, s.Flags)
	d.Register(CmdResync, s.Resync, dispatcher.Logged())

	d.Register(CmdPlay, s.Play, dispatcher.Logged())
	d.Register(CmdPause, s.Pause, dispatcher.Logged())
	d.Register(CmdTick, s.Tick, dispatcher.MinArgs(1))
	d.Register(CmdSeek, s.Seek, dispatcher.MinArgs(1), dispatcher.Logged())
	d.Register(CmdSpeed, s.Speed, dispatcher.MinArgs(1), dispatcher.Logged())
	d.Register(CmdReset, s.Reset, dispatcher.Logged())
	d.Register(CmdFrame, s.Frame)

	d.Register(CmdHover, s.Hover, dispatcher.MinArgs(1))
	d.Register(CmdLegend, s.Legend)
	d.Register(CmdColorMode, s.ColorMode, dispatcher.MinArgs(1), dispatcher.Logged())
	d.Register(CmdColorUnits, s.ColorUnits, dispatcher.MinArgs(1), dispatcher.Logged())
}

// TrackVisible handles ":TRACK:VISIBLE: <index> <true|false>".
func (s *Service) TrackVisible(e dispatcher.Event) (any, error) {
	idx, err := trackIndex(e.Args[0])
	if err != nil {
		return nil, err
	}
	visible, err := strconv.ParseBool(e.Args[1])
	if err != nil {
		return nil, fmt.Errorf("visibility %q: %w", e.Args[1], err)
	}
	return status(s.session.SetVisible(idx, visible))
}

// TrackRemove handles ":TRACK:REMOVE: <index>".
func (s *Service) TrackRemove(e dispatcher.Event) (any, error) {
	idx, err := trackIndex(e.Args[0])
	if err != nil {
		return nil, err
	}
	return status(s.session.RemoveTrack(idx))
}

// FlagPickUp handles ":FLAG:PICKUP: <start|finish>".
func (s *Service) FlagPickUp(e dispatcher.Event) (any, error) {
	kind, err := core.ParseFlagKind(e.Args[0])
	if err != nil {
		return nil, err
	}
	return status(s.session.PickUp(kind))
}

// FlagPlace handles ":FLAG:PLACE: <kind> <lon,lat[,alt]>". The flag must
// have been picked up.
func (s *Service) FlagPlace(e dispatcher.Event) (any, error) {
	kind, pos, err := flagArgs(e.Args)
	if err != nil {
		return nil, err
	}
	return s.session.PlaceAt(kind, pos)
}

// FlagMove handles ":FLAG:MOVE: <kind> <lon,lat[,alt]>".
func (s *Service) FlagMove(e dispatcher.Event) (any, error) {
	kind, pos, err := flagArgs(e.Args)
	if err != nil {
		return nil, err
	}
	return s.session.Move(kind, pos)
}

// FlagClear handles ":FLAG:CLEAR: <kind>".
func (s *Service) FlagClear(e dispatcher.Event) (any, error) {
	kind, err := core.ParseFlagKind(e.Args[0])
	if err != nil {
		return nil, err
	}
	return status(s.session.Clear(kind))
}

// FlagClearAll handles ":FLAG:CLEARALL:".
func (s *Service) FlagClearAll(dispatcher.Event) (any, error) {
	s.session.ClearAll()
	return StatusOK, nil
}

// Flags handles ":FLAGS:".
func (s *Service) Flags(dispatcher.Event) (any, error) {
	return s.session.Flags(), nil
}

// Resync handles ":RESYNC:".
func (s *Service) Resync(dispatcher.Event) (any, error) {
	return s.session.Resync()
}

// Play handles ":PLAY:".
func (s *Service) Play(dispatcher.Event) (any, error) {
	if err := s.session.Play(); err != nil {
		return nil, err
	}
	return s.session.Frame(), nil
}

// Pause handles ":PAUSE:".
func (s *Service) Pause(dispatcher.Event) (any, error) {
	s.session.Pause()
	return s.session.Frame(), nil
}

// Tick handles ":TICK: <seconds>".
func (s *Service) Tick(e dispatcher.Event) (any, error) {
	elapsed, err := strconv.ParseFloat(e.Args[0], 64)
	if err != nil {
		return nil, fmt.Errorf("tick %q: %w", e.Args[0], err)
	}
	return s.session.Tick(elapsed)
}

// Seek handles ":SEEK: <fraction>".
func (s *Service) Seek(e dispatcher.Event) (any, error) {
	p, err := strconv.ParseFloat(e.Args[0], 64)
	if err != nil {
		return nil, fmt.Errorf("seek %q: %w", e.Args[0], err)
	}
	return s.session.SeekNormalized(p), nil
}

// Speed handles ":SPEED: <multiplier>".
func (s *Service) Speed(e dispatcher.Event) (any, error) {
	x, err := strconv.ParseFloat(e.Args[0], 64)
	if err != nil {
		return nil, fmt.Errorf("speed %q: %w", e.Args[0], err)
	}
	return status(s.session.SetSpeed(x))
}

// Reset handles ":RESET:".
func (s *Service) Reset(dispatcher.Event) (any, error) {
	return s.session.ResetToSyncPoint(), nil
}

// Frame handles ":FRAME:".
func (s *Service) Frame(dispatcher.Event) (any, error) {
	return s.session.Frame(), nil
}

// Hover handles ":HOVER: <lon,lat[,alt]>".
func (s *Service) Hover(e dispatcher.Event) (any, error) {
	pos, err := geo.Position3DFromString(e.Args[0])
	if err != nil {
		return nil, err
	}
	return s.session.Hover(pos)
}

// Legend handles ":LEGEND:".
func (s *Service) Legend(dispatcher.Event) (any, error) {
	return s.session.Legend(), nil
}

// ColorMode handles ":COLOR:MODE: <mode>".
func (s *Service) ColorMode(e dispatcher.Event) (any, error) {
	mode, err := colormap.ParseMode(e.Args[0])
	if err != nil {
		return nil, err
	}
	m := s.session.Colors()
	m.Mode = mode
	s.session.SetColors(m)
	return s.session.Legend(), nil
}

// ColorUnits handles ":COLOR:UNITS: <mph|kph>".
func (s *Service) ColorUnits(e dispatcher.Event) (any, error) {
	units, err := colormap.ParseSpeedUnits(e.Args[0])
	if err != nil {
		return nil, err
	}
	m := s.session.Colors()
	m.Units = units
	s.session.SetColors(m)
	return s.session.Legend(), nil
}

func trackIndex(arg string) (int, error) {
	idx, err := util.ParseIntFromFloat(arg)
	if err != nil {
		return 0, fmt.Errorf("track index %q: %w", arg, err)
	}
	return idx, nil
}

func flagArgs(args []string) (core.FlagKind, core.Position3D, error) {
	kind, err := core.ParseFlagKind(args[0])
	if err != nil {
		return 0, core.Position3D{}, err
	}
	pos, err := geo.Position3DFromString(args[1])
	if err != nil {
		return 0, core.Position3D{}, err
	}
	return kind, pos, nil
}
