package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/OCAP2/tracksync/internal/config"
	"github.com/OCAP2/tracksync/internal/control"
	"github.com/OCAP2/tracksync/internal/dispatcher"
	"github.com/OCAP2/tracksync/internal/engine"
	"github.com/OCAP2/tracksync/internal/playback"
	"github.com/OCAP2/tracksync/pkg/core"
)

// runScript dispatches every command of a script file. Scripted :TICK:
// commands drive playback.
func runScript(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	n, err := control.Load(f, events)
	if err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	Logger.Info("Running script", "path", path, "commands", n)

	failed := control.Drain(eventDispatcher, events, report)
	Logger.Info("Script finished", "commands", n, "failed", failed)
	return nil
}

// runDefault places the start flag on the first point of the first track and
// the finish flag on its last point, then plays the synchronized interval
// once.
func runDefault(ctx context.Context) error {
	first, ok := session.Track(0)
	if !ok || first.Len() == 0 {
		return fmt.Errorf("no track to place flags on: %w", core.ErrNotFound)
	}
	anchors := [...]core.Position3D{first.Coordinates[0], first.Coordinates[first.Len()-1]}
	for i, kind := range core.FlagKinds {
		if err := session.PickUp(kind); err != nil {
			return err
		}
		if _, err := session.PlaceAt(kind, anchors[i]); err != nil {
			return fmt.Errorf("place %s flag: %w", kind, err)
		}
	}
	if err := session.Play(); err != nil {
		return err
	}

	return drive(ctx, func() bool { return session.Frame().Playing })
}

// runInteractive reads commands from r on its own goroutine and applies them
// between ticks until r is exhausted and playback has stopped.
func runInteractive(ctx context.Context, r io.Reader) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			e, ok, err := control.ParseLine(sc.Text(), time.Now())
			if err != nil {
				Logger.Warn("Ignoring command line", "error", err)
				continue
			}
			if ok {
				events.Push(e)
			}
		}
		if err := sc.Err(); err != nil {
			Logger.Error("Reading commands failed", "error", err)
		}
	}()

	return drive(ctx, func() bool {
		select {
		case <-done:
			return !events.Empty() || session.Frame().Playing
		default:
			return true
		}
	})
}

// drive runs the frame driver: queued commands are dispatched first, then a
// playing session advances by the elapsed wall time.
func drive(ctx context.Context, keepRunning func() bool) error {
	d := playback.Driver{Interval: config.GetPlaybackConfig().TickInterval}
	err := d.Run(ctx, func(elapsed float64) bool {
		control.Drain(eventDispatcher, events, report)
		if session.Frame().Playing {
			f, err := session.Tick(elapsed)
			if err == nil {
				logFrame(f)
			}
		}
		return keepRunning()
	})
	if errors.Is(err, context.Canceled) {
		Logger.Info("Interrupted")
		return nil
	}
	return err
}

var lastLoggedSecond = -1

// logFrame logs at most one frame per elapsed second of playback.
func logFrame(f engine.Frame) {
	start, _ := session.Bounds()
	sec := int(f.CurrentTime - start)
	if sec == lastLoggedSecond && !f.Finished {
		return
	}
	lastLoggedSecond = sec
	Logger.Debug("Frame", "elapsed", f.Elapsed, "position", f.Position, "markers", len(f.Markers))
}

func report(e dispatcher.Event, result any, err error) {
	if err != nil {
		Logger.Warn("Command failed", "command", e.Command, "args", e.Args, "status", control.Status(err), "error", err)
		return
	}
	Logger.Debug("Command done", "command", e.Command, "result", result)
}
