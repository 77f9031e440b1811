package engine

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/tracksync/internal/engine"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type instruments struct {
	syncRuns     metric.Int64Counter
	syncedTracks metric.Int64Histogram
	flagsPlaced  metric.Int64Counter
	tracksLoaded metric.Int64UpDownCounter
}

func newInstruments(m metric.Meter) (*instruments, error) {
	var (
		in  instruments
		err error
	)

	in.syncRuns, err = m.Int64Counter(
		"tracksync.sync.runs",
		metric.WithDescription("Synchronization runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync counter: %w", err)
	}

	in.syncedTracks, err = m.Int64Histogram(
		"tracksync.sync.tracks",
		metric.WithDescription("Tracks aligned per synchronization run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating synced tracks histogram: %w", err)
	}

	in.flagsPlaced, err = m.Int64Counter(
		"tracksync.flags.placed",
		metric.WithDescription("Flags deployed on a track point"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flag counter: %w", err)
	}

	in.tracksLoaded, err = m.Int64UpDownCounter(
		"tracksync.tracks.loaded",
		metric.WithDescription("Tracks currently held by the session"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating track counter: %w", err)
	}

	return &in, nil
}
