// Package flag implements the start/finish flag placement state machine.
package flag

import (
	"fmt"

	"github.com/OCAP2/tracksync/internal/geo"
	"github.com/OCAP2/tracksync/internal/nearest"
	"github.com/OCAP2/tracksync/internal/timesync"
	"github.com/OCAP2/tracksync/internal/track"
	"github.com/OCAP2/tracksync/pkg/core"
)

// Syncer is triggered once both flags are deployed.
type Syncer interface {
	Sync(start, finish core.FlagRef) (timesync.Result, error)
	Reset()
}

// Controller holds one slot per flag kind. Each slot is Idle, PickedUp or
// Deployed; a slot never holds more than one deployment.
type Controller struct {
	store  *track.Store
	syncer Syncer
	slots  [len(core.FlagKinds)]core.Flag
}

// New creates a controller with both flags idle.
func New(store *track.Store, syncer Syncer) *Controller {
	c := &Controller{store: store, syncer: syncer}
	for _, k := range core.FlagKinds {
		c.slots[k] = core.Flag{Kind: k, Phase: core.FlagIdle}
	}
	return c
}

// PickUp arms a flag for placement. Only an idle flag can be picked up; a
// deployed flag has to be cleared first.
func (c *Controller) PickUp(kind core.FlagKind) error {
	s, err := c.slot(kind)
	if err != nil {
		return err
	}
	switch s.Phase {
	case core.FlagIdle:
		s.Phase = core.FlagPickedUp
		return nil
	case core.FlagPickedUp, core.FlagDeployed:
		return fmt.Errorf("pick up %s flag while %s: %w", kind, s.Phase, core.ErrInvalidState)
	default:
		return fmt.Errorf("pick up %s flag: unknown phase %s: %w", kind, s.Phase, core.ErrInvalidState)
	}
}

// PlaceAt drops a picked-up flag on the visible track point nearest to query.
// With no candidate point the flag goes back to idle and core.ErrNotFound is
// returned. Once both flags are deployed the syncer runs before PlaceAt
// returns; a sync failure is returned with the flag left deployed.
func (c *Controller) PlaceAt(kind core.FlagKind, query core.Position3D) (core.Flag, error) {
	s, err := c.slot(kind)
	if err != nil {
		return core.Flag{}, err
	}
	switch s.Phase {
	case core.FlagPickedUp:
	case core.FlagIdle, core.FlagDeployed:
		return *s, fmt.Errorf("place %s flag while %s: %w", kind, s.Phase, core.ErrInvalidState)
	default:
		return *s, fmt.Errorf("place %s flag: unknown phase %s: %w", kind, s.Phase, core.ErrInvalidState)
	}

	hit, ok := nearest.AcrossTracks(geo.Cartesian(query), c.store.All())
	if !ok {
		*s = core.Flag{Kind: kind, Phase: core.FlagIdle}
		return *s, fmt.Errorf("place %s flag: %w", kind, core.ErrNotFound)
	}

	t, _ := c.store.Get(hit.TrackIndex)
	placed := core.Flag{
		Kind:     kind,
		Phase:    core.FlagDeployed,
		Ref:      core.FlagRef{TrackIndex: hit.TrackIndex, PointIndex: hit.PointIndex},
		Position: t.Coordinates[hit.PointIndex],
	}
	*s = placed

	if c.BothDeployed() {
		if _, err := c.Resync(); err != nil {
			return placed, fmt.Errorf("place %s flag: %w", kind, err)
		}
	}
	return placed, nil
}

// Move relocates a flag: clear, pick up and place again.
func (c *Controller) Move(kind core.FlagKind, query core.Position3D) (core.Flag, error) {
	if err := c.Clear(kind); err != nil {
		return core.Flag{}, err
	}
	if err := c.PickUp(kind); err != nil {
		return core.Flag{}, err
	}
	return c.PlaceAt(kind, query)
}

// Clear returns one flag to idle. Synchronized data is left alone.
func (c *Controller) Clear(kind core.FlagKind) error {
	s, err := c.slot(kind)
	if err != nil {
		return err
	}
	*s = core.Flag{Kind: kind, Phase: core.FlagIdle}
	return nil
}

// ClearAll returns both flags to idle and drops all synchronization state.
func (c *Controller) ClearAll() {
	for _, k := range core.FlagKinds {
		c.slots[k] = core.Flag{Kind: k, Phase: core.FlagIdle}
	}
	c.syncer.Reset()
}

// Resync reruns synchronization from the deployed flags.
func (c *Controller) Resync() (timesync.Result, error) {
	if !c.BothDeployed() {
		return timesync.Result{Reference: -1}, fmt.Errorf("resync without both flags deployed: %w", core.ErrInvalidState)
	}
	return c.syncer.Sync(c.slots[core.FlagStart].Ref, c.slots[core.FlagFinish].Ref)
}

// TrackRemoved updates flag references after the track at index was removed
// from the store. Flags on that track are retracted and returned; flags on
// later tracks follow their track down by one.
func (c *Controller) TrackRemoved(index int) []core.FlagKind {
	var retracted []core.FlagKind
	for _, k := range core.FlagKinds {
		s := &c.slots[k]
		if s.Phase != core.FlagDeployed {
			continue
		}
		switch {
		case s.Ref.TrackIndex == index:
			*s = core.Flag{Kind: k, Phase: core.FlagIdle}
			retracted = append(retracted, k)
		case s.Ref.TrackIndex > index:
			s.Ref.TrackIndex--
		}
	}
	return retracted
}

// Flag returns the state of one flag.
func (c *Controller) Flag(kind core.FlagKind) core.Flag {
	s, err := c.slot(kind)
	if err != nil {
		return core.Flag{Kind: kind}
	}
	return *s
}

// Flags returns both flags in slot order.
func (c *Controller) Flags() []core.Flag {
	return append([]core.Flag(nil), c.slots[:]...)
}

// BothDeployed reports whether start and finish are both deployed.
func (c *Controller) BothDeployed() bool {
	return c.slots[core.FlagStart].Deployed() && c.slots[core.FlagFinish].Deployed()
}

func (c *Controller) slot(kind core.FlagKind) (*core.Flag, error) {
	if kind < 0 || int(kind) >= len(c.slots) {
		return nil, fmt.Errorf("unknown flag kind %d: %w", int(kind), core.ErrInvalidState)
	}
	return &c.slots[kind], nil
}
