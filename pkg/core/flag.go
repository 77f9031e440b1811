// pkg/core/flag.go
package core

import "fmt"

// FlagKind identifies one of the two reference flags.
type FlagKind int

const (
	FlagStart FlagKind = iota
	FlagFinish
)

// FlagKinds lists every flag kind in slot order.
var FlagKinds = [...]FlagKind{FlagStart, FlagFinish}

func (k FlagKind) String() string {
	switch k {
	case FlagStart:
		return "start"
	case FlagFinish:
		return "finish"
	default:
		return fmt.Sprintf("FlagKind(%d)", int(k))
	}
}

// ParseFlagKind accepts "start" or "finish" (case-sensitive).
func ParseFlagKind(s string) (FlagKind, error) {
	switch s {
	case "start":
		return FlagStart, nil
	case "finish":
		return FlagFinish, nil
	default:
		return 0, fmt.Errorf("unknown flag kind %q", s)
	}
}

// FlagPhase is the lifecycle phase of a flag slot.
type FlagPhase int

const (
	FlagIdle FlagPhase = iota
	FlagPickedUp
	FlagDeployed
)

func (p FlagPhase) String() string {
	switch p {
	case FlagIdle:
		return "idle"
	case FlagPickedUp:
		return "picked_up"
	case FlagDeployed:
		return "deployed"
	default:
		return fmt.Sprintf("FlagPhase(%d)", int(p))
	}
}

// FlagRef points at a track point in the track store.
type FlagRef struct {
	TrackIndex int
	PointIndex int
}

// Flag is the observable state of one flag slot. Ref is only meaningful
// when Phase is FlagDeployed.
type Flag struct {
	Kind     FlagKind
	Phase    FlagPhase
	Ref      FlagRef
	Position Position3D
}

// Deployed reports whether the flag is bound to a track point.
func (f Flag) Deployed() bool {
	return f.Phase == FlagDeployed
}
