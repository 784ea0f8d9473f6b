package sim

import (
	"github.com/vovakirdan/signalmaster/internal/core"
	"github.com/vovakirdan/signalmaster/internal/railmap"
)

// SwitchOutcome describes what a click did.
type SwitchOutcome int

const (
	SwitchNone    SwitchOutcome = iota // click hit no switch
	SwitchToggled                      // state advanced and applied
	SwitchLocked                       // refused, a controlled track is occupied
)

func (o SwitchOutcome) String() string {
	switch o {
	case SwitchToggled:
		return "toggled"
	case SwitchLocked:
		return "locked"
	default:
		return "none"
	}
}

// Switch is a junction cycling through a fixed list of configurations.
type Switch struct {
	Bounds core.Box
	Tracks []int
	States []railmap.SwitchState
	state  int
}

func newSwitch(def railmap.Switch) *Switch {
	return &Switch{
		Bounds: def.Bounds,
		Tracks: def.Tracks,
		States: def.States,
		state:  def.Initial,
	}
}

// State returns the current state index.
func (s *Switch) State() int {
	return s.state
}

// NumStates returns how many states the switch cycles through.
func (s *Switch) NumStates() int {
	return len(s.States)
}

// Contains reports whether a display-space point hits the switch.
func (s *Switch) Contains(p core.Vec2) bool {
	return s.Bounds.Contains(p)
}

// Locked reports whether any controlled track is occupied.
func (s *Switch) Locked(g *Graph) bool {
	for _, id := range s.Tracks {
		if g.IsOccupied(id) {
			return true
		}
	}
	return false
}

// Toggle advances to the next state, wrapping, and applies it. A locked
// switch is left untouched and Toggle returns false.
func (s *Switch) Toggle(g *Graph) bool {
	if s.Locked(g) {
		return false
	}
	s.state = (s.state + 1) % len(s.States)
	s.Apply(g)
	return true
}

// Apply writes the current state's rules into the graph without checking the lock.
func (s *Switch) Apply(g *Graph) {
	for _, r := range s.States[s.state].Rules {
		t := g.Track(r.Track)
		t.Enabled = r.Enabled
		if r.SetRear {
			t.Rear = r.Rear
		}
		if r.SetFore {
			t.Fore = r.Fore
		}
	}
	g.MarkChanged()
}
