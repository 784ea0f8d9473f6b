package sim

import "github.com/vovakirdan/signalmaster/internal/railmap"

// Schedule releases timetable entries in file order. Entries are never
// re-sorted, so an early entry listed after a later one waits behind it.
type Schedule struct {
	pending []railmap.Spawn
}

// NewSchedule copies the timetable.
func NewSchedule(spawns []railmap.Spawn) *Schedule {
	return &Schedule{pending: append([]railmap.Spawn(nil), spawns...)}
}

// Len returns the number of entries not yet released.
func (s *Schedule) Len() int {
	return len(s.pending)
}

// Peek returns the head entry.
func (s *Schedule) Peek() (railmap.Spawn, bool) {
	if len(s.pending) == 0 {
		return railmap.Spawn{}, false
	}
	return s.pending[0], true
}

// Due reports whether the head entry's time has been reached.
func (s *Schedule) Due(minutes float64) bool {
	head, ok := s.Peek()
	return ok && float64(head.Time) <= minutes
}

// ReleaseDue pops every head entry whose time has been reached.
func (s *Schedule) ReleaseDue(minutes float64) []railmap.Spawn {
	var out []railmap.Spawn
	for s.Due(minutes) {
		out = append(out, s.pending[0])
		s.pending = s.pending[1:]
	}
	return out
}
