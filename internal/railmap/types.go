// Package railmap parses Signalmaster map files into an immutable description
// of a rail network: tracks, switches, stations and the spawn timetable.
//
// Parsing is a pure function of the input text. A map either parses completely
// or not at all; nothing partial is ever returned.
package railmap

import (
	"fmt"

	"github.com/vovakirdan/signalmaster/internal/core"
)

// Shape is the geometric primitive of a track segment.
type Shape int

const (
	Linear Shape = iota
	QuadraticBezier
	CubicBezier
	Arc
)

func (s Shape) String() string {
	switch s {
	case Linear:
		return "linear"
	case QuadraticBezier:
		return "quadratic"
	case CubicBezier:
		return "cubic"
	case Arc:
		return "arc"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// pointsValid reports whether n control points suit the shape.
func (s Shape) pointsValid(n int) bool {
	switch s {
	case Linear:
		return n == 2
	case QuadraticBezier:
		return n == 3
	case CubicBezier:
		return n == 4
	case Arc:
		return n >= 2
	}
	return false
}

// NoTrack is the reserved ID meaning "no connection". Its key in map files is "#".
const (
	NoTrack    = 0
	NoTrackKey = "#"
)

// SwitchSigil prefixes the key of a track that starts disabled and is
// expected to be enabled by a switch.
const SwitchSigil = '&'

// Track is one directed segment as declared in the map file.
type Track struct {
	ID          int
	Key         string
	Shape       Shape
	Points      []core.Vec2
	Rear        int // connection taken when leaving through Points[0]
	Fore        int // connection taken when leaving through Points[len-1]
	SwitchTrack bool
}

// Length is the straight-line distance between the endpoints.
func (t Track) Length() float64 {
	return t.Points[0].Dist(t.Points[len(t.Points)-1])
}

// Rule is one rewrite applied to a track when a switch enters a state.
type Rule struct {
	Track   int
	Enabled bool
	SetRear bool
	Rear    int
	SetFore bool
	Fore    int
}

// SwitchState is an ordered list of rules.
type SwitchState struct {
	Rules []Rule
}

// Switch is a clickable junction that cycles through states.
type Switch struct {
	Bounds    core.Box
	NumStates int
	Initial   int
	Tracks    []int // tracks whose occupancy locks the switch
	States    []SwitchState
	Line      int
}

// Station groups the tracks a train may stop on, per travel direction.
type Station struct {
	Name     string
	Forward  []int
	Rearward []int
}

// TrainType selects the service a spawned train runs.
type TrainType int

const (
	PassengerNormal TrainType = iota
	PassengerExpress
	PassengerMilitary
)

func (t TrainType) String() string {
	switch t {
	case PassengerNormal:
		return "normal"
	case PassengerExpress:
		return "express"
	case PassengerMilitary:
		return "military"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// StationStop is a scheduled halt. The simulation carries it but does not act on it.
type StationStop struct {
	Station string
	Forward bool
	Tracks  []int
	Dwell   float64
}

// Spawn is one timetable entry.
type Spawn struct {
	Time    int // game-minutes since midnight
	Forward bool
	Type    TrainType
	Cars    int
	Speed   float64
	Track   int
	Dest    int
	Stops   []StationStop
	Line    int
}

// Clock formats the spawn time as HH:MM.
func (s Spawn) Clock() string {
	return fmt.Sprintf("%02d:%02d", s.Time/60, s.Time%60)
}

// Map is a fully parsed and validated rail network.
type Map struct {
	Name     string
	Format   string
	Metadata map[string]string
	Source   string

	// IDs interns every track key; "#" is always 0.
	IDs map[string]int
	// Keys is the inverse of IDs, Keys[0] == "#".
	Keys []string

	Tracks   []Track // Tracks[i].ID == i+1
	Switches []Switch
	Stations map[string]Station
	Spawns   []Spawn // file order
}

// Track returns the track with the given ID, or false for NoTrack and unknown IDs.
func (m *Map) Track(id int) (Track, bool) {
	if id <= NoTrack || id > len(m.Tracks) {
		return Track{}, false
	}
	return m.Tracks[id-1], true
}

// Key returns the map-file key of a track ID.
func (m *Map) Key(id int) string {
	if id < 0 || id >= len(m.Keys) {
		return fmt.Sprintf("?%d", id)
	}
	return m.Keys[id]
}
