// Package sim runs a parsed rail network: track occupancy, switch states,
// the spawn timetable and per-tick train movement.
//
// An Engine is not safe for concurrent use; each session owns its own.
package sim

import (
	"fmt"

	"github.com/vovakirdan/signalmaster/internal/core"
	"github.com/vovakirdan/signalmaster/internal/railmap"
)

// Track is the live, mutable form of a map track. Switches rewrite its
// connections and enabled flag.
type Track struct {
	ID          int
	Key         string
	Shape       railmap.Shape
	Points      []core.Vec2
	Rear        int
	Fore        int
	SwitchTrack bool
	Enabled     bool
}

// Entry is the point a train enters through when travelling in the given direction.
func (t *Track) Entry(forward bool) core.Vec2 {
	if forward {
		return t.Points[0]
	}
	return t.Points[len(t.Points)-1]
}

// Exit is the point a train leaves through when travelling in the given direction.
func (t *Track) Exit(forward bool) core.Vec2 {
	if forward {
		return t.Points[len(t.Points)-1]
	}
	return t.Points[0]
}

// Next is the connection taken when leaving in the given direction.
func (t *Track) Next(forward bool) int {
	if forward {
		return t.Fore
	}
	return t.Rear
}

// Graph owns every track and its occupancy counter.
type Graph struct {
	tracks    []Track // tracks[i].ID == i+1
	occupancy []int
	revision  uint64
}

// NewGraph copies the map's tracks into a fresh graph. Switch tracks start disabled.
func NewGraph(defs []railmap.Track) *Graph {
	g := &Graph{
		tracks:    make([]Track, len(defs)),
		occupancy: make([]int, len(defs)),
	}
	for i, d := range defs {
		g.tracks[i] = Track{
			ID:          d.ID,
			Key:         d.Key,
			Shape:       d.Shape,
			Points:      append([]core.Vec2(nil), d.Points...),
			Rear:        d.Rear,
			Fore:        d.Fore,
			SwitchTrack: d.SwitchTrack,
			Enabled:     !d.SwitchTrack,
		}
	}
	return g
}

// Len returns the number of tracks.
func (g *Graph) Len() int {
	return len(g.tracks)
}

// Track returns the track with the given ID, or nil for 0 and unknown IDs.
func (g *Graph) Track(id int) *Track {
	if id <= railmap.NoTrack || id > len(g.tracks) {
		return nil
	}
	return &g.tracks[id-1]
}

// Tracks exposes every track for drawing. Callers must not modify them.
func (g *Graph) Tracks() []Track {
	return g.tracks
}

func (g *Graph) index(id int) int {
	if id <= railmap.NoTrack || id > len(g.tracks) {
		panic(fmt.Sprintf("sim: occupancy of unknown track %d", id))
	}
	return id - 1
}

// Occupy adds n units of occupancy to a track.
func (g *Graph) Occupy(id, n int) {
	if n < 0 {
		panic(fmt.Sprintf("sim: negative occupancy %d on track %d", n, id))
	}
	i := g.index(id)
	before := g.occupancy[i]
	g.occupancy[i] += n
	if before == 0 && g.occupancy[i] > 0 {
		g.revision++
	}
}

// Unoccupy removes n units of occupancy. Releasing more than is held is a
// bookkeeping bug and panics.
func (g *Graph) Unoccupy(id, n int) {
	if n < 0 {
		panic(fmt.Sprintf("sim: negative release %d on track %d", n, id))
	}
	i := g.index(id)
	if g.occupancy[i] < n {
		panic(fmt.Sprintf("sim: track %s released %d units but holds %d", g.tracks[i].Key, n, g.occupancy[i]))
	}
	before := g.occupancy[i]
	g.occupancy[i] -= n
	if before > 0 && g.occupancy[i] == 0 {
		g.revision++
	}
}

// Occupancy returns the current counter of a track.
func (g *Graph) Occupancy(id int) int {
	return g.occupancy[g.index(id)]
}

// IsOccupied reports whether any bogey or spawning train holds the track.
func (g *Graph) IsOccupied(id int) bool {
	return g.Occupancy(id) > 0
}

// Revision increases whenever the drawn state of the network changes: a track
// becomes occupied or free, or a switch rewires tracks.
func (g *Graph) Revision() uint64 {
	return g.revision
}

// MarkChanged bumps the revision after a non-occupancy change.
func (g *Graph) MarkChanged() {
	g.revision++
}
