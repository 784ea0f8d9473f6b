package sim

import (
	"fmt"
	"math"

	"github.com/vovakirdan/signalmaster/internal/config"
	"github.com/vovakirdan/signalmaster/internal/core"
	"github.com/vovakirdan/signalmaster/internal/railmap"
)

// Bogey is one wheel set. It holds one occupancy unit on its current track.
type Bogey struct {
	Pos      core.Vec2
	Vel      core.Vec2
	Rotation float64
	Track    *Track
	Shape    railmap.Shape
	// Bounds spans the endpoints of a Linear track and detects leaving it.
	Bounds core.Box
}

// Car is a pair of bogeys.
type Car struct {
	Fore Bogey
	Rear Bogey
}

// Train is a released timetable entry moving through the network.
type Train struct {
	ID        int
	Type      railmap.TrainType
	Speed     float64
	Forward   bool
	Dest      int
	Stops     []railmap.StationStop
	Cars      []Car
	SpawnedAt float64
}

// progressEpsilon is the least distance a track crossing must consume to
// count as progress.
const progressEpsilon = 1e-9

// movement carries the per-tick parameters shared by every bogey.
type movement struct {
	graph     *Graph
	tolerance float64
	// curve is told when a bogey settles on a non-Linear track.
	curve func(*Track)
}

// enter places the bogey on t: it adopts the shape, faces along the
// direction of travel, and moves carry units past its current position.
func (b *Bogey) enter(t *Track, speed float64, forward bool, carry float64) {
	from, to := t.Entry(forward), t.Exit(forward)
	b.Track = t
	b.Shape = t.Shape
	b.Rotation = to.Sub(from).Angle()
	b.Vel = core.V(speed, 0).Rotate(b.Rotation)
	b.Pos = b.Pos.Add(core.V(carry, 0).Rotate(b.Rotation))
	b.Bounds = core.BoxFrom(from, to)
}

// advance integrates one step and re-anchors across as many Linear track
// boundaries as the step covers. Each crossing must shorten the distance
// still to travel; a full lap of the network without progress means the
// bogey is cycling through zero-length track and cannot settle.
func (b *Bogey) advance(mv movement, dt, speed float64, forward bool) {
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))

	left := math.Inf(1)
	for stalled := 0; b.Shape == railmap.Linear && !b.Bounds.Within(b.Pos, mv.tolerance); {
		exit := b.Track.Exit(forward)
		over := b.Pos.Dist(exit)
		if over < left-progressEpsilon {
			left, stalled = over, 0
		} else {
			stalled++
			if stalled > mv.graph.Len() {
				panic(fmt.Sprintf("sim: bogey cannot settle after leaving track %s at %v", b.Track.Key, b.Pos))
			}
		}
		next := mv.graph.Track(b.Track.Next(forward))
		if next == nil {
			dir := "fore"
			if !forward {
				dir = "rear"
			}
			panic(fmt.Sprintf("sim: train ran off track %s: no %s connection", b.Track.Key, dir))
		}
		mv.graph.Unoccupy(b.Track.ID, 1)
		mv.graph.Occupy(next.ID, 1)
		b.Pos = exit
		b.enter(next, speed, forward, over)
		if next.Shape != railmap.Linear && mv.curve != nil {
			mv.curve(next)
		}
	}
}

// newTrain lays the cars out behind the leading endpoint of the spawn track
// and takes two occupancy units per car on it.
func newTrain(g *Graph, sp railmap.Spawn, tc config.TrainConfig, id int, now float64) *Train {
	t := g.Track(sp.Track)
	tr := &Train{
		ID:        id,
		Type:      sp.Type,
		Speed:     sp.Speed,
		Forward:   sp.Forward,
		Dest:      sp.Dest,
		Stops:     sp.Stops,
		Cars:      make([]Car, sp.Cars),
		SpawnedAt: now,
	}
	head := t.Exit(sp.Forward)
	for k := range tr.Cars {
		back := float64(k) * tc.CarSpacing
		c := &tr.Cars[k]
		c.Fore.Pos = head
		c.Fore.enter(t, sp.Speed, sp.Forward, -back-tc.ForeBogeyOffset)
		c.Rear.Pos = head
		c.Rear.enter(t, sp.Speed, sp.Forward, -back-tc.RearBogeyOffset)
	}
	g.Occupy(t.ID, 2*sp.Cars)
	return tr
}

func (tr *Train) update(mv movement, dt float64) {
	for k := range tr.Cars {
		tr.Cars[k].Fore.advance(mv, dt, tr.Speed, tr.Forward)
		tr.Cars[k].Rear.advance(mv, dt, tr.Speed, tr.Forward)
	}
}

// Tail is the rear bogey of the last car.
func (tr *Train) Tail() *Bogey {
	return &tr.Cars[len(tr.Cars)-1].Rear
}

// Head is the fore bogey of the first car.
func (tr *Train) Head() *Bogey {
	return &tr.Cars[0].Fore
}

// Arrived reports whether the whole train has reached its destination.
func (tr *Train) Arrived() bool {
	return tr.Tail().Track.ID == tr.Dest
}

// release gives back every bogey's occupancy unit.
func (tr *Train) release(g *Graph) {
	for k := range tr.Cars {
		g.Unoccupy(tr.Cars[k].Fore.Track.ID, 1)
		g.Unoccupy(tr.Cars[k].Rear.Track.ID, 1)
	}
}
