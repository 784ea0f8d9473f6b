package sim

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/signalmaster/internal/config"
	"github.com/vovakirdan/signalmaster/internal/core"
	"github.com/vovakirdan/signalmaster/internal/railmap"
)

// Frame is the input for one tick.
type Frame struct {
	Elapsed time.Duration // real time since the previous tick
	Click   *core.Vec2    // display-space click, nil if none
}

// Retirement records a train that reached its destination.
type Retirement struct {
	TrainID int
	Cars    int
	Dest    int
	Minutes float64 // game time of arrival
}

// StepResult reports what happened during one tick.
type StepResult struct {
	Released    []*Train
	Retired     []Retirement
	Switch      SwitchOutcome
	SwitchIndex int // index into Switches, -1 when no switch was hit
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes engine events to logger instead of the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine runs one map.
type Engine struct {
	cfg    config.SimConfig
	logger *log.Logger

	m         *railmap.Map
	graph     *Graph
	switches  []*Switch
	schedule  *Schedule
	trains    []*Train
	clock     *Clock
	score     int
	delivered int
	nextID    int
	warned    map[int]bool
}

// New creates an engine with m loaded.
func New(m *railmap.Map, cfg config.SimConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg,
		clock: NewClock(cfg.Clock.InitialSpeed, cfg.Clock.MinutesPerSecond),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	e.Load(m)
	return e
}

// Load replaces the whole network with m. Running trains are discarded and
// the clock and score restart. m must come from railmap.Parse, which is
// where malformed maps are rejected, so Load itself cannot fail.
func (e *Engine) Load(m *railmap.Map) {
	g := NewGraph(m.Tracks)
	switches := make([]*Switch, len(m.Switches))
	for i, def := range m.Switches {
		switches[i] = newSwitch(def)
		switches[i].Apply(g)
	}

	e.m = m
	e.graph = g
	e.switches = switches
	e.schedule = NewSchedule(m.Spawns)
	e.trains = nil
	e.clock.Reset()
	e.score = 0
	e.delivered = 0
	e.nextID = 0
	e.warned = make(map[int]bool)
	e.logger.Debug("map loaded", "map", m.Name, "tracks", len(m.Tracks), "switches", len(m.Switches), "spawns", len(m.Spawns))
}

// Step advances the simulation by one tick: clock, spawns, movement,
// arrivals, then at most one switch click.
func (e *Engine) Step(f Frame) StepResult {
	res := StepResult{SwitchIndex: -1}

	dt := e.clock.Advance(f.Elapsed)
	now := e.clock.Minutes()

	for _, sp := range e.schedule.ReleaseDue(now) {
		e.nextID++
		tr := newTrain(e.graph, sp, e.cfg.Train, e.nextID, now)
		e.trains = append(e.trains, tr)
		res.Released = append(res.Released, tr)
		e.logger.Debug("train released", "train", tr.ID, "at", e.clock, "track", e.m.Key(sp.Track), "dest", e.m.Key(sp.Dest), "cars", sp.Cars)
	}

	mv := movement{graph: e.graph, tolerance: e.cfg.Track.BoundsTolerance, curve: e.warnCurve}
	var arrived []*Train
	for _, tr := range e.trains {
		tr.update(mv, dt)
		if tr.Arrived() {
			arrived = append(arrived, tr)
		}
	}

	if len(arrived) > 0 {
		for _, tr := range arrived {
			tr.release(e.graph)
			e.score += len(tr.Cars)
			e.delivered++
			res.Retired = append(res.Retired, Retirement{TrainID: tr.ID, Cars: len(tr.Cars), Dest: tr.Dest, Minutes: now})
			e.logger.Debug("train arrived", "train", tr.ID, "at", e.clock, "dest", e.m.Key(tr.Dest), "score", e.score)
		}
		e.trains = removeTrains(e.trains, arrived)
	}

	if f.Click != nil {
		res.Switch, res.SwitchIndex = e.click(*f.Click)
	}
	return res
}

func removeTrains(trains, gone []*Train) []*Train {
	drop := make(map[*Train]bool, len(gone))
	for _, tr := range gone {
		drop[tr] = true
	}
	kept := trains[:0]
	for _, tr := range trains {
		if !drop[tr] {
			kept = append(kept, tr)
		}
	}
	for i := len(kept); i < len(trains); i++ {
		trains[i] = nil
	}
	return kept
}

// click toggles the first switch containing p.
func (e *Engine) click(p core.Vec2) (SwitchOutcome, int) {
	for i, sw := range e.switches {
		if !sw.Contains(p) {
			continue
		}
		if !sw.Toggle(e.graph) {
			e.logger.Debug("switch locked", "switch", i, "state", sw.State())
			return SwitchLocked, i
		}
		e.logger.Debug("switch toggled", "switch", i, "state", sw.State())
		return SwitchToggled, i
	}
	return SwitchNone, -1
}

func (e *Engine) warnCurve(t *Track) {
	if e.warned[t.ID] {
		return
	}
	e.warned[t.ID] = true
	e.logger.Warn("train entered a curved track; movement on curves is not modelled", "map", e.m.Name, "track", t.Key, "shape", t.Shape)
}

// SetSpeed changes the clock multiplier.
func (e *Engine) SetSpeed(v float64) error {
	return e.clock.SetSpeed(v)
}

// Speed returns the clock multiplier.
func (e *Engine) Speed() float64 { return e.clock.Speed() }

// Clock exposes game time.
func (e *Engine) Clock() *Clock { return e.clock }

// Minutes returns game time since 00:00.
func (e *Engine) Minutes() float64 { return e.clock.Minutes() }

// Score is the number of cars delivered.
func (e *Engine) Score() int { return e.score }

// Delivered is the number of trains that reached their destination.
func (e *Engine) Delivered() int { return e.delivered }

// Map returns the loaded map.
func (e *Engine) Map() *railmap.Map { return e.m }

// MapName returns the loaded map's name.
func (e *Engine) MapName() string { return e.m.Name }

// Graph exposes tracks and occupancy for drawing.
func (e *Engine) Graph() *Graph { return e.graph }

// Switches exposes switch states for drawing.
func (e *Engine) Switches() []*Switch { return e.switches }

// Stations returns the map's stations.
func (e *Engine) Stations() map[string]railmap.Station { return e.m.Stations }

// Trains returns the active trains. Callers must not modify them.
func (e *Engine) Trains() []*Train { return e.trains }

// Pending returns the number of timetable entries not yet released.
func (e *Engine) Pending() int { return e.schedule.Len() }

// NextSpawn returns the next timetable entry.
func (e *Engine) NextSpawn() (railmap.Spawn, bool) { return e.schedule.Peek() }

// Done reports whether the timetable is exhausted and the network empty.
func (e *Engine) Done() bool {
	return e.schedule.Len() == 0 && len(e.trains) == 0
}
