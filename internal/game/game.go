// Package game hosts a Signalmaster map on the terminal platform. It turns
// platform input frames into engine frames and draws the network into a
// character screen.
package game

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/signalmaster/internal/config"
	"github.com/vovakirdan/signalmaster/internal/core"
	"github.com/vovakirdan/signalmaster/internal/railmap"
	"github.com/vovakirdan/signalmaster/internal/sim"
)

// hudRows is the number of screen rows reserved above the network.
const hudRows = 1

// Game runs one map. It satisfies the platform's Game interface.
type Game struct {
	m      *railmap.Map
	cfg    config.SimConfig
	logger *log.Logger

	engine *sim.Engine
	speed  *config.SpeedSelector
	rt     core.RuntimeConfig
	paused bool

	// lastEvent is shown in the HUD until the next one replaces it.
	lastEvent string

	// Static network layer, rebuilt when the graph revision or the screen size changes.
	layer    *core.Screen
	layerRev uint64
}

// New creates a game for m, ready to run on a default-sized screen.
func New(m *railmap.Map, cfg config.SimConfig, logger *log.Logger) *Game {
	if logger == nil {
		logger = log.Default()
	}
	g := &Game{m: m, cfg: cfg, logger: logger}
	g.Reset(core.DefaultConfig())
	return g
}

// ID returns the map name, which is also the score key.
func (g *Game) ID() string {
	return g.m.Name
}

// Title returns a display name for menus.
func (g *Game) Title() string {
	return "Signalmaster: " + g.m.Name
}

// Reset loads the map from scratch: clock at 00:00, empty network, initial
// switch states and the configured starting speed.
func (g *Game) Reset(rt core.RuntimeConfig) {
	if rt.TickRate <= 0 {
		rt.TickRate = core.DefaultConfig().TickRate
	}
	g.rt = rt
	if g.engine == nil {
		g.engine = sim.New(g.m, g.cfg, sim.WithLogger(g.logger))
	} else {
		g.engine.Load(g.m)
	}
	g.speed = config.NewSpeedSelector(g.cfg.Clock)
	//nolint:errcheck // speeds are validated with the config
	g.engine.SetSpeed(g.speed.Current())
	g.paused = false
	g.lastEvent = ""
	g.layer = nil
}

// Resize records a new screen size without restarting the run.
func (g *Game) Resize(w, h int) {
	g.rt.ScreenW, g.rt.ScreenH = w, h
}

// Engine exposes the running simulation.
func (g *Game) Engine() *sim.Engine {
	return g.engine
}

// Step advances the simulation by one platform tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if in.Has(core.ActionRestart) {
		g.Reset(g.rt)
		return core.StepResult{State: g.State()}
	}
	if in.Has(core.ActionPause) && !g.engine.Done() {
		g.paused = !g.paused
	}
	if in.Has(core.ActionFaster) {
		g.setSpeed(g.speed.Faster())
	}
	if in.Has(core.ActionSlower) {
		g.setSpeed(g.speed.Slower())
	}

	if g.engine.Done() {
		return core.StepResult{State: g.State()}
	}

	frame := sim.Frame{}
	if !g.paused {
		frame.Elapsed = time.Second / time.Duration(g.rt.TickRate)
	}
	// The engine applies one click per tick; the oldest press on the map wins.
	for _, c := range in.Clicks {
		if p, ok := g.cellToDisplay(c); ok {
			frame.Click = &p
			break
		}
	}

	res := g.engine.Step(frame)

	var events []string
	for _, r := range res.Retired {
		events = append(events, fmt.Sprintf("%s train %d arrived at %s, +%d", g.engine.Clock(), r.TrainID, g.m.Key(r.Dest), r.Cars))
	}
	if res.Switch == sim.SwitchLocked {
		events = append(events, fmt.Sprintf("switch %d is locked by a train", res.SwitchIndex+1))
	}
	if len(events) > 0 {
		g.lastEvent = events[len(events)-1]
	}
	if g.engine.Done() {
		g.logger.Info("timetable complete", "map", g.m.Name, "score", g.engine.Score(), "trains", g.engine.Delivered(), "at", g.engine.Clock())
	}

	return core.StepResult{State: g.State(), Events: events}
}

func (g *Game) setSpeed(v float64) {
	if err := g.engine.SetSpeed(v); err != nil {
		g.logger.Warn("speed change rejected", "speed", v, "err", err)
	}
}

// State reports score and completion to the platform.
func (g *Game) State() core.GameState {
	return core.GameState{
		Score:    g.engine.Score(),
		GameOver: g.engine.Done(),
		Paused:   g.paused,
	}
}

// Summary describes the current run for storage.
func (g *Game) Summary() (score, trains int, minutes float64, completed bool) {
	return g.engine.Score(), g.engine.Delivered(), g.engine.Minutes(), g.engine.Done()
}

// cellToDisplay maps a screen cell to the centre of the display area it covers.
// Clicks on the HUD or outside the screen are not on the map.
func (g *Game) cellToDisplay(c core.Cell) (core.Vec2, bool) {
	w, h := g.rt.ScreenW, g.rt.ScreenH-hudRows
	if w <= 0 || h <= 0 || c.X < 0 || c.X >= w || c.Y < hudRows || c.Y >= h+hudRows {
		return core.Vec2{}, false
	}
	return core.V(
		(float64(c.X)+0.5)*g.cfg.Display.Width/float64(w),
		(float64(c.Y-hudRows)+0.5)*g.cfg.Display.Height/float64(h),
	), true
}

// displayToCell maps a display point to the screen cell drawing it.
func (g *Game) displayToCell(p core.Vec2, w, h int) (int, int) {
	rows := h - hudRows
	x := int(p.X * float64(w) / g.cfg.Display.Width)
	y := int(p.Y*float64(rows)/g.cfg.Display.Height) + hudRows
	return x, y
}
