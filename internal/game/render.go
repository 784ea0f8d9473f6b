package game

import (
	"fmt"
	"math"

	"github.com/vovakirdan/signalmaster/internal/core"
	"github.com/vovakirdan/signalmaster/internal/railmap"
	"github.com/vovakirdan/signalmaster/internal/sim"
)

// Track drawing passes, lowest first, so live track is never hidden by a
// disabled branch drawn over the same cells.
const (
	passDisabled = iota
	passFree
	passOccupied
)

var trainColors = map[railmap.TrainType]core.Color{
	railmap.PassengerNormal:   core.ColorGreen,
	railmap.PassengerExpress:  core.ColorMagenta,
	railmap.PassengerMilitary: core.ColorOrange,
}

// Render draws the network, trains and HUD.
func (g *Game) Render(dst *core.Screen) {
	w, h := dst.Width(), dst.Height()
	if w <= 0 || h <= hudRows {
		return
	}

	rev := g.engine.Graph().Revision()
	if g.layer == nil || g.layer.Width() != w || g.layer.Height() != h || g.layerRev != rev {
		g.buildLayer(w, h)
		g.layerRev = rev
	}
	dst.CopyFrom(g.layer)

	g.drawTrains(dst)
	g.drawHUD(dst)

	switch {
	case g.engine.Done():
		msg := fmt.Sprintf(" Timetable complete: %d cars in %d trains. R restart, Esc maps ", g.engine.Score(), g.engine.Delivered())
		dst.DrawTextColor((w-len([]rune(msg)))/2, h/2, msg, core.ColorYellow)
	case g.paused:
		msg := " PAUSED "
		dst.DrawTextColor((w-len(msg))/2, h/2, msg, core.ColorYellow)
	}
}

// buildLayer draws everything that changes only when the graph revision
// does: track colours and switch markers.
func (g *Game) buildLayer(w, h int) {
	if g.layer == nil {
		g.layer = core.NewScreen(w, h)
	} else if g.layer.Width() != w || g.layer.Height() != h {
		g.layer.Resize(w, h)
	}
	g.layer.Clear()

	graph := g.engine.Graph()
	step := g.cfg.Display.Width / float64(w)
	for pass := passDisabled; pass <= passOccupied; pass++ {
		for _, t := range graph.Tracks() {
			if trackPass(graph, t) != pass {
				continue
			}
			def, _ := g.m.Track(t.ID)
			pts := def.Polyline(step)
			r, c := trackStyle(pass, t.SwitchTrack)
			for i := 1; i < len(pts); i++ {
				g.drawSegment(g.layer, pts[i-1], pts[i], r, c)
			}
		}
	}

	g.drawStations(g.layer)

	for _, sw := range g.engine.Switches() {
		x, y := g.displayToCell(sw.Bounds.Center(), w, h)
		c := core.ColorYellow
		if sw.Locked(graph) {
			c = core.ColorRed
		}
		g.layer.SetWithColor(x, y, stateRune(sw.State()), c)
	}
}

func trackPass(graph *sim.Graph, t sim.Track) int {
	switch {
	case graph.IsOccupied(t.ID):
		return passOccupied
	case !t.Enabled:
		return passDisabled
	default:
		return passFree
	}
}

func trackStyle(pass int, switchTrack bool) (rune, core.Color) {
	switch pass {
	case passOccupied:
		return 0, core.ColorRed
	case passDisabled:
		return '·', core.ColorDim
	}
	if switchTrack {
		return 0, core.ColorCyan
	}
	return 0, core.ColorWhite
}

// stateRune labels a switch with its 1-based state number.
func stateRune(state int) rune {
	if state < 9 {
		return rune('1' + state)
	}
	return '+'
}

// drawSegment rasterises a straight run between two display points. A zero
// rune picks a line glyph from the slope.
func (g *Game) drawSegment(dst *core.Screen, a, b core.Vec2, r rune, c core.Color) {
	w, h := dst.Width(), dst.Height()
	rows := float64(h - hudRows)
	ax := a.X * float64(w) / g.cfg.Display.Width
	ay := a.Y*rows/g.cfg.Display.Height + hudRows
	bx := b.X * float64(w) / g.cfg.Display.Width
	by := b.Y*rows/g.cfg.Display.Height + hudRows

	dx, dy := bx-ax, by-ay
	if r == 0 {
		r = lineRune(dx, dy)
	}
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		dst.SetWithColor(int(ax), int(ay), r, c)
		return
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		dst.SetWithColor(int(math.Floor(ax+dx*f)), int(math.Floor(ay+dy*f)), r, c)
	}
}

// lineRune picks a glyph for a run of cells. Screen y grows downwards.
func lineRune(dx, dy float64) rune {
	adx, ady := math.Abs(dx), math.Abs(dy)
	switch {
	case adx >= 2*ady:
		return '─'
	case ady >= 2*adx:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

// drawStations labels each station above the first of its tracks.
func (g *Game) drawStations(dst *core.Screen) {
	for name, st := range g.engine.Stations() {
		ids := st.Forward
		if len(ids) == 0 {
			ids = st.Rearward
		}
		if len(ids) == 0 {
			continue
		}
		t, ok := g.m.Track(ids[0])
		if !ok {
			continue
		}
		mid := t.PointAt(0.5)
		x, y := g.displayToCell(mid, dst.Width(), dst.Height())
		label := "[" + name + "]"
		y = max(y-1, hudRows)
		dst.DrawTextColor(x-len([]rune(label))/2, y, label, core.ColorBlue)
	}
}

func (g *Game) drawTrains(dst *core.Screen) {
	w, h := dst.Width(), dst.Height()
	for _, tr := range g.engine.Trains() {
		c, ok := trainColors[tr.Type]
		if !ok {
			c = core.ColorGreen
		}
		for k := range tr.Cars {
			car := &tr.Cars[k]
			x, y := g.displayToCell(car.Rear.Pos, w, h)
			dst.SetWithColor(x, y, '▓', c)
			x, y = g.displayToCell(car.Fore.Pos, w, h)
			r := '▓'
			if k == 0 {
				r = '█'
			}
			dst.SetWithColor(x, y, r, c)
		}
	}
}

func (g *Game) drawHUD(dst *core.Screen) {
	w := dst.Width()
	dst.DrawHLine(0, 0, w, ' ', core.ColorDefault)

	hud := fmt.Sprintf(" %s  %s  x%g  score %d  trains %d  pending %d",
		g.m.Name, g.engine.Clock(), g.engine.Speed(), g.engine.Score(), len(g.engine.Trains()), g.engine.Pending())
	if next, ok := g.engine.NextSpawn(); ok {
		hud += "  next " + next.Clock()
	}
	dst.DrawTextColor(0, 0, hud, core.ColorCyan)

	if g.lastEvent != "" {
		ev := g.lastEvent
		room := w - len([]rune(hud)) - 3
		if room <= 0 {
			return
		}
		if r := []rune(ev); len(r) > room {
			ev = string(r[:room])
		}
		dst.DrawTextColor(w-len([]rune(ev))-1, 0, ev, core.ColorGray)
	}
}
