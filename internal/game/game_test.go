package game

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/signalmaster/internal/config"
	"github.com/vovakirdan/signalmaster/internal/core"
	"github.com/vovakirdan/signalmaster/internal/railmap"
)

// With 160x91 cells over the 1600x900 display every cell is 10 units square
// below the one HUD row.
var testRuntime = core.RuntimeConfig{ScreenW: 160, ScreenH: 91, TickRate: 10}

const straight = `<TRACK>
A|0|#|0,100|200,100|C
C|0|A|200,100|1000,100|#
<SWITCH>
<SIGNAL>
<STATION>
Yard|C|
<SPAWN>
0000|true|0|3|100|A|C
<END>
`

const junction = `<TRACK>
A|0|#|0,100|200,100|B
B|0|A|200,100|400,100|C
C|0|B|400,100|800,100|#
&X|0|B|400,100|500,200|D
D|0|&X|500,200|800,200|#
<SWITCH>
#|400,100|2|0|B,&X
B|true|*|C,&X|false
B|true|*|&X,&X|true
<SIGNAL>
<STATION>
<SPAWN>
0100|true|0|1|100|A|D
<END>
`

func newTestGame(t *testing.T, body string) *Game {
	t.Helper()
	m, err := railmap.Parse([]byte("SMAP1\n<INFO>\nTest\n"+body), railmap.DefaultOptions())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	g := New(m, config.DefaultSimConfig(), log.New(io.Discard))
	g.Reset(testRuntime)
	return g
}

func frame(actions ...core.Action) core.InputFrame {
	in := core.NewInputFrame()
	for _, a := range actions {
		in.Set(a)
	}
	return in
}

func TestGameIdentity(t *testing.T) {
	g := newTestGame(t, straight)

	if g.ID() != "Test" {
		t.Errorf("ID() = %q, expected %q", g.ID(), "Test")
	}
	if !strings.Contains(g.Title(), "Test") {
		t.Errorf("Title() = %q, expected it to name the map", g.Title())
	}
}

func TestGameClickTogglesSwitch(t *testing.T) {
	tests := []struct {
		name     string
		x, y     int
		expected int
	}{
		{"on the switch", 40, 10, 1},
		{"on the HUD row", 40, 0, 0},
		{"away from the switch", 100, 50, 0},
		{"off screen", 200, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, junction)
			in := frame()
			in.Click(tt.x, tt.y)
			g.Step(in)

			if got := g.Engine().Switches()[0].State(); got != tt.expected {
				t.Errorf("switch state = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestGameOnlyFirstClickApplies(t *testing.T) {
	g := newTestGame(t, junction)
	in := frame()
	in.Click(40, 10)
	in.Click(40, 10)
	g.Step(in)

	if got := g.Engine().Switches()[0].State(); got != 1 {
		t.Errorf("switch state = %d, expected 1 after two clicks in one tick", got)
	}
}

func TestGamePauseStopsClock(t *testing.T) {
	g := newTestGame(t, junction)
	g.Step(frame())
	before := g.Engine().Minutes()

	g.Step(frame(core.ActionPause))
	g.Step(frame())
	if !g.State().Paused {
		t.Fatal("State().Paused = false after pause")
	}
	if got := g.Engine().Minutes(); got != before {
		t.Errorf("Minutes() = %v while paused, expected %v", got, before)
	}

	// Switches still respond while paused.
	in := frame()
	in.Click(40, 10)
	g.Step(in)
	if got := g.Engine().Switches()[0].State(); got != 1 {
		t.Errorf("switch state = %d while paused, expected 1", got)
	}

	g.Step(frame(core.ActionPause))
	if got := g.Engine().Minutes(); got <= before {
		t.Errorf("Minutes() = %v after resume, expected more than %v", got, before)
	}
}

func TestGameSpeedSteps(t *testing.T) {
	g := newTestGame(t, straight)

	tests := []struct {
		action   core.Action
		expected float64
	}{
		{core.ActionFaster, 2},
		{core.ActionFaster, 4},
		{core.ActionFaster, 4},
		{core.ActionSlower, 2},
		{core.ActionSlower, 1},
		{core.ActionSlower, 0.5},
		{core.ActionSlower, 0.5},
	}
	for i, tt := range tests {
		g.Step(frame(tt.action))
		if got := g.Engine().Speed(); got != tt.expected {
			t.Errorf("step %d: Speed() = %v, expected %v", i, got, tt.expected)
		}
	}
}

func TestGameRunsToCompletion(t *testing.T) {
	g := newTestGame(t, straight)

	var arrivals []string
	for i := 0; i < 200 && !g.State().GameOver; i++ {
		res := g.Step(frame())
		arrivals = append(arrivals, res.Events...)
	}

	st := g.State()
	if !st.GameOver {
		t.Fatal("State().GameOver = false after 200 ticks")
	}
	if st.Score != 3 {
		t.Errorf("State().Score = %d, expected 3", st.Score)
	}
	if len(arrivals) != 1 || !strings.Contains(arrivals[0], "arrived at C") {
		t.Errorf("events = %q, expected one arrival at C", arrivals)
	}

	score, trains, minutes, completed := g.Summary()
	if score != 3 || trains != 1 || !completed || minutes <= 0 {
		t.Errorf("Summary() = %d, %d, %v, %v, expected 3, 1, >0, true", score, trains, minutes, completed)
	}

	g.Step(frame(core.ActionRestart))
	st = g.State()
	if st.GameOver || st.Score != 0 || g.Engine().Pending() != 1 {
		t.Errorf("after restart: state %+v, pending %d, expected a fresh run", st, g.Engine().Pending())
	}
}

func TestGameRender(t *testing.T) {
	g := newTestGame(t, junction)
	screen := core.NewScreen(testRuntime.ScreenW, testRuntime.ScreenH)
	g.Render(screen)

	if row := screen.Row(0); !strings.Contains(row, "Test") || !strings.Contains(row, "00:00") {
		t.Errorf("HUD = %q, expected map name and clock", strings.TrimSpace(row))
	}

	tests := []struct {
		name     string
		x, y     int
		expected rune
	}{
		{"track A", 5, 11, '─'},
		{"track C", 60, 11, '─'},
		{"switch marker", 40, 11, '1'},
		{"disabled branch", 45, 16, '·'},
		{"empty space", 100, 60, ' '},
	}
	for _, tt := range tests {
		if got := screen.Get(tt.x, tt.y); got != tt.expected {
			t.Errorf("%s: Get(%d, %d) = %q, expected %q", tt.name, tt.x, tt.y, got, tt.expected)
		}
	}
}

func TestGameRenderTracksOccupancy(t *testing.T) {
	g := newTestGame(t, straight)
	screen := core.NewScreen(testRuntime.ScreenW, testRuntime.ScreenH)

	g.Render(screen)
	if c := screen.GetCell(80, 11); c.Color != core.ColorWhite {
		t.Errorf("free track colour = %v, expected white", c.Color)
	}

	g.Step(frame())
	g.Render(screen)
	// The train spawned on A: its head sits at the A/C boundary and A is drawn red.
	if c := screen.GetCell(5, 11); c.Color != core.ColorRed {
		t.Errorf("occupied track colour = %v, expected red", c.Color)
	}
	if r := screen.Get(20, 11); r != '█' {
		t.Errorf("head bogey cell = %q, expected '█'", r)
	}
}
