package sim

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/signalmaster/internal/config"
	"github.com/vovakirdan/signalmaster/internal/core"
	"github.com/vovakirdan/signalmaster/internal/railmap"
)

const tick = 100 * time.Millisecond

func parseMap(t *testing.T, body string) *railmap.Map {
	t.Helper()
	m, err := railmap.Parse([]byte("SMAP1\n<INFO>\nTest\n"+body), railmap.DefaultOptions())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return m
}

func newTestEngine(t *testing.T, body string) *Engine {
	t.Helper()
	return New(parseMap(t, body), config.DefaultSimConfig(), WithLogger(log.New(io.Discard)))
}

func near(a, b core.Vec2) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func mustPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", contains)
		}
		if msg, _ := r.(string); !strings.Contains(msg, contains) {
			t.Errorf("panic = %v, expected it to contain %q", r, contains)
		}
	}()
	fn()
}

// Two tracks into a long destination.
const straight = `<TRACK>
A|0|#|0,100|200,100|C
C|0|A|200,100|1000,100|#
<SWITCH>
<SIGNAL>
<STATION>
<SPAWN>
0000|true|0|3|100|A|C
<END>
`

// A junction at (400,100): state 0 runs B into C, state 1 into &X and on to D.
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
0000|true|0|1|100|A|D
<END>
`

func TestGraphOccupancyRevision(t *testing.T) {
	g := NewGraph(parseMap(t, straight).Tracks)
	rev := g.Revision()

	g.Occupy(1, 2)
	if g.Revision() != rev+1 {
		t.Errorf("Revision() = %d after 0->2, expected %d", g.Revision(), rev+1)
	}
	g.Occupy(1, 1)
	g.Unoccupy(1, 2)
	if g.Revision() != rev+1 {
		t.Errorf("Revision() = %d after 2->3->1, expected no change", g.Revision())
	}
	g.Unoccupy(1, 1)
	if g.Revision() != rev+2 {
		t.Errorf("Revision() = %d after 1->0, expected %d", g.Revision(), rev+2)
	}
	if g.IsOccupied(1) {
		t.Error("track should be free after balanced occupy/unoccupy")
	}
}

func TestGraphUnderflowPanics(t *testing.T) {
	g := NewGraph(parseMap(t, straight).Tracks)
	g.Occupy(2, 1)

	mustPanic(t, "released 2 units but holds 1", func() { g.Unoccupy(2, 2) })
}

func TestGraphTrackLookup(t *testing.T) {
	g := NewGraph(parseMap(t, junction).Tracks)

	if g.Track(railmap.NoTrack) != nil || g.Track(99) != nil {
		t.Error("Track() should return nil for 0 and unknown IDs")
	}
	if x := g.Track(4); x.Key != "&X" || x.Enabled {
		t.Errorf("Track(4) = %s enabled=%v, expected disabled &X", x.Key, x.Enabled)
	}
	if g.Len() != 5 {
		t.Errorf("Len() = %d, expected 5", g.Len())
	}
}

func TestSwitchLockInvariant(t *testing.T) {
	e := newTestEngine(t, junction)
	g := e.Graph()
	sw := e.Switches()[0]

	if g.Track(2).Fore != 3 || g.Track(4).Enabled {
		t.Fatal("initial state should route B into C with &X disabled")
	}

	g.Occupy(4, 1)
	rev := g.Revision()
	if sw.Toggle(g) {
		t.Error("Toggle() succeeded on an occupied switch")
	}
	if sw.State() != 0 || g.Track(2).Fore != 3 || g.Revision() != rev {
		t.Error("refused toggle must leave state, connections and revision untouched")
	}

	g.Unoccupy(4, 1)
	if !sw.Toggle(g) {
		t.Fatal("Toggle() refused on a free switch")
	}
	if sw.State() != 1 || g.Track(2).Fore != 4 || !g.Track(4).Enabled {
		t.Errorf("after toggle: state %d, B.Fore %d, &X enabled %v; expected 1, 4, true",
			sw.State(), g.Track(2).Fore, g.Track(4).Enabled)
	}

	sw.Toggle(g)
	if sw.State() != 0 || g.Track(2).Fore != 3 {
		t.Errorf("toggle should wrap back to state 0, got %d", sw.State())
	}
}

func TestEngineClick(t *testing.T) {
	e := newTestEngine(t, junction)

	res := e.Step(Frame{Click: &core.Vec2{X: 405, Y: 110}})
	if res.Switch != SwitchToggled || res.SwitchIndex != 0 {
		t.Errorf("click on switch = %v/%d, expected toggled/0", res.Switch, res.SwitchIndex)
	}

	res = e.Step(Frame{Click: &core.Vec2{X: 10, Y: 10}})
	if res.Switch != SwitchNone || res.SwitchIndex != -1 {
		t.Errorf("click elsewhere = %v/%d, expected none/-1", res.Switch, res.SwitchIndex)
	}

	e.Graph().Occupy(2, 1)
	res = e.Step(Frame{Click: &core.Vec2{X: 400, Y: 100}})
	if res.Switch != SwitchLocked || e.Switches()[0].State() != 1 {
		t.Errorf("click on locked switch = %v state %d, expected locked state 1", res.Switch, e.Switches()[0].State())
	}
}

func TestEngineClickTogglesFirstMatchOnly(t *testing.T) {
	body := strings.Replace(junction, "<SIGNAL>", "#|410,100|2|0|C\nC|true\nC|true\n<SIGNAL>", 1)
	e := newTestEngine(t, body)

	e.Step(Frame{Click: &core.Vec2{X: 405, Y: 100}})
	if e.Switches()[0].State() != 1 || e.Switches()[1].State() != 0 {
		t.Errorf("states = %d,%d, expected only the first switch toggled",
			e.Switches()[0].State(), e.Switches()[1].State())
	}
}

func TestBogeyEnterContinuity(t *testing.T) {
	g := NewGraph(parseMap(t, `<TRACK>
A|0|#|0,100|200,100|B
B|0|A|200,100|200,400|C
C|0|B|200,400|600,400|#
<SWITCH>
<SIGNAL>
<STATION>
<SPAWN>
<END>
`).Tracks)

	tests := []struct {
		name  string
		carry float64
		want  core.Vec2
	}{
		{"zero carry lands on the entry point", 0, core.V(200, 100)},
		{"carry within the segment", 120, core.V(200, 220)},
		{"carry longer than the segment", 450, core.V(200, 550)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := Bogey{Pos: core.V(200, 100)}
			b.enter(g.Track(2), 10, true, tc.carry)
			if !near(b.Pos, tc.want) {
				t.Errorf("Pos = %v, expected %v", b.Pos, tc.want)
			}
			if !near(b.Vel, core.V(0, 10)) {
				t.Errorf("Vel = %v, expected (0, 10)", b.Vel)
			}
		})
	}
}

func TestBogeyAdvanceCarriesDistance(t *testing.T) {
	body := `<TRACK>
A|0|#|0,100|200,100|B
B|0|A|200,100|200,400|C
C|0|B|200,400|600,400|#
<SWITCH>
<SIGNAL>
<STATION>
<SPAWN>
<END>
`
	tests := []struct {
		name      string
		distance  float64
		wantPos   core.Vec2
		wantTrack int
	}{
		{"stays on A", 5, core.V(195, 100), 1},
		{"crosses into B", 15, core.V(200, 105), 2},
		{"crosses B entirely", 360, core.V(250, 400), 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGraph(parseMap(t, body).Tracks)
			b := Bogey{Pos: core.V(190, 100)}
			b.enter(g.Track(1), 10, true, 0)
			g.Occupy(1, 1)

			b.advance(movement{graph: g, tolerance: 0.1}, tc.distance/10, 10, true)

			if !near(b.Pos, tc.wantPos) {
				t.Errorf("Pos = %v, expected %v", b.Pos, tc.wantPos)
			}
			if b.Track.ID != tc.wantTrack {
				t.Errorf("Track = %s, expected ID %d", b.Track.Key, tc.wantTrack)
			}
			for id := 1; id <= 3; id++ {
				want := 0
				if id == tc.wantTrack {
					want = 1
				}
				if got := g.Occupancy(id); got != want {
					t.Errorf("Occupancy(%d) = %d, expected %d", id, got, want)
				}
			}
		})
	}
}

func TestNewTrainLayout(t *testing.T) {
	m := parseMap(t, straight)
	g := NewGraph(m.Tracks)

	tr := newTrain(g, m.Spawns[0], config.DefaultSimConfig().Train, 1, 0)

	wantX := []float64{196, 164, 156, 124, 116, 84}
	for k, car := range tr.Cars {
		if !near(car.Fore.Pos, core.V(wantX[2*k], 100)) || !near(car.Rear.Pos, core.V(wantX[2*k+1], 100)) {
			t.Errorf("car %d bogeys at %v/%v, expected x=%v/%v", k, car.Fore.Pos, car.Rear.Pos, wantX[2*k], wantX[2*k+1])
		}
	}
	if got := g.Occupancy(1); got != 6 {
		t.Errorf("spawn track occupancy = %d, expected 6", got)
	}
}

func TestNewTrainRearward(t *testing.T) {
	m := parseMap(t, strings.Replace(straight, "0000|true|0|3|100|A|C", "0000|false|0|1|100|C|A", 1))
	g := NewGraph(m.Tracks)

	tr := newTrain(g, m.Spawns[0], config.DefaultSimConfig().Train, 1, 0)

	// Rearward trains lead with Points[0] and trail towards Points[1].
	if !near(tr.Head().Pos, core.V(204, 100)) || !near(tr.Tail().Pos, core.V(236, 100)) {
		t.Errorf("bogeys at %v/%v, expected (204,100)/(236,100)", tr.Head().Pos, tr.Tail().Pos)
	}
	if tr.Head().Vel.X >= 0 {
		t.Errorf("Vel = %v, expected travel towards -X", tr.Head().Vel)
	}
}

func TestScheduleReleaseOrder(t *testing.T) {
	body := `<TRACK>
A|0|#|0,100|400,100|B
B|0|A|400,100|1400,100|#
<SWITCH>
<SIGNAL>
<STATION>
<SPAWN>
0005|true|0|1|1|A|B
0005|true|1|1|1|A|B
0012|true|2|1|1|A|B
<END>
`
	e := newTestEngine(t, body)

	var released []railmap.TrainType
	for minute := 1; minute <= 12; minute++ {
		res := e.Step(Frame{Elapsed: time.Second})
		want := 0
		switch minute {
		case 5:
			want = 2
		case 12:
			want = 1
		}
		if len(res.Released) != want {
			t.Errorf("minute %d released %d trains, expected %d", minute, len(res.Released), want)
		}
		for _, tr := range res.Released {
			released = append(released, tr.Type)
		}
	}

	want := []railmap.TrainType{railmap.PassengerNormal, railmap.PassengerExpress, railmap.PassengerMilitary}
	if len(released) != len(want) {
		t.Fatalf("released %v, expected %v", released, want)
	}
	for i := range want {
		if released[i] != want[i] {
			t.Errorf("release %d = %v, expected %v", i, released[i], want[i])
		}
	}
	if e.Pending() != 0 {
		t.Errorf("Pending() = %d, expected 0", e.Pending())
	}
}

func TestScheduleKeepsFileOrder(t *testing.T) {
	s := NewSchedule([]railmap.Spawn{{Time: 12}, {Time: 5}})

	if got := s.ReleaseDue(5); len(got) != 0 {
		t.Errorf("ReleaseDue(5) = %d entries, expected 0 while the head waits", len(got))
	}
	if got := s.ReleaseDue(12); len(got) != 2 {
		t.Errorf("ReleaseDue(12) = %d entries, expected 2", len(got))
	}
	if _, ok := s.Peek(); ok {
		t.Error("Peek() on empty schedule should report false")
	}
}

func TestTripCompletion(t *testing.T) {
	e := newTestEngine(t, straight)
	g := e.Graph()

	// Tail bogey starts at x=84 and moves 10 per tick; it leaves A on tick 12.
	for i := 0; i < 11; i++ {
		if res := e.Step(Frame{Elapsed: tick}); len(res.Retired) > 0 {
			t.Fatalf("train arrived early on tick %d", i+1)
		}
	}
	if g.Occupancy(1) != 1 || g.Occupancy(2) != 5 {
		t.Fatalf("occupancy A=%d C=%d before arrival, expected 1 and 5", g.Occupancy(1), g.Occupancy(2))
	}

	res := e.Step(Frame{Elapsed: tick})
	if len(res.Retired) != 1 || res.Retired[0].Cars != 3 || res.Retired[0].Dest != 2 {
		t.Fatalf("Retired = %+v, expected one 3-car arrival at C", res.Retired)
	}
	if g.Occupancy(1) != 0 || g.Occupancy(2) != 0 {
		t.Errorf("occupancy A=%d C=%d after arrival, expected both 0", g.Occupancy(1), g.Occupancy(2))
	}
	if e.Score() != 3 || e.Delivered() != 1 {
		t.Errorf("Score()=%d Delivered()=%d, expected 3 and 1", e.Score(), e.Delivered())
	}
	if len(e.Trains()) != 0 || !e.Done() {
		t.Errorf("Trains()=%d Done()=%v, expected the train gone", len(e.Trains()), e.Done())
	}

	e.Step(Frame{Elapsed: tick})
	if e.Score() != 3 || len(e.Trains()) != 0 {
		t.Error("an arrived train must not be scored or seen again")
	}
}

func TestTrainReleaseAtDestination(t *testing.T) {
	m := parseMap(t, straight)
	g := NewGraph(m.Tracks)
	sp := m.Spawns[0]
	sp.Track = 2

	tr := newTrain(g, sp, config.DefaultSimConfig().Train, 1, 0)
	if !tr.Arrived() || g.Occupancy(2) != 6 {
		t.Fatalf("Arrived()=%v occupancy=%d, expected true and 6", tr.Arrived(), g.Occupancy(2))
	}
	tr.release(g)
	if g.Occupancy(2) != 0 {
		t.Errorf("Occupancy() = %d after release, expected 0", g.Occupancy(2))
	}
}

func TestSwitchReroutesTrain(t *testing.T) {
	e := newTestEngine(t, junction)

	// Zero elapsed time: the train is released but has not moved onto B yet.
	res := e.Step(Frame{Click: &core.Vec2{X: 400, Y: 100}})
	if res.Switch != SwitchToggled {
		t.Fatalf("Switch = %v, expected toggled", res.Switch)
	}
	if len(res.Released) != 1 {
		t.Fatalf("Released = %d trains, expected 1", len(res.Released))
	}

	for i := 0; i < 100 && !e.Done(); i++ {
		res = e.Step(Frame{Elapsed: tick})
		if len(res.Retired) > 0 && res.Retired[0].Dest != 5 {
			t.Fatalf("train retired at %d, expected D", res.Retired[0].Dest)
		}
	}
	if !e.Done() || e.Score() != 1 {
		t.Errorf("Done()=%v Score()=%d, expected the train delivered via &X", e.Done(), e.Score())
	}
}

func TestSwitchLockedByTrainMovedInSameTick(t *testing.T) {
	e := newTestEngine(t, junction)

	// Movement runs before the click, so the lead bogey is already on B.
	res := e.Step(Frame{Elapsed: tick, Click: &core.Vec2{X: 400, Y: 100}})
	if res.Switch != SwitchLocked || res.SwitchIndex != 0 {
		t.Fatalf("Switch = %v at %d, expected locked at 0", res.Switch, res.SwitchIndex)
	}
	if e.Switches()[0].State() != 0 {
		t.Errorf("State() = %d, expected 0", e.Switches()[0].State())
	}
}

func TestDeadEndPanics(t *testing.T) {
	e := newTestEngine(t, `<TRACK>
A|0|#|0,100|200,100|#
B|0|#|500,500|600,500|#
<SWITCH>
<SIGNAL>
<STATION>
<SPAWN>
0000|true|0|1|100|A|B
<END>
`)

	mustPanic(t, "ran off track A: no fore connection", func() {
		e.Step(Frame{Elapsed: tick})
	})
}

const loop = `<TRACK>
A|0|B|0,100|100,100|B
B|0|A|100,100|0,100|A
Z|0|#|500,500|600,500|#
<SWITCH>
<SIGNAL>
<STATION>
<SPAWN>
0000|true|0|1|100|A|Z
<END>
`

func TestLongStepLapsSmallLoop(t *testing.T) {
	e := newTestEngine(t, loop)
	if err := e.SetSpeed(4); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	e.Step(Frame{})

	// Many laps of a three-track network in a single tick.
	e.Step(Frame{Elapsed: 10 * time.Second})

	if len(e.Trains()) != 1 {
		t.Fatalf("Trains() = %d, expected 1", len(e.Trains()))
	}
	g := e.Graph()
	if got := g.Occupancy(1) + g.Occupancy(2); got != 2 {
		t.Errorf("occupancy on the loop = %d, expected 2", got)
	}
}

func TestZeroLengthCycleCannotSettle(t *testing.T) {
	g := NewGraph(parseMap(t, `<TRACK>
A|0|B|0,100|0,100|B
B|0|A|0,100|0,100|A
<SWITCH>
<SIGNAL>
<STATION>
<SPAWN>
<END>
`).Tracks)
	mv := movement{graph: g, tolerance: 0.1}

	var b Bogey
	b.Pos = core.V(0, 100)
	b.enter(g.Track(1), 100, true, 0)
	g.Occupy(1, 1)

	mustPanic(t, "cannot settle", func() {
		b.advance(mv, 1, 100, true)
	})
}

func TestCurvedTrackIsWarnedOnce(t *testing.T) {
	var buf bytes.Buffer
	m := parseMap(t, `<TRACK>
A|0|#|0,100|200,100|Q
Q|1|A|200,100|300,100|400,200|#
Z|0|#|500,500|600,500|#
<SWITCH>
<SIGNAL>
<STATION>
<SPAWN>
0000|true|0|2|100|A|Z
<END>
`)
	e := New(m, config.DefaultSimConfig(), WithLogger(log.New(&buf)))

	for i := 0; i < 20; i++ {
		e.Step(Frame{Elapsed: tick})
	}
	if got := strings.Count(buf.String(), "curved track"); got != 1 {
		t.Errorf("curved track warning logged %d times, expected 1", got)
	}
	if head := e.Trains()[0].Head(); head.Track.Key != "Q" {
		t.Errorf("lead bogey on %s, expected it to keep moving on Q", head.Track.Key)
	}
}

func TestEngineLoadResets(t *testing.T) {
	e := newTestEngine(t, junction)
	e.Step(Frame{Elapsed: tick, Click: &core.Vec2{X: 400, Y: 100}})
	if len(e.Trains()) != 1 {
		t.Fatalf("Trains() = %d, expected 1", len(e.Trains()))
	}

	e.Load(e.Map())

	if len(e.Trains()) != 0 || e.Score() != 0 || e.Minutes() != 0 || e.Pending() != 1 {
		t.Errorf("after Load: trains=%d score=%d minutes=%v pending=%d", len(e.Trains()), e.Score(), e.Minutes(), e.Pending())
	}
	if e.Switches()[0].State() != 0 || e.Graph().Track(2).Fore != 3 {
		t.Error("Load should restore initial switch states")
	}
	for id := 1; id <= e.Graph().Len(); id++ {
		if e.Graph().IsOccupied(id) {
			t.Errorf("track %d still occupied after Load", id)
		}
	}
}

func TestEngineSpeedScalesMovement(t *testing.T) {
	e := newTestEngine(t, straight)
	if err := e.SetSpeed(2); err != nil {
		t.Fatalf("SetSpeed(2) error = %v", err)
	}

	e.Step(Frame{Elapsed: tick})
	if got := e.Trains()[0].Tail().Pos.X; math.Abs(got-104) > 1e-9 {
		t.Errorf("tail x = %v, expected 104 after one double-speed tick", got)
	}
	if err := e.SetSpeed(0); err == nil {
		t.Error("SetSpeed(0) should fail")
	}
}

func TestClock(t *testing.T) {
	c := NewClock(2, 1)

	if dt := c.Advance(500 * time.Millisecond); dt != 1 {
		t.Errorf("Advance() = %v, expected 1", dt)
	}
	if c.Minutes() != 1 {
		t.Errorf("Minutes() = %v, expected 1", c.Minutes())
	}
	if err := c.SetSpeed(math.NaN()); err == nil {
		t.Error("SetSpeed(NaN) should fail")
	}
	if err := c.SetSpeed(-1); err == nil || c.Speed() != 2 {
		t.Error("SetSpeed(-1) should fail and keep the old speed")
	}

	c.Advance(89 * time.Second / 2)
	if got := c.String(); got != "01:30" {
		t.Errorf("String() = %q, expected %q", got, "01:30")
	}
	c.Reset()
	if c.Minutes() != 0 || c.Speed() != 2 {
		t.Error("Reset() should rewind time and keep the speed")
	}
}

func TestValidate(t *testing.T) {
	cfg := config.DefaultSimConfig()

	if errs := Validate(parseMap(t, straight), cfg); len(errs) != 0 {
		t.Errorf("Validate(straight) = %v, expected none", errs)
	}

	short := strings.Replace(straight, "A|0|#|0,100|200,100|C", "A|0|#|100,100|200,100|C", 1)
	if errs := Validate(parseMap(t, short), cfg); len(errs) != 1 || !strings.Contains(errs[0].Error(), "needs 116") {
		t.Errorf("Validate(short spawn) = %v, expected one length complaint", errs)
	}

	curved := strings.Replace(junction, "D|0|&X|500,200|800,200|#", "D|1|&X|500,200|600,300|800,200|#", 1)
	errs := Validate(parseMap(t, curved), cfg)
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "quadratic track D") {
		t.Errorf("Validate(curve behind switch) = %v, expected one reachability complaint", errs)
	}
}
