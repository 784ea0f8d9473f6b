package sim

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vovakirdan/signalmaster/internal/config"
	"github.com/vovakirdan/signalmaster/internal/railmap"
)

// Validate reports content a parsed map can hold but the movement model
// cannot run: spawn tracks that are curved or too short for the train, and
// curved tracks that live traffic can reach under some switch setting.
// The map still loads; these are warnings for authors.
func Validate(m *railmap.Map, cfg config.SimConfig) []error {
	var errs []error

	for _, sp := range m.Spawns {
		t, _ := m.Track(sp.Track)
		if t.Shape != railmap.Linear {
			errs = append(errs, fmt.Errorf("spawn line %d: spawn track %s is %s, trains can only spawn on linear track", sp.Line, t.Key, t.Shape))
			continue
		}
		if need := cfg.Train.TrainSpan(sp.Cars); t.Length() < need {
			errs = append(errs, fmt.Errorf("spawn line %d: spawn track %s is %.0f long, a %d-car train needs %.0f",
				sp.Line, t.Key, t.Length(), sp.Cars, need))
		}
	}

	links := possibleLinks(m)
	reported := make(map[int]bool)
	for _, sp := range m.Spawns {
		for _, id := range reachable(links, sp.Track, sp.Forward) {
			t, _ := m.Track(id)
			if t.Shape == railmap.Linear || reported[id] {
				continue
			}
			reported[id] = true
			errs = append(errs, fmt.Errorf("spawn line %d: traffic can reach %s track %s, which trains cannot traverse", sp.Line, t.Shape, t.Key))
		}
	}
	return errs
}

// linkSet lists every connection a track may take, per direction, across
// its declared value and all switch rules.
type linkSet struct {
	fore, rear map[int]bool
}

func possibleLinks(m *railmap.Map) []linkSet {
	links := make([]linkSet, len(m.Tracks)+1)
	for _, t := range m.Tracks {
		links[t.ID] = linkSet{fore: map[int]bool{t.Fore: true}, rear: map[int]bool{t.Rear: true}}
	}
	for _, sw := range m.Switches {
		for _, st := range sw.States {
			for _, r := range st.Rules {
				if r.SetFore {
					links[r.Track].fore[r.Fore] = true
				}
				if r.SetRear {
					links[r.Track].rear[r.Rear] = true
				}
			}
		}
	}
	return links
}

// reachable walks the network from start in one direction.
func reachable(links []linkSet, start int, forward bool) []int {
	seen := map[int]bool{start: true}
	queue := []int{start}
	var out []int
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		next := links[id].rear
		if forward {
			next = links[id].fore
		}
		for _, n := range slices.Sorted(maps.Keys(next)) {
			if n == railmap.NoTrack || seen[n] {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	return out
}
