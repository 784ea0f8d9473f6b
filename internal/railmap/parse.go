package railmap

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vovakirdan/signalmaster/internal/core"
)

// Authored coordinate space.
const (
	ReferenceWidth  = 1600
	ReferenceHeight = 900
)

// DefaultSwitchMargin is the clickable margin added around a switch anchor.
const DefaultSwitchMargin = 25

const commentPrefix = "//"

// Section sentinels in file order.
const (
	sectionTrack   = "<TRACK>"
	sectionSwitch  = "<SWITCH>"
	sectionSignal  = "<SIGNAL>"
	sectionStation = "<STATION>"
	sectionSpawn   = "<SPAWN>"
	sectionEnd     = "<END>"
)

var sentinels = []string{sectionTrack, sectionSwitch, sectionSignal, sectionStation, sectionSpawn, sectionEnd}

// Options controls how design-space coordinates are mapped to the display.
// Callers should start from DefaultOptions. Non-positive sizes and margins
// fall back to the defaults, so a switch never ends up with an empty hit box.
type Options struct {
	DisplayWidth  float64
	DisplayHeight float64
	SwitchMargin  float64
	// File is stamped into errors and Map.Source.
	File string
}

// DefaultOptions maps coordinates 1:1 with the standard switch margin.
func DefaultOptions() Options {
	return Options{
		DisplayWidth:  ReferenceWidth,
		DisplayHeight: ReferenceHeight,
		SwitchMargin:  DefaultSwitchMargin,
	}
}

type line struct {
	no   int
	text string
}

type parser struct {
	opts   Options
	sx, sy float64
	m      *Map
}

// ParseFile reads and parses a map file.
func ParseFile(path string, opts Options) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map %s: %w", path, err)
	}
	if opts.File == "" {
		opts.File = path
	}
	return Parse(data, opts)
}

// ParseFS reads and parses a map file from fsys.
func ParseFS(fsys fs.FS, name string, opts Options) (*Map, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading map %s: %w", name, err)
	}
	if opts.File == "" {
		opts.File = filepath.ToSlash(name)
	}
	return Parse(data, opts)
}

// Parse builds a Map from the text of a map file.
func Parse(src []byte, opts Options) (*Map, error) {
	if opts.DisplayWidth <= 0 {
		opts.DisplayWidth = ReferenceWidth
	}
	if opts.DisplayHeight <= 0 {
		opts.DisplayHeight = ReferenceHeight
	}
	if opts.SwitchMargin <= 0 {
		opts.SwitchMargin = DefaultSwitchMargin
	}

	p := &parser{
		opts: opts,
		sx:   opts.DisplayWidth / ReferenceWidth,
		sy:   opts.DisplayHeight / ReferenceHeight,
		m: &Map{
			Source:   opts.File,
			Metadata: make(map[string]string),
			Stations: make(map[string]Station),
		},
	}

	lines := stripComments(src)
	sections, err := p.split(lines)
	if err != nil {
		return nil, err
	}

	if err := p.header(sections[0]); err != nil {
		return nil, err
	}
	// Pass 1: every track key gets its ID before any reference is resolved.
	if err := p.intern(sections[1]); err != nil {
		return nil, err
	}
	// Pass 2: build records against the finished table.
	if err := p.tracks(sections[1]); err != nil {
		return nil, err
	}
	if err := p.switches(sections[2]); err != nil {
		return nil, err
	}
	// sections[3] is <SIGNAL>; signals are reserved and ignored.
	if err := p.stations(sections[4]); err != nil {
		return nil, err
	}
	if err := p.spawns(sections[5]); err != nil {
		return nil, err
	}
	return p.m, nil
}

// stripComments drops comment lines and numbers what remains from 1.
func stripComments(src []byte) []line {
	var out []line
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(strings.TrimSpace(text), commentPrefix) {
			continue
		}
		out = append(out, line{no: len(out) + 1, text: text})
	}
	return out
}

// split cuts the document at the sentinels. The result holds the header
// followed by the body of each section up to <END>.
func (p *parser) split(lines []line) ([][]line, error) {
	out := make([][]line, 0, len(sentinels))
	start := 0
	for i, s := range sentinels {
		idx := -1
		for j := start; j < len(lines); j++ {
			if strings.TrimSpace(lines[j].text) == s {
				idx = j
				break
			}
		}
		if idx < 0 {
			after := "start of file"
			if i > 0 {
				after = sentinels[i-1]
			}
			return nil, p.fail(0, "", errorf(ErrMissingSection, "%s not found after %s", s, after))
		}
		out = append(out, lines[start:idx])
		start = idx + 1
	}
	return out, nil
}

func (p *parser) fail(no int, section string, err error) error {
	return &ParseError{File: p.opts.File, Line: no, Section: section, Err: err}
}

func (p *parser) header(lines []line) error {
	const section = "header"
	if len(lines) < 3 {
		return p.fail(0, section, errorf(ErrBadHeader, "expected format tag, <INFO> and map name, got %d lines", len(lines)))
	}
	format := strings.TrimSpace(lines[0].text)
	if !strings.HasPrefix(format, "SMAP") {
		return p.fail(lines[0].no, section, errorf(ErrBadHeader, "unknown format tag %q", format))
	}
	if strings.TrimSpace(lines[1].text) != "<INFO>" {
		return p.fail(lines[1].no, section, errorf(ErrBadHeader, "expected <INFO>, got %q", lines[1].text))
	}
	name := strings.TrimSpace(lines[2].text)
	if name == "" {
		return p.fail(lines[2].no, section, errorf(ErrBadHeader, "empty map name"))
	}
	p.m.Format = format
	p.m.Name = name

	for _, l := range lines[3:] {
		text := strings.TrimSpace(l.text)
		if text == "" {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return p.fail(l.no, section, errorf(ErrBadHeader, "expected key=value, got %q", text))
		}
		p.m.Metadata[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return nil
}

func fields(text string, sep string) []string {
	parts := strings.Split(text, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func nonEmpty(lines []line) []line {
	out := lines[:0:0]
	for _, l := range lines {
		if strings.TrimSpace(l.text) != "" {
			out = append(out, l)
		}
	}
	return out
}

func (p *parser) intern(lines []line) error {
	const section = "track"
	p.m.IDs = map[string]int{NoTrackKey: NoTrack}
	p.m.Keys = []string{NoTrackKey}
	for _, l := range nonEmpty(lines) {
		key := fields(l.text, "|")[0]
		switch {
		case key == "":
			return p.fail(l.no, section, errorf(ErrMalformed, "empty track id"))
		case strings.HasPrefix(key, NoTrackKey):
			return p.fail(l.no, section, errorf(ErrMalformed, "track id %q uses the reserved %q prefix", key, NoTrackKey))
		}
		if _, dup := p.m.IDs[key]; dup {
			return p.fail(l.no, section, errorf(ErrDuplicate, "track %q", key))
		}
		p.m.IDs[key] = len(p.m.Keys)
		p.m.Keys = append(p.m.Keys, key)
	}
	return nil
}

// ref resolves a track key, "#" included.
func (p *parser) ref(key string) (int, error) {
	id, ok := p.m.IDs[key]
	if !ok {
		return 0, errorf(ErrUnknownTrack, "%q", key)
	}
	return id, nil
}

// realRef resolves a key that must name an actual track.
func (p *parser) realRef(key string) (int, error) {
	id, err := p.ref(key)
	if err != nil {
		return 0, err
	}
	if id == NoTrack {
		return 0, errorf(ErrUnknownTrack, "%q is not a track", key)
	}
	return id, nil
}

func (p *parser) point(text string) (core.Vec2, error) {
	xs, ys, ok := strings.Cut(text, ",")
	if !ok {
		return core.Vec2{}, errorf(ErrMalformed, "coordinate %q is not x,y", text)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return core.Vec2{}, errorf(ErrMalformed, "coordinate %q: bad x", text)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return core.Vec2{}, errorf(ErrMalformed, "coordinate %q: bad y", text)
	}
	return core.V(x*p.sx, y*p.sy), nil
}

func (p *parser) tracks(lines []line) error {
	const section = "track"
	for _, l := range nonEmpty(lines) {
		t, err := p.track(l.text)
		if err != nil {
			return p.fail(l.no, section, err)
		}
		p.m.Tracks = append(p.m.Tracks, t)
	}
	return nil
}

func (p *parser) track(text string) (Track, error) {
	f := fields(text, "|")
	if len(f) < 6 {
		return Track{}, errorf(ErrMalformed, "expected at least 6 fields, got %d", len(f))
	}
	key := f[0]
	t := Track{
		ID:          p.m.IDs[key],
		Key:         key,
		SwitchTrack: key[0] == SwitchSigil,
	}

	code, err := strconv.Atoi(f[1])
	if err != nil {
		return Track{}, errorf(ErrMalformed, "shape %q is not an integer", f[1])
	}
	t.Shape = Shape(code)
	if t.Shape < Linear || t.Shape > Arc {
		return Track{}, errorf(ErrMalformed, "unknown shape code %d", code)
	}

	if t.Rear, err = p.ref(f[2]); err != nil {
		return Track{}, fmt.Errorf("rear connection: %w", err)
	}
	if t.Fore, err = p.ref(f[len(f)-1]); err != nil {
		return Track{}, fmt.Errorf("fore connection: %w", err)
	}

	for _, c := range f[3 : len(f)-1] {
		pt, err := p.point(c)
		if err != nil {
			return Track{}, err
		}
		t.Points = append(t.Points, pt)
	}
	if !t.Shape.pointsValid(len(t.Points)) {
		return Track{}, errorf(ErrMalformed, "%s track needs a different number of points, got %d", t.Shape, len(t.Points))
	}
	return t, nil
}

func (p *parser) switches(lines []line) error {
	const section = "switch"
	var cur *Switch
	finish := func(no int) error {
		if cur == nil {
			return nil
		}
		if len(cur.States) != cur.NumStates {
			return p.fail(no, section, errorf(ErrMalformed, "switch declares %d states, %d given", cur.NumStates, len(cur.States)))
		}
		p.m.Switches = append(p.m.Switches, *cur)
		return nil
	}

	for _, l := range nonEmpty(lines) {
		text := strings.TrimSpace(l.text)
		if strings.HasPrefix(text, NoTrackKey) {
			if err := finish(cur.lineOr(l.no)); err != nil {
				return err
			}
			sw, err := p.switchHeader(text)
			if err != nil {
				return p.fail(l.no, section, err)
			}
			sw.Line = l.no
			cur = &sw
			continue
		}
		if cur == nil {
			return p.fail(l.no, section, errorf(ErrMalformed, "state line before any switch header"))
		}
		if len(cur.States) == cur.NumStates {
			return p.fail(l.no, section, errorf(ErrMalformed, "switch declares %d states, more given", cur.NumStates))
		}
		st, err := p.switchState(text)
		if err != nil {
			return p.fail(l.no, section, err)
		}
		cur.States = append(cur.States, st)
	}
	return finish(cur.lineOr(0))
}

func (s *Switch) lineOr(no int) int {
	if s == nil {
		return no
	}
	return s.Line
}

func (p *parser) switchHeader(text string) (Switch, error) {
	f := fields(text, "|")
	if len(f) < 5 || len(f) > 6 {
		return Switch{}, errorf(ErrMalformed, "switch header needs 5 or 6 fields, got %d", len(f))
	}
	anchor, err := p.point(f[1])
	if err != nil {
		return Switch{}, err
	}
	m := p.opts.SwitchMargin
	rest := f[2:]
	sw := Switch{Bounds: core.BoxXYWH(anchor.X-m, anchor.Y-m, 2*m, 2*m)}
	if len(f) > 5 {
		size, err := p.point(f[2])
		if err != nil {
			return Switch{}, err
		}
		sw.Bounds = core.BoxXYWH(anchor.X-m, anchor.Y-m, size.X+2*m, size.Y+2*m)
		rest = f[3:]
	}

	if sw.NumStates, err = strconv.Atoi(rest[0]); err != nil || sw.NumStates < 1 {
		return Switch{}, errorf(ErrMalformed, "state count %q must be a positive integer", rest[0])
	}
	if sw.Initial, err = strconv.Atoi(rest[1]); err != nil || sw.Initial < 0 || sw.Initial >= sw.NumStates {
		return Switch{}, errorf(ErrMalformed, "initial state %q out of range [0,%d)", rest[1], sw.NumStates)
	}
	for _, key := range fields(rest[2], ",") {
		if key == "" {
			continue
		}
		id, err := p.realRef(key)
		if err != nil {
			return Switch{}, fmt.Errorf("controlled track: %w", err)
		}
		sw.Tracks = append(sw.Tracks, id)
	}
	return sw, nil
}

func (p *parser) switchState(text string) (SwitchState, error) {
	var st SwitchState
	for _, rule := range fields(text, ",") {
		f := fields(rule, "|")
		if len(f) != 2 && len(f) != 4 {
			return SwitchState{}, errorf(ErrMalformed, "rule %q needs 2 or 4 fields", rule)
		}
		id, err := p.realRef(f[0])
		if err != nil {
			return SwitchState{}, fmt.Errorf("rule %q: %w", rule, err)
		}
		enabled, err := strconv.ParseBool(f[1])
		if err != nil {
			return SwitchState{}, errorf(ErrMalformed, "rule %q: enabled flag %q", rule, f[1])
		}
		r := Rule{Track: id, Enabled: enabled}
		if len(f) == 4 {
			if f[2] != "*" {
				if r.Rear, err = p.ref(f[2]); err != nil {
					return SwitchState{}, fmt.Errorf("rule %q rear: %w", rule, err)
				}
				r.SetRear = true
			}
			if f[3] != "*" {
				if r.Fore, err = p.ref(f[3]); err != nil {
					return SwitchState{}, fmt.Errorf("rule %q fore: %w", rule, err)
				}
				r.SetFore = true
			}
		}
		st.Rules = append(st.Rules, r)
	}
	return st, nil
}

func (p *parser) trackList(csv string) ([]int, error) {
	var ids []int
	for _, key := range fields(csv, ",") {
		if key == "" {
			continue
		}
		id, err := p.realRef(key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *parser) stations(lines []line) error {
	const section = "station"
	for _, l := range nonEmpty(lines) {
		f := fields(l.text, "|")
		if len(f) != 3 || f[0] == "" {
			return p.fail(l.no, section, errorf(ErrMalformed, "expected name|forward|rearward"))
		}
		if _, dup := p.m.Stations[f[0]]; dup {
			return p.fail(l.no, section, errorf(ErrDuplicate, "station %q", f[0]))
		}
		fwd, err := p.trackList(f[1])
		if err != nil {
			return p.fail(l.no, section, fmt.Errorf("forward tracks: %w", err))
		}
		rear, err := p.trackList(f[2])
		if err != nil {
			return p.fail(l.no, section, fmt.Errorf("rearward tracks: %w", err))
		}
		p.m.Stations[f[0]] = Station{Name: f[0], Forward: fwd, Rearward: rear}
	}
	return nil
}

func (p *parser) spawns(lines []line) error {
	const section = "spawn"
	for _, l := range nonEmpty(lines) {
		s, err := p.spawn(l.text)
		if err != nil {
			return p.fail(l.no, section, err)
		}
		s.Line = l.no
		p.m.Spawns = append(p.m.Spawns, s)
	}
	return nil
}

func (p *parser) spawn(text string) (Spawn, error) {
	f := fields(text, "|")
	if len(f) < 7 {
		return Spawn{}, errorf(ErrMalformed, "expected at least 7 fields, got %d", len(f))
	}
	var s Spawn
	var err error

	if s.Time, err = clockMinutes(f[0]); err != nil {
		return Spawn{}, err
	}
	if s.Forward, err = strconv.ParseBool(f[1]); err != nil {
		return Spawn{}, errorf(ErrMalformed, "direction %q is not a boolean", f[1])
	}
	code, err := strconv.Atoi(f[2])
	if err != nil || code < int(PassengerNormal) || code > int(PassengerMilitary) {
		return Spawn{}, errorf(ErrMalformed, "unknown train type %q", f[2])
	}
	s.Type = TrainType(code)
	if s.Cars, err = strconv.Atoi(f[3]); err != nil || s.Cars < 1 {
		return Spawn{}, errorf(ErrMalformed, "car count %q must be a positive integer", f[3])
	}
	if s.Speed, err = strconv.ParseFloat(f[4], 64); err != nil || !(s.Speed > 0) {
		return Spawn{}, errorf(ErrMalformed, "speed %q must be a positive number", f[4])
	}
	if s.Track, err = p.realRef(f[5]); err != nil {
		return Spawn{}, fmt.Errorf("spawn track: %w", err)
	}
	if s.Dest, err = p.realRef(f[len(f)-1]); err != nil {
		return Spawn{}, fmt.Errorf("destination: %w", err)
	}
	for _, item := range f[6 : len(f)-1] {
		stop, err := p.stop(item, s.Forward)
		if err != nil {
			return Spawn{}, err
		}
		s.Stops = append(s.Stops, stop)
	}
	return s, nil
}

func clockMinutes(text string) (int, error) {
	if len(text) != 4 {
		return 0, errorf(ErrMalformed, "time %q is not HHMM", text)
	}
	h, errH := strconv.Atoi(text[:2])
	m, errM := strconv.Atoi(text[2:])
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, errorf(ErrMalformed, "time %q is not HHMM", text)
	}
	return 60*h + m, nil
}

// stop parses "Station-dwell[-i,j,...]". Indices select tracks from the
// station's list for the train's direction; no indices means all of them.
func (p *parser) stop(item string, forward bool) (StationStop, error) {
	f := fields(item, "-")
	if len(f) < 2 || len(f) > 3 {
		return StationStop{}, errorf(ErrMalformed, "stop %q is not station-dwell[-indices]", item)
	}
	st, ok := p.m.Stations[f[0]]
	if !ok {
		return StationStop{}, errorf(ErrUnknownStation, "%q", f[0])
	}
	dwell, err := strconv.ParseFloat(f[1], 64)
	if err != nil || dwell < 0 {
		return StationStop{}, errorf(ErrMalformed, "stop %q: bad dwell %q", item, f[1])
	}
	pool := st.Rearward
	if forward {
		pool = st.Forward
	}
	stop := StationStop{Station: st.Name, Forward: forward, Dwell: dwell}
	if len(f) == 2 {
		stop.Tracks = append([]int(nil), pool...)
		return stop, nil
	}
	for _, is := range fields(f[2], ",") {
		i, err := strconv.Atoi(is)
		if err != nil || i < 0 || i >= len(pool) {
			return StationStop{}, errorf(ErrMalformed, "stop %q: track index %q out of range", item, is)
		}
		stop.Tracks = append(stop.Tracks, pool[i])
	}
	return stop, nil
}
