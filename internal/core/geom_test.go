package core

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestVec2Rotate(t *testing.T) {
	tests := []struct {
		name  string
		v     Vec2
		theta float64
		want  Vec2
	}{
		{"zero angle", V(3, 4), 0, V(3, 4)},
		{"quarter turn", V(1, 0), math.Pi / 2, V(0, 1)},
		{"half turn", V(2, 1), math.Pi, V(-2, -1)},
		{"negative quarter", V(0, 5), -math.Pi / 2, V(5, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.v.Rotate(tc.theta)
			if !near(got.X, tc.want.X) || !near(got.Y, tc.want.Y) {
				t.Errorf("Rotate() = %v, expected %v", got, tc.want)
			}
		})
	}
}

func TestVec2Angle(t *testing.T) {
	if a := V(0, 10).Angle(); !near(a, math.Pi/2) {
		t.Errorf("Angle() = %v, expected %v", a, math.Pi/2)
	}
	if a := V(-1, 0).Angle(); !near(a, math.Pi) {
		t.Errorf("Angle() = %v, expected %v", a, math.Pi)
	}
}

func TestVec2Dist(t *testing.T) {
	if d := V(1, 1).Dist(V(4, 5)); !near(d, 5) {
		t.Errorf("Dist() = %v, expected 5", d)
	}
}

func TestBoxFrom(t *testing.T) {
	b := BoxFrom(V(10, 2), V(4, 8))
	if b.Min != V(4, 2) || b.Max != V(10, 8) {
		t.Errorf("BoxFrom() = %+v, expected min (4,2) max (10,8)", b)
	}
	if b.Width() != 6 || b.Height() != 6 {
		t.Errorf("size = %vx%v, expected 6x6", b.Width(), b.Height())
	}
}

func TestBoxContains(t *testing.T) {
	b := BoxXYWH(0, 0, 10, 10)

	tests := []struct {
		name     string
		p        Vec2
		expected bool
	}{
		{"top-left corner", V(0, 0), true},
		{"inside", V(5, 5), true},
		{"right edge exclusive", V(10, 5), false},
		{"bottom edge exclusive", V(5, 10), false},
		{"outside left", V(-0.5, 5), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.Contains(tc.p); got != tc.expected {
				t.Errorf("Contains(%v) = %v, expected %v", tc.p, got, tc.expected)
			}
		})
	}
}

func TestBoxWithin(t *testing.T) {
	// A horizontal segment has a degenerate box; tolerance keeps it usable.
	b := BoxFrom(V(0, 100), V(200, 100))

	tests := []struct {
		name     string
		p        Vec2
		expected bool
	}{
		{"on the line", V(50, 100), true},
		{"endpoint", V(200, 100), true},
		{"inside tolerance", V(200.05, 100.05), true},
		{"past tolerance", V(200.2, 100), false},
		{"off the line", V(50, 101), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.Within(tc.p, 0.1); got != tc.expected {
				t.Errorf("Within(%v) = %v, expected %v", tc.p, got, tc.expected)
			}
		})
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 20)

	tests := []struct {
		x, y     int
		expected bool
	}{
		{10, 10, true},
		{29, 29, true},
		{30, 30, false},
		{9, 10, false},
	}

	for _, tc := range tests {
		if got := r.Contains(tc.x, tc.y); got != tc.expected {
			t.Errorf("Contains(%d, %d) = %v, expected %v", tc.x, tc.y, got, tc.expected)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, expected int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
	}

	for _, tc := range tests {
		if got := Clamp(tc.val, tc.lo, tc.hi); got != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.lo, tc.hi, got, tc.expected)
		}
	}
}
