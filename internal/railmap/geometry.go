package railmap

import (
	"math"

	"github.com/vovakirdan/signalmaster/internal/core"
)

// PointAt evaluates the track curve at u in [0,1]. Linear and Bezier shapes
// use de Casteljau's construction; Arc tracks are treated as a polyline
// through their points.
func (t Track) PointAt(u float64) core.Vec2 {
	u = math.Max(0, math.Min(1, u))
	if t.Shape == Arc {
		n := len(t.Points) - 1
		pos := u * float64(n)
		i := int(pos)
		if i >= n {
			return t.Points[n]
		}
		return t.Points[i].Lerp(t.Points[i+1], pos-float64(i))
	}
	pts := append([]core.Vec2(nil), t.Points...)
	for k := len(pts) - 1; k > 0; k-- {
		for i := 0; i < k; i++ {
			pts[i] = pts[i].Lerp(pts[i+1], u)
		}
	}
	return pts[0]
}

// Polyline approximates the track with points no further apart than step
// along its control polygon. Linear tracks return just their endpoints.
func (t Track) Polyline(step float64) []core.Vec2 {
	if t.Shape == Linear || step <= 0 {
		return append([]core.Vec2(nil), t.Points...)
	}
	hull := 0.0
	for i := 1; i < len(t.Points); i++ {
		hull += t.Points[i].Dist(t.Points[i-1])
	}
	n := max(8, int(math.Ceil(hull/step)))
	out := make([]core.Vec2, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, t.PointAt(float64(i)/float64(n)))
	}
	return out
}
