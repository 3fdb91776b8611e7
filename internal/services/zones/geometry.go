package zones

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

// OrderClockwise sorts the vertices by angle around their centroid so the
// same vertex set always yields the same sequence, whatever order the points
// were clicked in. In image coordinates (y grows downwards) ascending atan2
// is clockwise on screen.
func OrderClockwise(points []models.Point) []models.Point {
	out := make([]models.Point, len(points))
	copy(out, points)
	if len(out) < 2 {
		return out
	}

	// Sum in a fixed order so the centroid is bit-identical for any permutation.
	sort.Slice(out, func(i, j int) bool { return lexLess(out[i], out[j]) })
	cx := stat.Mean(lo.Map(out, func(p models.Point, _ int) float64 { return p.X }), nil)
	cy := stat.Mean(lo.Map(out, func(p models.Point, _ int) float64 { return p.Y }), nil)

	angle := func(p models.Point) float64 { return math.Atan2(p.Y-cy, p.X-cx) }
	dist := func(p models.Point) float64 { return math.Hypot(p.X-cx, p.Y-cy) }

	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := angle(out[i]), angle(out[j])
		if ai != aj {
			return ai < aj
		}
		di, dj := dist(out[i]), dist(out[j])
		if di != dj {
			return di < dj
		}
		return lexLess(out[i], out[j])
	})
	return out
}

func lexLess(a, b models.Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Intersects reports whether the closed polygon and the closed square of
// half-width margin centred at p share at least one point. Touching counts.
func Intersects(polygon []models.Point, p models.Point, margin float64) bool {
	if len(polygon) == 0 {
		return false
	}
	center := r2.Point{X: p.X, Y: p.Y}
	rect := r2.RectFromCenterSize(center, r2.Point{X: 2 * margin, Y: 2 * margin})

	verts := lo.Map(polygon, func(v models.Point, _ int) r2.Point { return r2.Point{X: v.X, Y: v.Y} })

	// Polygon reaches into the square.
	for _, v := range verts {
		if rect.ContainsPoint(v) {
			return true
		}
	}
	// Square sits inside the polygon.
	if pointInPolygon(verts, center) {
		return true
	}
	// Boundaries cross.
	corners := rect.Vertices()
	for i := range verts {
		a, b := verts[i], verts[(i+1)%len(verts)]
		for k := range corners {
			if segmentsIntersect(a, b, corners[k], corners[(k+1)%4]) {
				return true
			}
		}
	}
	return false
}

// pointInPolygon is the even-odd ray cast. Points exactly on an edge are
// covered by the segment test in Intersects.
func pointInPolygon(verts []r2.Point, p r2.Point) bool {
	inside := false
	for i, j := 0, len(verts)-1; i < len(verts); j, i = i, i+1 {
		a, b := verts[i], verts[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func orientation(a, b, c r2.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func onSegment(a, b, p r2.Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// segmentsIntersect is inclusive: shared endpoints and collinear overlap count.
func segmentsIntersect(p1, p2, q1, q2 r2.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}
