package spatialmath

import "math"

// Polygon2D is a convex polygon in the XY plane, vertices in order. It backs
// the ZMP support region, the rotated landing support regions, and the
// kinematic-reachability region for foot placement.
type Polygon2D struct {
	Vertices [][2]float64
}

// Rectangle builds an axis-aligned rectangle centered at the origin with
// the given half-widths, the shape every support-foot polygon starts from
// before it is shrunk by the security margin and rotated into F_q.
func Rectangle(halfX, halfY float64) Polygon2D {
	return Polygon2D{Vertices: [][2]float64{
		{halfX, halfY},
		{-halfX, halfY},
		{-halfX, -halfY},
		{halfX, -halfY},
	}}
}

// Shrink moves every edge inward by the security margins (marginX, marginY
// in the rectangle's local axes). Only valid for axis-aligned rectangles
// built with Rectangle; shrinking a general polygon is not needed by the
// spec.
func (p Polygon2D) Shrink(marginX, marginY float64) Polygon2D {
	out := Polygon2D{Vertices: make([][2]float64, len(p.Vertices))}
	for i, v := range p.Vertices {
		out.Vertices[i] = [2]float64{
			v[0] - math.Copysign(marginX, v[0]),
			v[1] - math.Copysign(marginY, v[1]),
		}
	}
	return out
}

// Transform rotates the polygon by yaw (radians) and translates it by
// (x, y), turning a foot-local polygon into one expressed in the world
// frame — the "rotated, possibly sloped polygon whose reference frame is
// F_q" from spec.md §4.1.
func (p Polygon2D) Transform(x, y, yaw float64) Polygon2D {
	c, s := math.Cos(yaw), math.Sin(yaw)
	out := Polygon2D{Vertices: make([][2]float64, len(p.Vertices))}
	for i, v := range p.Vertices {
		out.Vertices[i] = [2]float64{
			x + c*v[0] - s*v[1],
			y + s*v[0] + c*v[1],
		}
	}
	return out
}

// HalfPlanes returns, for each edge (in counter-clockwise order), the
// outward normal (a, b) and offset c such that a*px + b*py <= c holds for
// every point strictly inside the polygon. This is the linear form the QP
// constraint assembly needs: one row per edge.
func (p Polygon2D) HalfPlanes() (a, b, c []float64) {
	n := len(p.Vertices)
	a = make([]float64, n)
	b = make([]float64, n)
	c = make([]float64, n)
	// Determine orientation so normals point outward regardless of how the
	// caller wound the vertices.
	signedArea := 0.0
	for i := 0; i < n; i++ {
		v0 := p.Vertices[i]
		v1 := p.Vertices[(i+1)%n]
		signedArea += v0[0]*v1[1] - v1[0]*v0[1]
	}
	ccw := signedArea > 0
	for i := 0; i < n; i++ {
		v0 := p.Vertices[i]
		v1 := p.Vertices[(i+1)%n]
		ex, ey := v1[0]-v0[0], v1[1]-v0[1]
		var nx, ny float64
		if ccw {
			nx, ny = ey, -ex
		} else {
			nx, ny = -ey, ex
		}
		norm := math.Hypot(nx, ny)
		if norm < 1e-12 {
			continue
		}
		nx, ny = nx/norm, ny/norm
		a[i], b[i] = nx, ny
		c[i] = nx*v0[0] + ny*v0[1]
	}
	return a, b, c
}

// Contains reports whether (x, y) lies inside or on the polygon boundary
// (within tol), using the same half-plane representation as HalfPlanes.
func (p Polygon2D) Contains(x, y, tol float64) bool {
	a, b, c := p.HalfPlanes()
	for i := range a {
		if a[i]*x+b[i]*y > c[i]+tol {
			return false
		}
	}
	return true
}
