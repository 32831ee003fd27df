// Package geom provides the 2-D vector math used for player positioning.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Vec2 is a 2-D position or velocity in map units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zero returns the zero vector.
func Zero() Vec2 { return Vec2{} }

func (v Vec2) point() r2.Point { return r2.Point{X: v.X, Y: v.Y} }

func fromPoint(p r2.Point) Vec2 { return Vec2{X: p.X, Y: p.Y} }

func (v Vec2) Add(o Vec2) Vec2 { return fromPoint(v.point().Add(o.point())) }

func (v Vec2) Sub(o Vec2) Vec2 { return fromPoint(v.point().Sub(o.point())) }

func (v Vec2) Mul(s float64) Vec2 { return fromPoint(v.point().Mul(s)) }

// Div divides by s. Division by zero yields the zero vector.
func (v Vec2) Div(s float64) Vec2 {
	if s == 0 {
		return Vec2{}
	}
	return v.Mul(1 / s)
}

// Len returns the Euclidean length.
func (v Vec2) Len() float64 { return v.point().Norm() }

// Normalize returns the unit vector in the same direction; the zero vector maps to itself.
func (v Vec2) Normalize() Vec2 { return fromPoint(v.point().Normalize()) }

// Perp returns v rotated 90° counter-clockwise.
func (v Vec2) Perp() Vec2 { return fromPoint(v.point().Ortho()) }

// Cross returns the z component of the 3-D cross product v × o.
func (v Vec2) Cross(o Vec2) float64 { return v.point().Cross(o.point()) }

func (v Vec2) Dot(o Vec2) float64 { return v.point().Dot(o.point()) }

// Dist returns the distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

func (v Vec2) Clone() Vec2 { return Vec2{X: v.X, Y: v.Y} }

// IsFinite reports whether neither component is NaN or infinite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Centroid returns the mean of pts. ok is false for an empty slice.
func Centroid(pts []Vec2) (c Vec2, ok bool) {
	if len(pts) == 0 {
		return Vec2{}, false
	}
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Div(float64(len(pts))), true
}
