package geom

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func TestVecArithmetic(t *testing.T) {
	a := Vec2{X: 3, Y: 4}
	b := Vec2{X: 1, Y: -2}

	if got := a.Add(b); got != (Vec2{X: 4, Y: 2}) {
		t.Errorf("Add: got %+v", got)
	}
	if got := a.Sub(b); got != (Vec2{X: 2, Y: 6}) {
		t.Errorf("Sub: got %+v", got)
	}
	if got := a.Mul(2); got != (Vec2{X: 6, Y: 8}) {
		t.Errorf("Mul: got %+v", got)
	}
	if got := a.Div(2); got != (Vec2{X: 1.5, Y: 2}) {
		t.Errorf("Div: got %+v", got)
	}
	if !approx(a.Len(), 5) {
		t.Errorf("Len: want 5, got %f", a.Len())
	}
}

func TestDivByZeroIsZero(t *testing.T) {
	if got := (Vec2{X: 1, Y: 1}).Div(0); got != Zero() {
		t.Errorf("expected zero vector, got %+v", got)
	}
}

func TestNormalize(t *testing.T) {
	n := Vec2{X: 3, Y: 4}.Normalize()
	if !approx(n.Len(), 1) {
		t.Errorf("expected unit length, got %f", n.Len())
	}
	if got := Zero().Normalize(); got != Zero() {
		t.Errorf("zero vector should normalize to zero, got %+v", got)
	}
}

func TestPerpAndCross(t *testing.T) {
	x := Vec2{X: 1}
	if got := x.Perp(); !approx(got.X, 0) || !approx(got.Y, 1) {
		t.Errorf("Perp of +x should be +y, got %+v", got)
	}
	if c := x.Cross(Vec2{Y: 1}); !approx(c, 1) {
		t.Errorf("x × y: want 1, got %f", c)
	}
	if c := (Vec2{Y: 1}).Cross(x); !approx(c, -1) {
		t.Errorf("y × x: want -1, got %f", c)
	}
}

func TestCentroid(t *testing.T) {
	c, ok := Centroid([]Vec2{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 3}})
	if !ok || !approx(c.X, 1) || !approx(c.Y, 1) {
		t.Errorf("centroid: got %+v ok=%v", c, ok)
	}
	if _, ok := Centroid(nil); ok {
		t.Error("empty centroid should not be ok")
	}
}

func TestClone(t *testing.T) {
	a := Vec2{X: 1, Y: 2}
	b := a.Clone()
	b.X = 9
	if a.X != 1 {
		t.Error("clone must not alias")
	}
}
