// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Dim is the dimensionality tag of a Position.
type Dim uint8

const (
	Dim2 Dim = 2
	Dim3 Dim = 3
)

// Position is either a planar or a spatial point. Geometry is always computed
// on the promoted 3-D vector (z = 0 for planar points).
type Position struct {
	v    r3.Vec
	is3D bool
}

// Planar returns a 2-D position.
func Planar(v r2.Vec) Position {
	return Position{v: r3.Vec{X: v.X, Y: v.Y}}
}

// Spatial returns a 3-D position.
func Spatial(v r3.Vec) Position {
	return Position{v: v, is3D: true}
}

// XY is shorthand for Planar(r2.Vec{X: x, Y: y}).
func XY(x, y float64) Position {
	return Planar(r2.Vec{X: x, Y: y})
}

// XYZ is shorthand for Spatial(r3.Vec{X: x, Y: y, Z: z}).
func XYZ(x, y, z float64) Position {
	return Spatial(r3.Vec{X: x, Y: y, Z: z})
}

// Dim returns Dim3 for spatial positions and Dim2 otherwise.
func (p Position) Dim() Dim {
	if p.is3D {
		return Dim3
	}
	return Dim2
}

// Is3D reports whether p is a spatial position.
func (p Position) Is3D() bool {
	return p.is3D
}

// Vec3 returns p promoted to 3-D.
func (p Position) Vec3() r3.Vec {
	return p.v
}

// Vec2 returns the x and y components of p.
func (p Position) Vec2() r2.Vec {
	return r2.Vec{X: p.v.X, Y: p.v.Y}
}

// Components returns the coordinates in declaration form: two values for a
// planar position, three for a spatial one.
func (p Position) Components() []float64 {
	if p.is3D {
		return []float64{p.v.X, p.v.Y, p.v.Z}
	}
	return []float64{p.v.X, p.v.Y}
}

// ApproxEqual compares the promoted vectors component-wise within tol.
func (p Position) ApproxEqual(q Position, tol float64) bool {
	a, b := p.v, q.v
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func (p Position) String() string {
	if p.is3D {
		return fmt.Sprintf("(%g, %g, %g)", p.v.X, p.v.Y, p.v.Z)
	}
	return fmt.Sprintf("(%g, %g)", p.v.X, p.v.Y)
}
