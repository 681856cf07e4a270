// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// degenerateEps bounds the length below which a cross product is treated as
// having no direction.
const degenerateEps = 1e-9

// unit returns v scaled to length 1, or false when v has no direction.
func unit(v r3.Vec) (r3.Vec, bool) {
	n := r3.Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, v), true
}

// projectOntoPlane drops p onto the plane through point with the given unit normal.
func projectOntoPlane(p, point, normal r3.Vec) r3.Vec {
	return r3.Sub(p, r3.Scale(r3.Dot(r3.Sub(p, point), normal), normal))
}

// projectOntoLine drops p onto the line origin + t·dir, dir being a unit vector.
func projectOntoLine(p, origin, dir r3.Vec) r3.Vec {
	return r3.Add(origin, r3.Scale(r3.Dot(r3.Sub(p, origin), dir), dir))
}

// rodrigues rotates v by angle about the unit axis k.
func rodrigues(v, k r3.Vec, angle float64) r3.Vec {
	sin, cos := math.Sincos(angle)
	return r3.Add(
		r3.Add(r3.Scale(cos, v), r3.Scale(sin, r3.Cross(k, v))),
		r3.Scale(r3.Dot(k, v)*(1-cos), k),
	)
}

// chordLength is the law-of-cosines distance between two points at radii ra
// and rb from a pivot, separated by the included angle theta.
func chordLength(ra, rb, theta float64) float64 {
	sq := ra*ra + rb*rb - 2*ra*rb*math.Cos(theta)
	if sq < 0 {
		// rounding when ra == rb and theta == 0
		sq = 0
	}
	return math.Sqrt(sq)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
