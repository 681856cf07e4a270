// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package sim

import "gonum.org/v1/gonum/spatial/r3"

// Tolerances used by IsSatisfied.
const (
	LinearTolerance     = 1e-6
	FixedAngleTolerance = 1e-4
	RevoluteTolerance   = 1e-5
)

// ConstraintKind names one of the seven constraint variants.
type ConstraintKind uint8

const (
	KindFixedPosition ConstraintKind = iota
	KindDistance
	KindPlane
	KindPrismaticVector
	KindPrismaticLink
	KindFixedAngle
	KindRevolute
)

func (k ConstraintKind) String() string {
	switch k {
	case KindFixedPosition:
		return "fixed"
	case KindDistance:
		return "distance"
	case KindPlane:
		return "plane"
	case KindPrismaticVector:
		return "prismatic_vector"
	case KindPrismaticLink:
		return "prismatic_link"
	case KindFixedAngle:
		return "fixed_angle"
	case KindRevolute:
		return "revolute"
	default:
		return "unknown"
	}
}

// Constraint is the closed set of constraint variants. Only the types in this
// file implement it; Apply and IsSatisfied switch over them exhaustively.
type Constraint interface {
	Kind() ConstraintKind
	refs() ([]JointID, []LinkID)
}

// FixedPosition pins a joint to a target captured at compile time.
type FixedPosition struct {
	Joint  JointID
	Target Position
}

// Distance keeps two joints Target apart.
type Distance struct {
	A, B   JointID
	Target float64
}

// Plane keeps a joint on the plane through Point with normal Normal.
// Normal need not be unit length; only its direction is used.
type Plane struct {
	Joint  JointID
	Normal r3.Vec
	Point  r3.Vec
}

// PrismaticVector keeps a joint on the line Origin + t·Axis.
type PrismaticVector struct {
	Joint  JointID
	Axis   r3.Vec
	Origin r3.Vec
}

// PrismaticLink keeps a joint on the line through Origin parallel to Link.
// The axis is recomputed from the link's endpoints on every call.
type PrismaticLink struct {
	Joint  JointID
	Link   LinkID
	Origin r3.Vec
}

// FixedAngle holds the included angle A-Pivot-C at Angle radians by driving
// the A-C chord toward its law-of-cosines length.
type FixedAngle struct {
	A, Pivot, C JointID
	Angle       float64
}

// Revolute limits the signed angle between Rest and Moving-Pivot to [Min, Max].
type Revolute struct {
	Pivot, Moving JointID
	Rest          r3.Vec
	Min, Max      float64
}

func (FixedPosition) Kind() ConstraintKind   { return KindFixedPosition }
func (Distance) Kind() ConstraintKind        { return KindDistance }
func (Plane) Kind() ConstraintKind           { return KindPlane }
func (PrismaticVector) Kind() ConstraintKind { return KindPrismaticVector }
func (PrismaticLink) Kind() ConstraintKind   { return KindPrismaticLink }
func (FixedAngle) Kind() ConstraintKind      { return KindFixedAngle }
func (Revolute) Kind() ConstraintKind        { return KindRevolute }

func (c FixedPosition) refs() ([]JointID, []LinkID)   { return []JointID{c.Joint}, nil }
func (c Distance) refs() ([]JointID, []LinkID)        { return []JointID{c.A, c.B}, nil }
func (c Plane) refs() ([]JointID, []LinkID)           { return []JointID{c.Joint}, nil }
func (c PrismaticVector) refs() ([]JointID, []LinkID) { return []JointID{c.Joint}, nil }
func (c PrismaticLink) refs() ([]JointID, []LinkID) {
	return []JointID{c.Joint}, []LinkID{c.Link}
}
func (c FixedAngle) refs() ([]JointID, []LinkID) { return []JointID{c.A, c.Pivot, c.C}, nil }
func (c Revolute) refs() ([]JointID, []LinkID)   { return []JointID{c.Pivot, c.Moving}, nil }

// Joints returns the joints referenced by c, in field order.
func Joints(c Constraint) []JointID {
	joints, _ := c.refs()
	return joints
}
