// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package ast is the name-keyed form of a mechanism program. It exists only
// between parsing and compilation: every reference is still a name, and every
// node remembers where in the source it came from so the compiler can point
// at the offending declaration.
package ast

import (
	"github.com/hashicorp/hcl/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Program is one parsed source file.
type Program struct {
	Name        string
	NameRange   hcl.Range
	Joints      []*JointDecl
	Links       []*LinkDecl
	Constraints []ConstraintDecl
}

// Ident is a name reference together with its source range.
type Ident struct {
	Name  string
	Range hcl.Range
}

// JointDecl declares a joint at two (planar) or three (spatial) coordinates.
type JointDecl struct {
	Name   Ident
	Coords []float64
	Range  hcl.Range
}

// Is3D reports whether the declaration carried an explicit z coordinate.
func (d *JointDecl) Is3D() bool {
	return len(d.Coords) == 3
}

// LinkDecl declares a link between two joints, in order.
type LinkDecl struct {
	Name   Ident
	JointA Ident
	JointB Ident
	Range  hcl.Range
}

// ConstraintDecl is implemented by the seven constraint declaration forms.
type ConstraintDecl interface {
	// Keyword returns the DSL keyword that introduced the declaration.
	Keyword() string
	DeclRange() hcl.Range
	constraintDecl()
}

// Decl carries the source range shared by every constraint declaration.
type Decl struct {
	Range hcl.Range
}

func (d Decl) DeclRange() hcl.Range { return d.Range }
func (Decl) constraintDecl()        {}

// DistanceDecl is `distance(a, b) = value`.
type DistanceDecl struct {
	Decl
	A, B  Ident
	Value float64
}

// FixedDecl is `fixed(joint...)`.
type FixedDecl struct {
	Decl
	Joints []Ident
}

// PlaneDecl is `plane(joint...) normal=<axis-or-vector> [point=<vector>]`.
// Point is nil when omitted.
type PlaneDecl struct {
	Decl
	Joints []Ident
	Normal r3.Vec
	Point  *r3.Vec
}

// PrismaticVectorDecl is `prismatic_vector(joint...) axis=<axis-or-vector> origin=<vector>`.
type PrismaticVectorDecl struct {
	Decl
	Joints []Ident
	Axis   r3.Vec
	Origin r3.Vec
}

// PrismaticLinkDecl is `prismatic_link(joint...) link=<name> origin=<vector>`.
type PrismaticLinkDecl struct {
	Decl
	Joints []Ident
	Link   Ident
	Origin r3.Vec
}

// FixedAngleDecl is `fixed_angle(a, pivot, c) = <number><unit>`. Angle is in radians.
type FixedAngleDecl struct {
	Decl
	A, Pivot, C Ident
	Angle       float64
}

// RevoluteDecl is `revolute(pivot, moving) axis=<axis-or-vector> min=<n> max=<n>`.
type RevoluteDecl struct {
	Decl
	Pivot, Moving Ident
	Axis          r3.Vec
	Min, Max      float64
}

func (*DistanceDecl) Keyword() string        { return "distance" }
func (*FixedDecl) Keyword() string           { return "fixed" }
func (*PlaneDecl) Keyword() string           { return "plane" }
func (*PrismaticVectorDecl) Keyword() string { return "prismatic_vector" }
func (*PrismaticLinkDecl) Keyword() string   { return "prismatic_link" }
func (*FixedAngleDecl) Keyword() string      { return "fixed_angle" }
func (*RevoluteDecl) Keyword() string        { return "revolute" }
