// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Step relaxes the constraint graph with 2×iterations sequential passes.
// dt is accepted for a future dynamics layer and is not read.
func (s *Simulation) Step(dt float64, iterations int) {
	passes := iterations * 2
	for i := 0; i < passes; i++ {
		s.SolveConstraints()
	}
}

// SolveConstraints applies every constraint once, in order. The list is
// detached while it runs, so constraints only ever see the joint store.
func (s *Simulation) SolveConstraints() {
	constraints := s.constraints
	s.constraints = nil
	for _, c := range constraints {
		s.Apply(c)
	}
	s.constraints = constraints
}

// Apply moves the referenced joints toward satisfying c.
func (s *Simulation) Apply(c Constraint) {
	switch c := c.(type) {
	case FixedPosition:
		s.applyFixed(c)
	case Distance:
		s.applyDistance(c)
	case Plane:
		s.applyPlane(c)
	case PrismaticVector:
		s.applyPrismatic(c.Joint, c.Axis, c.Origin)
	case PrismaticLink:
		if axis, ok := s.linkAxis(c.Link); ok {
			s.applyPrismatic(c.Joint, axis, c.Origin)
		}
	case FixedAngle:
		s.applyFixedAngle(c)
	case Revolute:
		s.applyRevolute(c)
	}
}

// IsSatisfied reports whether c currently holds within its tolerance.
func (s *Simulation) IsSatisfied(c Constraint) bool {
	switch c := c.(type) {
	case FixedPosition:
		p, ok := s.position(c.Joint)
		return ok && p.ApproxEqual(c.Target, LinearTolerance)
	case Distance:
		return s.distanceSatisfied(c)
	case Plane:
		return s.planeSatisfied(c)
	case PrismaticVector:
		return s.prismaticSatisfied(c.Joint, c.Axis, c.Origin)
	case PrismaticLink:
		axis, ok := s.linkAxis(c.Link)
		return ok && s.prismaticSatisfied(c.Joint, axis, c.Origin)
	case FixedAngle:
		return s.fixedAngleSatisfied(c)
	case Revolute:
		angle, ok := c.SignedAngle(s)
		return ok && angle >= c.Min-RevoluteTolerance && angle <= c.Max+RevoluteTolerance
	default:
		return false
	}
}

// ConstraintStatus is one line of a Report.
type ConstraintStatus struct {
	Index     int
	Kind      ConstraintKind
	Joints    []JointID
	Satisfied bool
}

// Report evaluates every constraint in list order.
func (s *Simulation) Report() []ConstraintStatus {
	out := make([]ConstraintStatus, 0, len(s.constraints))
	for i, c := range s.constraints {
		out = append(out, ConstraintStatus{
			Index:     i,
			Kind:      c.Kind(),
			Joints:    Joints(c),
			Satisfied: s.IsSatisfied(c),
		})
	}
	return out
}

// Satisfied reports whether every constraint holds.
func (s *Simulation) Satisfied() bool {
	for _, c := range s.constraints {
		if !s.IsSatisfied(c) {
			return false
		}
	}
	return true
}

func (s *Simulation) applyFixed(c FixedPosition) {
	if j, ok := s.joint(c.Joint); ok {
		j.Position = c.Target
	}
}

func (s *Simulation) applyDistance(c Distance) {
	if c.A == c.B {
		return
	}
	ja, okA := s.joint(c.A)
	jb, okB := s.joint(c.B)
	if !okA || !okB {
		return
	}

	a, b := ja.Position.Vec3(), jb.Position.Vec3()
	delta := r3.Sub(b, a)
	length := r3.Norm(delta)
	diff := length - c.Target
	if math.Abs(diff) <= LinearTolerance || length <= 0 {
		return
	}

	correction := r3.Scale(0.5*diff/length, delta)
	ja.Position = Spatial(r3.Add(a, correction))
	jb.Position = Spatial(r3.Sub(b, correction))
}

func (s *Simulation) distanceSatisfied(c Distance) bool {
	a, okA := s.position(c.A)
	b, okB := s.position(c.B)
	if !okA || !okB {
		return false
	}
	return math.Abs(r3.Norm(r3.Sub(b.Vec3(), a.Vec3()))-c.Target) < LinearTolerance
}

func (s *Simulation) applyPlane(c Plane) {
	j, ok := s.joint(c.Joint)
	if !ok {
		return
	}
	n, ok := unit(c.Normal)
	if !ok {
		return
	}
	j.Position = Spatial(projectOntoPlane(j.Position.Vec3(), c.Point, n))
}

func (s *Simulation) planeSatisfied(c Plane) bool {
	p, ok := s.position(c.Joint)
	if !ok {
		return false
	}
	n, ok := unit(c.Normal)
	if !ok {
		return false
	}
	return math.Abs(r3.Dot(r3.Sub(p.Vec3(), c.Point), n)) < LinearTolerance
}

func (s *Simulation) applyPrismatic(id JointID, axis, origin r3.Vec) {
	j, ok := s.joint(id)
	if !ok {
		return
	}
	dir, ok := unit(axis)
	if !ok {
		return
	}
	j.Position = Spatial(projectOntoLine(j.Position.Vec3(), origin, dir))
}

func (s *Simulation) prismaticSatisfied(id JointID, axis, origin r3.Vec) bool {
	p, ok := s.position(id)
	if !ok {
		return false
	}
	dir, ok := unit(axis)
	if !ok {
		return false
	}
	v := p.Vec3()
	return r3.Norm(r3.Sub(v, projectOntoLine(v, origin, dir))) < LinearTolerance
}

// linkAxis returns the un-normalized vector from a link's first endpoint to
// its second.
func (s *Simulation) linkAxis(id LinkID) (r3.Vec, bool) {
	l, ok := s.Link(id)
	if !ok {
		return r3.Vec{}, false
	}
	a, okA := s.position(l.Joints[0])
	b, okB := s.position(l.Joints[1])
	if !okA || !okB {
		return r3.Vec{}, false
	}
	return r3.Sub(b.Vec3(), a.Vec3()), true
}

// Chord returns the A-C distance implied by the current radii and the target angle.
func (c FixedAngle) Chord(s *Simulation) (float64, bool) {
	p, okP := s.position(c.Pivot)
	a, okA := s.position(c.A)
	cc, okC := s.position(c.C)
	if !okP || !okA || !okC {
		return 0, false
	}
	ra := r3.Norm(r3.Sub(a.Vec3(), p.Vec3()))
	rb := r3.Norm(r3.Sub(cc.Vec3(), p.Vec3()))
	return chordLength(ra, rb, c.Angle), true
}

func (s *Simulation) applyFixedAngle(c FixedAngle) {
	if c.A == c.C {
		return
	}
	target, ok := c.Chord(s)
	if !ok {
		return
	}
	s.applyDistance(Distance{A: c.A, B: c.C, Target: target})
}

func (s *Simulation) fixedAngleSatisfied(c FixedAngle) bool {
	target, ok := c.Chord(s)
	if !ok {
		return false
	}
	a, _ := s.position(c.A)
	cc, _ := s.position(c.C)
	return math.Abs(r3.Norm(r3.Sub(cc.Vec3(), a.Vec3()))-target) < FixedAngleTolerance
}

// revoluteFrame is the geometry shared by Revolute's Apply and IsSatisfied.
type revoluteFrame struct {
	pivot  r3.Vec
	radius float64
	rest   r3.Vec // unit
	normal r3.Vec // unit; zero when planar is false
	planar bool
	angle  float64
}

func (c Revolute) frame(s *Simulation) (revoluteFrame, bool) {
	if c.Pivot == c.Moving {
		return revoluteFrame{}, false
	}
	p, okP := s.position(c.Pivot)
	m, okM := s.position(c.Moving)
	if !okP || !okM {
		return revoluteFrame{}, false
	}

	offset := r3.Sub(m.Vec3(), p.Vec3())
	current, ok := unit(offset)
	if !ok {
		return revoluteFrame{}, false
	}
	rest, ok := unit(c.Rest)
	if !ok {
		return revoluteFrame{}, false
	}

	f := revoluteFrame{pivot: p.Vec3(), radius: r3.Norm(offset), rest: rest}
	cross := r3.Cross(rest, current)
	if r3.Norm(cross) > degenerateEps {
		f.normal, f.planar = unit(cross)
	}
	f.angle = math.Acos(clamp(r3.Dot(rest, current), -1, 1))
	if f.planar && r3.Dot(cross, f.normal) < 0 {
		f.angle = -f.angle
	}
	return f, true
}

// SignedAngle returns the current angle between the rest axis and Moving-Pivot.
func (c Revolute) SignedAngle(s *Simulation) (float64, bool) {
	f, ok := c.frame(s)
	if !ok {
		return 0, false
	}
	return f.angle, true
}

func (s *Simulation) applyRevolute(c Revolute) {
	f, ok := c.frame(s)
	if !ok || !f.planar {
		return
	}
	if f.angle >= c.Min && f.angle <= c.Max {
		return
	}

	clamped := clamp(f.angle, c.Min, c.Max)
	dir := rodrigues(f.rest, f.normal, clamped)
	j, _ := s.joint(c.Moving)
	j.Position = Spatial(r3.Add(f.pivot, r3.Scale(f.radius, dir)))
}
