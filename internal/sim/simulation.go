// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package sim

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/specialistvlad/ugokugo/internal/arena"
)

var (
	// ErrUnknownJoint is returned when a JointID does not resolve.
	ErrUnknownJoint = errors.New("unknown joint")
	// ErrUnknownLink is returned when a LinkID does not resolve.
	ErrUnknownLink = errors.New("unknown link")
	// ErrDanglingHandle is returned when a link or constraint would reference
	// an entity that is not part of the simulation.
	ErrDanglingHandle = errors.New("dangling handle")
)

// Simulation owns the joint store, the link store and the ordered constraint list.
type Simulation struct {
	name        string
	joints      *arena.Arena[Joint]
	links       *arena.Arena[Link]
	constraints []Constraint
}

// New creates an empty simulation.
func New(name string) *Simulation {
	return NewSized(name, 0, 0)
}

// NewSized is like New but reserves room for the given numbers of joints and links.
func NewSized(name string, joints, links int) *Simulation {
	return &Simulation{
		name:   name,
		joints: arena.WithCapacity[Joint](joints),
		links:  arena.WithCapacity[Link](links),
	}
}

// Name returns the program name the simulation was compiled from.
func (s *Simulation) Name() string {
	return s.name
}

// AddJoint stores a new joint with no connected links.
func (s *Simulation) AddJoint(pos Position, kind JointKind) JointID {
	return JointID(s.joints.Insert(Joint{Position: pos, Kind: kind}))
}

// AddLink stores a rigid link between a and b and records it on both joints.
// A link whose endpoints are the same joint is recorded on that joint twice.
func (s *Simulation) AddLink(a, b JointID) (LinkID, error) {
	if !s.joints.Contains(arena.Handle(a)) {
		return LinkID{}, fmt.Errorf("%w: link endpoint %s: %w", ErrDanglingHandle, a, ErrUnknownJoint)
	}
	if !s.joints.Contains(arena.Handle(b)) {
		return LinkID{}, fmt.Errorf("%w: link endpoint %s: %w", ErrDanglingHandle, b, ErrUnknownJoint)
	}

	id := LinkID(s.links.Insert(Link{Joints: [2]JointID{a, b}, Rigid: true}))
	ja, _ := s.joint(a)
	ja.ConnectedLinks = append(ja.ConnectedLinks, id)
	jb, _ := s.joint(b)
	jb.ConnectedLinks = append(jb.ConnectedLinks, id)
	return id, nil
}

// AddConstraint appends c to the constraint list. Order is significant.
func (s *Simulation) AddConstraint(c Constraint) error {
	joints, links := c.refs()
	for _, id := range joints {
		if !s.joints.Contains(arena.Handle(id)) {
			return fmt.Errorf("%w: %s constraint references joint %s", ErrDanglingHandle, c.Kind(), id)
		}
	}
	for _, id := range links {
		if !s.links.Contains(arena.Handle(id)) {
			return fmt.Errorf("%w: %s constraint references link %s", ErrDanglingHandle, c.Kind(), id)
		}
	}
	s.constraints = append(s.constraints, c)
	return nil
}

// Joint returns a copy of the joint addressed by id.
func (s *Simulation) Joint(id JointID) (Joint, bool) {
	j, ok := s.joint(id)
	if !ok {
		return Joint{}, false
	}
	out := *j
	out.ConnectedLinks = slices.Clone(j.ConnectedLinks)
	return out, true
}

// Link returns the link addressed by id.
func (s *Simulation) Link(id LinkID) (Link, bool) {
	l, ok := s.links.Get(arena.Handle(id))
	if !ok {
		return Link{}, false
	}
	return *l, true
}

// Joints iterates all joints in store order.
func (s *Simulation) Joints() iter.Seq2[JointID, Joint] {
	return func(yield func(JointID, Joint) bool) {
		for h, j := range s.joints.All() {
			out := *j
			out.ConnectedLinks = slices.Clone(j.ConnectedLinks)
			if !yield(JointID(h), out) {
				return
			}
		}
	}
}

// Links iterates all links in store order.
func (s *Simulation) Links() iter.Seq2[LinkID, Link] {
	return func(yield func(LinkID, Link) bool) {
		for h, l := range s.links.All() {
			if !yield(LinkID(h), *l) {
				return
			}
		}
	}
}

// JointCount returns the number of joints.
func (s *Simulation) JointCount() int { return s.joints.Len() }

// LinkCount returns the number of links.
func (s *Simulation) LinkCount() int { return s.links.Len() }

// Constraints returns a copy of the ordered constraint list.
func (s *Simulation) Constraints() []Constraint {
	return slices.Clone(s.constraints)
}

// SetJointPosition overwrites a joint's position. It is the entry point for
// drag input and must not be called while Step is running.
func (s *Simulation) SetJointPosition(id JointID, pos Position) error {
	j, ok := s.joint(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJoint, id)
	}
	j.Position = pos
	return nil
}

// SetJointKind replaces the advisory kind of a joint.
func (s *Simulation) SetJointKind(id JointID, kind JointKind) error {
	j, ok := s.joint(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJoint, id)
	}
	j.Kind = kind
	return nil
}

func (s *Simulation) joint(id JointID) (*Joint, bool) {
	return s.joints.Get(arena.Handle(id))
}

func (s *Simulation) position(id JointID) (Position, bool) {
	j, ok := s.joint(id)
	if !ok {
		return Position{}, false
	}
	return j.Position, true
}
