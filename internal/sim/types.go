// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package sim

import (
	"github.com/specialistvlad/ugokugo/internal/arena"
	"gonum.org/v1/gonum/spatial/r3"
)

// JointID addresses a joint inside one Simulation.
type JointID arena.Handle

// LinkID addresses a link inside one Simulation.
type LinkID arena.Handle

func (id JointID) String() string { return arena.Handle(id).String() }
func (id LinkID) String() string  { return arena.Handle(id).String() }

// ParseJointID parses the string form produced by JointID.String.
func ParseJointID(s string) (JointID, error) {
	h, err := arena.ParseHandle(s)
	return JointID(h), err
}

// ParseLinkID parses the string form produced by LinkID.String.
func ParseLinkID(s string) (LinkID, error) {
	h, err := arena.ParseHandle(s)
	return LinkID(h), err
}

// JointType is the advisory classification of a joint. The solver never reads it.
type JointType uint8

const (
	JointRevolute JointType = iota
	JointFixed
	JointSlider
)

func (t JointType) String() string {
	switch t {
	case JointRevolute:
		return "revolute"
	case JointFixed:
		return "fixed"
	case JointSlider:
		return "slider"
	default:
		return "unknown"
	}
}

// JointKind is a JointType plus the slider axis when Type is JointSlider.
type JointKind struct {
	Type JointType
	Axis r3.Vec
}

// RevoluteKind, FixedKind and SliderKind build the three joint kinds.
func RevoluteKind() JointKind          { return JointKind{Type: JointRevolute} }
func FixedKind() JointKind             { return JointKind{Type: JointFixed} }
func SliderKind(axis r3.Vec) JointKind { return JointKind{Type: JointSlider, Axis: axis} }

// Joint is a point entity. Its position is mutated by constraint application
// and by external drag input only.
type Joint struct {
	Position       Position
	Kind           JointKind
	ConnectedLinks []LinkID
}

// Link connects two joints, in declaration order.
type Link struct {
	Joints [2]JointID
	Rigid  bool
}
