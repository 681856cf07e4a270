package compiler

import (
	"slices"

	"github.com/specialistvlad/ugokugo/internal/sim"
)

// Symbols maps the declared names of one compiled program to their handles
// and back. A nil *Symbols resolves nothing.
type Symbols struct {
	joints     map[string]sim.JointID
	links      map[string]sim.LinkID
	jointNames map[sim.JointID]string
	linkNames  map[sim.LinkID]string
	jointOrder []string
	linkOrder  []string
}

func newSymbols() *Symbols {
	return &Symbols{
		joints:     make(map[string]sim.JointID),
		links:      make(map[string]sim.LinkID),
		jointNames: make(map[sim.JointID]string),
		linkNames:  make(map[sim.LinkID]string),
	}
}

func (s *Symbols) addJoint(name string, id sim.JointID) {
	s.joints[name] = id
	s.jointNames[id] = name
	s.jointOrder = append(s.jointOrder, name)
}

func (s *Symbols) addLink(name string, id sim.LinkID) {
	s.links[name] = id
	s.linkNames[id] = name
	s.linkOrder = append(s.linkOrder, name)
}

// Joint looks up a joint handle by name.
func (s *Symbols) Joint(name string) (sim.JointID, bool) {
	if s == nil {
		return sim.JointID{}, false
	}
	id, ok := s.joints[name]
	return id, ok
}

// Link looks up a link handle by name.
func (s *Symbols) Link(name string) (sim.LinkID, bool) {
	if s == nil {
		return sim.LinkID{}, false
	}
	id, ok := s.links[name]
	return id, ok
}

// JointName returns the declared name of a joint handle.
func (s *Symbols) JointName(id sim.JointID) (string, bool) {
	if s == nil {
		return "", false
	}
	name, ok := s.jointNames[id]
	return name, ok
}

// LinkName returns the declared name of a link handle.
func (s *Symbols) LinkName(id sim.LinkID) (string, bool) {
	if s == nil {
		return "", false
	}
	name, ok := s.linkNames[id]
	return name, ok
}

// JointNames returns joint names in declaration order.
func (s *Symbols) JointNames() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.jointOrder)
}

// LinkNames returns link names in declaration order.
func (s *Symbols) LinkNames() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.linkOrder)
}
