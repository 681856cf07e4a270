// Package snapshot captures the viewer-facing state of a simulation: joint
// positions, link endpoints and per-constraint satisfaction. Snapshots are
// plain values; encoders in this package write them as YAML or text.
package snapshot

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/specialistvlad/ugokugo/internal/sim"
)

// Names resolves handles back to declared names. *compiler.Symbols satisfies it.
type Names interface {
	JointName(sim.JointID) (string, bool)
	LinkName(sim.LinkID) (string, bool)
}

// Snapshot is the state of one simulation at a point in time.
type Snapshot struct {
	Name        string       `yaml:"name" json:"name"`
	Satisfied   bool         `yaml:"satisfied" json:"satisfied"`
	Joints      []Joint      `yaml:"joints" json:"joints"`
	Links       []Link       `yaml:"links,omitempty" json:"links,omitempty"`
	Constraints []Constraint `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// Joint is a joint entry. Position has two components for planar joints
// and three for spatial ones.
type Joint struct {
	ID       string    `yaml:"id" json:"id"`
	Name     string    `yaml:"name,omitempty" json:"name,omitempty"`
	Kind     string    `yaml:"kind" json:"kind"`
	Axis     []float64 `yaml:"axis,omitempty,flow" json:"axis,omitempty"`
	Position []float64 `yaml:"position,flow" json:"position"`
	Links    []string  `yaml:"links,omitempty,flow" json:"links,omitempty"`
}

// Link is a link entry with its endpoint joint IDs in declaration order.
type Link struct {
	ID     string    `yaml:"id" json:"id"`
	Name   string    `yaml:"name,omitempty" json:"name,omitempty"`
	Joints [2]string `yaml:"joints,flow" json:"joints"`
}

// Constraint is one line of the simulation's constraint report.
type Constraint struct {
	Index     int      `yaml:"index" json:"index"`
	Kind      string   `yaml:"kind" json:"kind"`
	Joints    []string `yaml:"joints,flow" json:"joints"`
	Satisfied bool     `yaml:"satisfied" json:"satisfied"`
}

// Take captures s. names may be nil, in which case entries carry IDs only.
func Take(s *sim.Simulation, names Names) *Snapshot {
	snap := &Snapshot{
		Name:      s.Name(),
		Satisfied: s.Satisfied(),
		Joints:    make([]Joint, 0, s.JointCount()),
		Links:     make([]Link, 0, s.LinkCount()),
	}

	for id, j := range s.Joints() {
		entry := Joint{
			ID:       id.String(),
			Kind:     j.Kind.Type.String(),
			Position: j.Position.Components(),
		}
		if names != nil {
			entry.Name, _ = names.JointName(id)
		}
		if j.Kind.Type == sim.JointSlider {
			entry.Axis = []float64{j.Kind.Axis.X, j.Kind.Axis.Y, j.Kind.Axis.Z}
		}
		for _, l := range j.ConnectedLinks {
			entry.Links = append(entry.Links, l.String())
		}
		snap.Joints = append(snap.Joints, entry)
	}

	for id, l := range s.Links() {
		entry := Link{
			ID:     id.String(),
			Joints: [2]string{l.Joints[0].String(), l.Joints[1].String()},
		}
		if names != nil {
			entry.Name, _ = names.LinkName(id)
		}
		snap.Links = append(snap.Links, entry)
	}

	for _, st := range s.Report() {
		entry := Constraint{
			Index:     st.Index,
			Kind:      st.Kind.String(),
			Joints:    make([]string, 0, len(st.Joints)),
			Satisfied: st.Satisfied,
		}
		for _, j := range st.Joints {
			entry.Joints = append(entry.Joints, j.String())
		}
		snap.Constraints = append(snap.Constraints, entry)
	}
	return snap
}

// Joint returns the entry with the given ID or name.
func (s *Snapshot) Joint(ref string) (Joint, bool) {
	for _, j := range s.Joints {
		if j.ID == ref || (j.Name != "" && j.Name == ref) {
			return j, true
		}
	}
	return Joint{}, false
}

// Fingerprint hashes the joint IDs and positions. Two snapshots of the same
// simulation with equal fingerprints have bit-identical joint positions.
func Fingerprint(s *Snapshot) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(s.Name)
	var buf []byte
	for _, j := range s.Joints {
		_, _ = d.WriteString(j.ID)
		buf = buf[:0]
		for _, c := range j.Position {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c))
		}
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}
