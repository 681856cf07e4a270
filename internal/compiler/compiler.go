package compiler

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/ugokugo/internal/ast"
	"github.com/specialistvlad/ugokugo/internal/ctxlog"
	"github.com/specialistvlad/ugokugo/internal/parser"
	"github.com/specialistvlad/ugokugo/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile parses and compiles src. No Simulation is returned alongside an error.
func Compile(ctx context.Context, src []byte, filename string) (*sim.Simulation, error) {
	s, _, err := CompileWithSymbols(ctx, src, filename)
	return s, err
}

// CompileFile reads and compiles the program at path.
func CompileFile(ctx context.Context, path string) (*sim.Simulation, *Symbols, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read program: %w", err)
	}
	return CompileWithSymbols(ctx, src, path)
}

// CompileWithSymbols is Compile that also returns the program's name table.
func CompileWithSymbols(ctx context.Context, src []byte, filename string) (*sim.Simulation, *Symbols, error) {
	prog, diags := parser.Parse(src, filename)
	if diags.HasErrors() {
		return nil, nil, &SyntaxError{Diagnostics: diags}
	}
	return CompileProgram(ctx, prog)
}

// CompileProgram builds a Simulation from an already parsed program.
func CompileProgram(ctx context.Context, prog *ast.Program) (*sim.Simulation, *Symbols, error) {
	logger := ctxlog.FromContext(ctx)

	c := &compiler{
		sim:     sim.NewSized(prog.Name, len(prog.Joints), len(prog.Links)),
		syms:    newSymbols(),
		fixed:   make(map[sim.JointID]bool),
		sliders: make(map[sim.JointID]r3.Vec),
	}
	if err := c.declareJoints(prog.Joints); err != nil {
		return nil, nil, err
	}
	if err := c.declareLinks(prog.Links); err != nil {
		return nil, nil, err
	}
	for _, decl := range prog.Constraints {
		if err := c.lowerConstraint(decl); err != nil {
			return nil, nil, err
		}
	}
	c.deriveJointKinds()

	logger.Debug("Compiled program",
		"name", prog.Name,
		"joints", c.sim.JointCount(),
		"links", c.sim.LinkCount(),
		"constraints", len(c.sim.Constraints()),
	)
	return c.sim, c.syms, nil
}

type compiler struct {
	sim  *sim.Simulation
	syms *Symbols

	// fixed and sliders feed the advisory joint kinds once all constraints are known.
	fixed   map[sim.JointID]bool
	sliders map[sim.JointID]r3.Vec
}

func (c *compiler) declareJoints(decls []*ast.JointDecl) error {
	for _, d := range decls {
		if _, dup := c.syms.Joint(d.Name.Name); dup {
			return &ReferenceError{Kind: "joint", Name: d.Name.Name, Decl: "joint", Range: d.Name.Range, Err: ErrDuplicateName}
		}
		var pos sim.Position
		if d.Is3D() {
			pos = sim.XYZ(d.Coords[0], d.Coords[1], d.Coords[2])
		} else {
			pos = sim.XY(d.Coords[0], d.Coords[1])
		}
		c.syms.addJoint(d.Name.Name, c.sim.AddJoint(pos, sim.RevoluteKind()))
	}
	return nil
}

func (c *compiler) declareLinks(decls []*ast.LinkDecl) error {
	for _, d := range decls {
		if _, dup := c.syms.Link(d.Name.Name); dup {
			return &ReferenceError{Kind: "link", Name: d.Name.Name, Decl: "link", Range: d.Name.Range, Err: ErrDuplicateName}
		}
		a, err := c.joint(d.JointA, "link")
		if err != nil {
			return err
		}
		b, err := c.joint(d.JointB, "link")
		if err != nil {
			return err
		}
		id, err := c.sim.AddLink(a, b)
		if err != nil {
			return fmt.Errorf("%s: %w", d.Range, err)
		}
		c.syms.addLink(d.Name.Name, id)
	}
	return nil
}

func (c *compiler) joint(ref ast.Ident, decl string) (sim.JointID, error) {
	id, ok := c.syms.Joint(ref.Name)
	if !ok {
		return sim.JointID{}, &ReferenceError{Kind: "joint", Name: ref.Name, Decl: decl, Range: ref.Range, Err: ErrNameNotFound}
	}
	return id, nil
}

func (c *compiler) joints(refs []ast.Ident, decl string) ([]sim.JointID, error) {
	ids := make([]sim.JointID, 0, len(refs))
	for _, ref := range refs {
		id, err := c.joint(ref, decl)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *compiler) link(ref ast.Ident, decl string) (sim.LinkID, error) {
	id, ok := c.syms.Link(ref.Name)
	if !ok {
		return sim.LinkID{}, &ReferenceError{Kind: "link", Name: ref.Name, Decl: decl, Range: ref.Range, Err: ErrNameNotFound}
	}
	return id, nil
}

func (c *compiler) add(cs ...sim.Constraint) error {
	for _, con := range cs {
		if err := c.sim.AddConstraint(con); err != nil {
			return err
		}
	}
	return nil
}

// lowerConstraint turns one declaration into one or more solver constraints.
// Multi-joint forms expand to one constraint per listed joint, in list order.
func (c *compiler) lowerConstraint(decl ast.ConstraintDecl) error {
	kw := decl.Keyword()

	switch d := decl.(type) {
	case *ast.DistanceDecl:
		a, err := c.joint(d.A, kw)
		if err != nil {
			return err
		}
		b, err := c.joint(d.B, kw)
		if err != nil {
			return err
		}
		return c.add(sim.Distance{A: a, B: b, Target: d.Value})

	case *ast.FixedDecl:
		ids, err := c.joints(d.Joints, kw)
		if err != nil {
			return err
		}
		for _, id := range ids {
			j, _ := c.sim.Joint(id)
			if err := c.add(sim.FixedPosition{Joint: id, Target: j.Position}); err != nil {
				return err
			}
			c.fixed[id] = true
		}
		return nil

	case *ast.PlaneDecl:
		ids, err := c.joints(d.Joints, kw)
		if err != nil {
			return err
		}
		if err := nonZero(d.Normal, kw, "normal", d.Range); err != nil {
			return err
		}
		var point r3.Vec
		if d.Point != nil {
			point = *d.Point
		}
		for _, id := range ids {
			if err := c.add(sim.Plane{Joint: id, Normal: d.Normal, Point: point}); err != nil {
				return err
			}
		}
		return nil

	case *ast.PrismaticVectorDecl:
		ids, err := c.joints(d.Joints, kw)
		if err != nil {
			return err
		}
		if err := nonZero(d.Axis, kw, "axis", d.Range); err != nil {
			return err
		}
		axis := r3.Unit(d.Axis)
		for _, id := range ids {
			if err := c.add(sim.PrismaticVector{Joint: id, Axis: axis, Origin: d.Origin}); err != nil {
				return err
			}
			c.sliders[id] = axis
		}
		return nil

	case *ast.PrismaticLinkDecl:
		ids, err := c.joints(d.Joints, kw)
		if err != nil {
			return err
		}
		link, err := c.link(d.Link, kw)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := c.add(sim.PrismaticLink{Joint: id, Link: link, Origin: d.Origin}); err != nil {
				return err
			}
		}
		return nil

	case *ast.FixedAngleDecl:
		ids, err := c.joints([]ast.Ident{d.A, d.Pivot, d.C}, kw)
		if err != nil {
			return err
		}
		return c.add(sim.FixedAngle{A: ids[0], Pivot: ids[1], C: ids[2], Angle: d.Angle})

	case *ast.RevoluteDecl:
		ids, err := c.joints([]ast.Ident{d.Pivot, d.Moving}, kw)
		if err != nil {
			return err
		}
		if err := nonZero(d.Axis, kw, "axis", d.Range); err != nil {
			return err
		}
		return c.add(sim.Revolute{Pivot: ids[0], Moving: ids[1], Rest: d.Axis, Min: d.Min, Max: d.Max})

	default:
		return fmt.Errorf("%s: unsupported constraint %q", decl.DeclRange(), kw)
	}
}

// deriveJointKinds marks pinned joints Fixed and prismatic-vector joints as
// sliders. Fixed wins when a joint is both.
func (c *compiler) deriveJointKinds() {
	for id := range c.fixed {
		_ = c.sim.SetJointKind(id, sim.FixedKind())
	}
	for id, axis := range c.sliders {
		if c.fixed[id] {
			continue
		}
		_ = c.sim.SetJointKind(id, sim.SliderKind(axis))
	}
}

func nonZero(v r3.Vec, decl, param string, rng hcl.Range) error {
	if r3.Norm(v) == 0 {
		return fmt.Errorf("%s: %s %s %v: %w", rng, decl, param, v, ErrDegenerateVector)
	}
	return nil
}
