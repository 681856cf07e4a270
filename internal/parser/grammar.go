package parser

import (
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/ugokugo/internal/ast"
	"github.com/zclconf/go-cty/cty"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	summaryProgram    = "Invalid program"
	summaryJoint      = "Invalid joint declaration"
	summaryLink       = "Invalid link declaration"
	summaryConstraint = "Invalid constraint declaration"
)

// axisNames are the named unit vectors accepted wherever an axis or normal is expected.
var axisNames = map[string]r3.Vec{
	"X": {X: 1},
	"Y": {Y: 1},
	"Z": {Z: 1},
	"x": {X: 1},
	"y": {Y: 1},
	"z": {Z: 1},
}

// angleUnits maps an angle suffix to its factor in radians.
var angleUnits = map[string]float64{
	"deg":     math.Pi / 180,
	"degrees": math.Pi / 180,
	"rad":     1,
	"radians": 1,
}

func (p *parser) parseProgram() (*ast.Program, *hcl.Diagnostic) {
	kw := p.next()
	if kw.Type != hclsyntax.TokenIdent || (string(kw.Bytes) != "sim" && string(kw.Bytes) != "simulation") {
		return nil, unexpected(summaryProgram, `"sim" or "simulation"`, kw)
	}
	name, diag := p.ident(summaryProgram, "a simulation name")
	if diag != nil {
		return nil, diag
	}
	if _, diag := p.expect(hclsyntax.TokenOBrace, summaryProgram, `"{"`); diag != nil {
		return nil, diag
	}

	prog := &ast.Program{Name: name.Name, NameRange: name.Range}
	for {
		tok := p.peek()
		if tok.Type == hclsyntax.TokenCBrace {
			p.next()
			break
		}
		if tok.Type != hclsyntax.TokenIdent {
			return nil, unexpected(summaryProgram, `a declaration or "}"`, tok)
		}
		if diag := p.parseStatement(prog); diag != nil {
			return nil, diag
		}
	}

	if _, diag := p.expect(hclsyntax.TokenEOF, summaryProgram, "end of file after the closing brace"); diag != nil {
		return nil, diag
	}
	return prog, nil
}

func (p *parser) parseStatement(prog *ast.Program) *hcl.Diagnostic {
	tok := p.next()
	switch kw := string(tok.Bytes); kw {
	case "joint":
		decl, diag := p.parseJoint(tok)
		if diag != nil {
			return diag
		}
		prog.Joints = append(prog.Joints, decl)
	case "link":
		decl, diag := p.parseLink(tok)
		if diag != nil {
			return diag
		}
		prog.Links = append(prog.Links, decl)
	case "distance", "fixed", "plane", "prismatic_vector", "prismatic_link", "fixed_angle", "revolute":
		decl, diag := p.parseConstraint(kw, tok)
		if diag != nil {
			return diag
		}
		prog.Constraints = append(prog.Constraints, decl)
	default:
		return &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unknown declaration",
			Detail: fmt.Sprintf("%q is not a declaration keyword. Expected joint, link, distance, fixed, "+
				"plane, prismatic_vector, prismatic_link, fixed_angle or revolute.", kw),
			Subject: tok.Range.Ptr(),
		}
	}
	return nil
}

// parseJoint parses `joint NAME, x, y[, z]`.
func (p *parser) parseJoint(kw hclsyntax.Token) (*ast.JointDecl, *hcl.Diagnostic) {
	name, diag := p.ident(summaryJoint, "a joint name")
	if diag != nil {
		return nil, diag
	}
	decl := &ast.JointDecl{Name: name}
	for i, axis := range []string{"x", "y", "z"} {
		if i == 2 && p.peek().Type != hclsyntax.TokenComma {
			break
		}
		if _, diag := p.expect(hclsyntax.TokenComma, summaryJoint, `","`); diag != nil {
			return nil, diag
		}
		v, diag := p.number(summaryJoint, "a number for the "+axis+" coordinate")
		if diag != nil {
			return nil, diag
		}
		decl.Coords = append(decl.Coords, v)
	}
	decl.Range = hcl.RangeBetween(kw.Range, p.prev().Range)
	return decl, nil
}

// parseLink parses `link NAME, A, B`.
func (p *parser) parseLink(kw hclsyntax.Token) (*ast.LinkDecl, *hcl.Diagnostic) {
	var idents [3]ast.Ident
	for i, what := range []string{"a link name", "the first joint name", "the second joint name"} {
		if i > 0 {
			if _, diag := p.expect(hclsyntax.TokenComma, summaryLink, `","`); diag != nil {
				return nil, diag
			}
		}
		id, diag := p.ident(summaryLink, what)
		if diag != nil {
			return nil, diag
		}
		idents[i] = id
	}
	return &ast.LinkDecl{
		Name:   idents[0],
		JointA: idents[1],
		JointB: idents[2],
		Range:  hcl.RangeBetween(kw.Range, p.prev().Range),
	}, nil
}

func (p *parser) parseConstraint(kw string, kwTok hclsyntax.Token) (ast.ConstraintDecl, *hcl.Diagnostic) {
	var (
		decl ast.ConstraintDecl
		diag *hcl.Diagnostic
	)
	switch kw {
	case "distance":
		decl, diag = p.parseDistance()
	case "fixed":
		decl, diag = p.parseFixed()
	case "plane":
		decl, diag = p.parsePlane()
	case "prismatic_vector":
		decl, diag = p.parsePrismaticVector()
	case "prismatic_link":
		decl, diag = p.parsePrismaticLink()
	case "fixed_angle":
		decl, diag = p.parseFixedAngle()
	case "revolute":
		decl, diag = p.parseRevolute()
	}
	if diag != nil {
		return nil, diag
	}

	rng := hcl.RangeBetween(kwTok.Range, p.prev().Range)
	switch d := decl.(type) {
	case *ast.DistanceDecl:
		d.Range = rng
	case *ast.FixedDecl:
		d.Range = rng
	case *ast.PlaneDecl:
		d.Range = rng
	case *ast.PrismaticVectorDecl:
		d.Range = rng
	case *ast.PrismaticLinkDecl:
		d.Range = rng
	case *ast.FixedAngleDecl:
		d.Range = rng
	case *ast.RevoluteDecl:
		d.Range = rng
	}
	return decl, nil
}

func (p *parser) parseDistance() (*ast.DistanceDecl, *hcl.Diagnostic) {
	joints, diag := p.jointArgs(2, 2)
	if diag != nil {
		return nil, diag
	}
	if _, diag := p.expect(hclsyntax.TokenEqual, summaryConstraint, `"=" followed by the target distance`); diag != nil {
		return nil, diag
	}
	v, diag := p.number(summaryConstraint, "a number for the target distance")
	if diag != nil {
		return nil, diag
	}
	return &ast.DistanceDecl{A: joints[0], B: joints[1], Value: v}, nil
}

func (p *parser) parseFixed() (*ast.FixedDecl, *hcl.Diagnostic) {
	joints, diag := p.jointArgs(1, 0)
	if diag != nil {
		return nil, diag
	}
	return &ast.FixedDecl{Joints: joints}, nil
}

func (p *parser) parsePlane() (*ast.PlaneDecl, *hcl.Diagnostic) {
	joints, diag := p.jointArgs(1, 0)
	if diag != nil {
		return nil, diag
	}
	normal, diag := p.namedDirection("normal")
	if diag != nil {
		return nil, diag
	}
	decl := &ast.PlaneDecl{Joints: joints, Normal: normal}
	if p.peekKeyword("point") {
		point, diag := p.namedVector("point")
		if diag != nil {
			return nil, diag
		}
		decl.Point = &point
	}
	return decl, nil
}

func (p *parser) parsePrismaticVector() (*ast.PrismaticVectorDecl, *hcl.Diagnostic) {
	joints, diag := p.jointArgs(1, 0)
	if diag != nil {
		return nil, diag
	}
	axis, diag := p.namedDirection("axis")
	if diag != nil {
		return nil, diag
	}
	origin, diag := p.namedVector("origin")
	if diag != nil {
		return nil, diag
	}
	return &ast.PrismaticVectorDecl{Joints: joints, Axis: axis, Origin: origin}, nil
}

func (p *parser) parsePrismaticLink() (*ast.PrismaticLinkDecl, *hcl.Diagnostic) {
	joints, diag := p.jointArgs(1, 0)
	if diag != nil {
		return nil, diag
	}
	if diag := p.expectKeyword("link", summaryConstraint); diag != nil {
		return nil, diag
	}
	if _, diag := p.expect(hclsyntax.TokenEqual, summaryConstraint, `"="`); diag != nil {
		return nil, diag
	}
	link, diag := p.ident(summaryConstraint, "a link name")
	if diag != nil {
		return nil, diag
	}
	origin, diag := p.namedVector("origin")
	if diag != nil {
		return nil, diag
	}
	return &ast.PrismaticLinkDecl{Joints: joints, Link: link, Origin: origin}, nil
}

func (p *parser) parseFixedAngle() (*ast.FixedAngleDecl, *hcl.Diagnostic) {
	joints, diag := p.jointArgs(3, 3)
	if diag != nil {
		return nil, diag
	}
	if _, diag := p.expect(hclsyntax.TokenEqual, summaryConstraint, `"=" followed by the angle`); diag != nil {
		return nil, diag
	}
	angle, diag := p.angle()
	if diag != nil {
		return nil, diag
	}
	return &ast.FixedAngleDecl{A: joints[0], Pivot: joints[1], C: joints[2], Angle: angle}, nil
}

func (p *parser) parseRevolute() (*ast.RevoluteDecl, *hcl.Diagnostic) {
	joints, diag := p.jointArgs(2, 2)
	if diag != nil {
		return nil, diag
	}
	axis, diag := p.namedDirection("axis")
	if diag != nil {
		return nil, diag
	}
	lo, diag := p.namedNumber("min")
	if diag != nil {
		return nil, diag
	}
	hi, diag := p.namedNumber("max")
	if diag != nil {
		return nil, diag
	}
	return &ast.RevoluteDecl{Pivot: joints[0], Moving: joints[1], Axis: axis, Min: lo, Max: hi}, nil
}

// jointArgs parses a parenthesized, comma separated list of joint names.
// max of zero means no upper bound.
func (p *parser) jointArgs(minN, maxN int) ([]ast.Ident, *hcl.Diagnostic) {
	open, diag := p.expect(hclsyntax.TokenOParen, summaryConstraint, `"(" followed by joint names`)
	if diag != nil {
		return nil, diag
	}
	var joints []ast.Ident
	for {
		id, diag := p.ident(summaryConstraint, "a joint name")
		if diag != nil {
			return nil, diag
		}
		joints = append(joints, id)
		if p.peek().Type != hclsyntax.TokenComma {
			break
		}
		p.next()
	}
	closing, diag := p.expect(hclsyntax.TokenCParen, summaryConstraint, `"," or ")"`)
	if diag != nil {
		return nil, diag
	}

	if len(joints) < minN || (maxN > 0 && len(joints) > maxN) {
		want := fmt.Sprintf("%d", minN)
		switch {
		case maxN == 0:
			want = fmt.Sprintf("at least %d", minN)
		case maxN != minN:
			want = fmt.Sprintf("%d to %d", minN, maxN)
		}
		rng := hcl.RangeBetween(open.Range, closing.Range)
		return nil, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Wrong number of joints",
			Detail:   fmt.Sprintf("This constraint takes %s joint names, but %d were given.", want, len(joints)),
			Subject:  &rng,
		}
	}
	return joints, nil
}

// namedDirection parses `key = X|Y|Z|(x, y, z)`.
func (p *parser) namedDirection(key string) (r3.Vec, *hcl.Diagnostic) {
	if diag := p.assignment(key); diag != nil {
		return r3.Vec{}, diag
	}
	tok := p.peek()
	if tok.Type == hclsyntax.TokenIdent {
		p.next()
		v, ok := axisNames[string(tok.Bytes)]
		if !ok {
			return r3.Vec{}, unexpected(summaryConstraint, "X, Y, Z or a vector", tok)
		}
		return v, nil
	}
	return p.vector()
}

// namedVector parses `key = (x, y, z)`.
func (p *parser) namedVector(key string) (r3.Vec, *hcl.Diagnostic) {
	if diag := p.assignment(key); diag != nil {
		return r3.Vec{}, diag
	}
	return p.vector()
}

func (p *parser) namedNumber(key string) (float64, *hcl.Diagnostic) {
	if diag := p.assignment(key); diag != nil {
		return 0, diag
	}
	return p.number(summaryConstraint, "a number for "+key)
}

func (p *parser) assignment(key string) *hcl.Diagnostic {
	if diag := p.expectKeyword(key, summaryConstraint); diag != nil {
		return diag
	}
	_, diag := p.expect(hclsyntax.TokenEqual, summaryConstraint, `"="`)
	return diag
}

// vector parses `(x, y, z)`; all three components are required.
func (p *parser) vector() (r3.Vec, *hcl.Diagnostic) {
	if _, diag := p.expect(hclsyntax.TokenOParen, summaryConstraint, "a vector such as (1, 0, 0)"); diag != nil {
		return r3.Vec{}, diag
	}
	var c [3]float64
	for i := range c {
		if i > 0 {
			if _, diag := p.expect(hclsyntax.TokenComma, summaryConstraint, `","`); diag != nil {
				return r3.Vec{}, diag
			}
		}
		v, diag := p.number(summaryConstraint, "a vector component")
		if diag != nil {
			return r3.Vec{}, diag
		}
		c[i] = v
	}
	if _, diag := p.expect(hclsyntax.TokenCParen, summaryConstraint, `")" after three components`); diag != nil {
		return r3.Vec{}, diag
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// angle parses a number with an optional deg|degrees|rad|radians suffix and
// returns radians. Without a suffix the value is taken as radians.
func (p *parser) angle() (float64, *hcl.Diagnostic) {
	v, diag := p.number(summaryConstraint, "a number for the angle")
	if diag != nil {
		return 0, diag
	}
	if tok := p.peek(); tok.Type == hclsyntax.TokenIdent {
		if factor, ok := angleUnits[string(tok.Bytes)]; ok {
			p.next()
			return float64(float32(v * factor)), nil
		}
	}
	return v, nil
}

// number parses an optionally signed numeric literal, rounded to float32.
func (p *parser) number(summary, what string) (float64, *hcl.Diagnostic) {
	sign := 1.0
	first := p.peek()
	switch first.Type {
	case hclsyntax.TokenMinus:
		sign = -1
		p.next()
	case hclsyntax.TokenPlus:
		p.next()
	}

	tok, diag := p.expect(hclsyntax.TokenNumberLit, summary, what)
	if diag != nil {
		return 0, diag
	}
	rng := hcl.RangeBetween(first.Range, tok.Range)

	val, err := cty.ParseNumberVal(string(tok.Bytes))
	if err != nil {
		return 0, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid number",
			Detail:   fmt.Sprintf("Failed to parse %q as a number: %s.", tok.Bytes, err),
			Subject:  &rng,
		}
	}
	f, _ := val.AsBigFloat().Float32()
	if math.IsInf(float64(f), 0) {
		return 0, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid number",
			Detail:   fmt.Sprintf("The number %s is out of range.", tok.Bytes),
			Subject:  &rng,
		}
	}
	return sign * float64(f), nil
}
