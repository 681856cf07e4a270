package compiler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/ugokugo/internal/ctxlog"
	"github.com/specialistvlad/ugokugo/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const fourBar = `
sim fourbar {
  joint A, 0, 0, 0
  joint B, 2, 0, 0
  joint C, 2, 0, 2
  joint D, 0, 0, 2

  link AB, A, B
  link BC, B, C
  link CD, C, D
  link DA, D, A

  distance(A, B) = 2
  distance(B, C) = 2
  distance(C, D) = 2
  distance(D, A) = 2
  fixed(A, B)
  plane(A, B, C, D) normal = Y
}
`

func compile(t *testing.T, src string) (*sim.Simulation, *Symbols) {
	t.Helper()
	s, syms, err := CompileWithSymbols(context.Background(), []byte(src), "test.ugoku")
	require.NoError(t, err)
	require.NotNil(t, s)
	return s, syms
}

func jointByName(t *testing.T, s *sim.Simulation, syms *Symbols, name string) sim.Joint {
	t.Helper()
	id, ok := syms.Joint(name)
	require.True(t, ok, "joint %q not declared", name)
	j, ok := s.Joint(id)
	require.True(t, ok)
	return j
}

func TestCompile_JointsAndLinks(t *testing.T) {
	t.Parallel()

	// --- Act ---
	s, syms := compile(t, fourBar)

	// --- Assert ---
	assert.Equal(t, "fourbar", s.Name())
	assert.Equal(t, 4, s.JointCount())
	assert.Equal(t, 4, s.LinkCount())
	assert.Equal(t, []string{"A", "B", "C", "D"}, syms.JointNames())
	assert.Equal(t, []string{"AB", "BC", "CD", "DA"}, syms.LinkNames())

	ab, _ := syms.Link("AB")
	da, _ := syms.Link("DA")
	a := jointByName(t, s, syms, "A")
	assert.Equal(t, []sim.LinkID{ab, da}, a.ConnectedLinks, "links are recorded in declaration order")

	link, ok := s.Link(ab)
	require.True(t, ok)
	aID, _ := syms.Joint("A")
	bID, _ := syms.Joint("B")
	assert.Equal(t, [2]sim.JointID{aID, bID}, link.Joints)
	assert.True(t, link.Rigid)

	name, ok := syms.JointName(bID)
	assert.True(t, ok)
	assert.Equal(t, "B", name)
}

func TestCompile_JointDimensions(t *testing.T) {
	t.Parallel()
	s, syms := compile(t, "sim s { joint P, 1, 2 joint Q, 1, 2, 3 }")

	p := jointByName(t, s, syms, "P")
	assert.False(t, p.Position.Is3D())
	assert.Equal(t, sim.XY(1, 2), p.Position)

	q := jointByName(t, s, syms, "Q")
	assert.True(t, q.Position.Is3D())
	assert.Equal(t, sim.XYZ(1, 2, 3), q.Position)
}

func TestCompile_ConstraintOrderAndExpansion(t *testing.T) {
	t.Parallel()
	s, _ := compile(t, fourBar)

	var kinds []sim.ConstraintKind
	for _, c := range s.Constraints() {
		kinds = append(kinds, c.Kind())
	}
	assert.Equal(t, []sim.ConstraintKind{
		sim.KindDistance, sim.KindDistance, sim.KindDistance, sim.KindDistance,
		sim.KindFixedPosition, sim.KindFixedPosition,
		sim.KindPlane, sim.KindPlane, sim.KindPlane, sim.KindPlane,
	}, kinds)
}

func TestCompile_FixedCapturesDeclaredPosition(t *testing.T) {
	t.Parallel()
	s, syms := compile(t, "sim s { joint A, 1.5, -2 fixed(A) }")

	a, _ := syms.Joint("A")
	require.NoError(t, s.SetJointPosition(a, sim.XY(9, 9)))

	fixed, ok := s.Constraints()[0].(sim.FixedPosition)
	require.True(t, ok)
	assert.Equal(t, a, fixed.Joint)
	assert.Equal(t, sim.XY(1.5, -2), fixed.Target)

	s.Step(0, 1)
	assert.Equal(t, sim.XY(1.5, -2), jointByName(t, s, syms, "A").Position)
}

func TestCompile_ConstraintValues(t *testing.T) {
	t.Parallel()

	s, syms := compile(t, `sim s {
		joint A, 0, 0
		joint B, 1, 0
		joint C, 1, 1
		link AB, A, B
		plane(C) normal = (0, 0, 2) point = (0, 0, 1)
		plane(B) normal = X
		prismatic_vector(C) axis = (0, 3, 4) origin = (1, 0, 0)
		prismatic_link(C) link = AB origin = (0, 1, 0)
		fixed_angle(A, B, C) = 90deg
		revolute(B, C) axis = (2, 0, 0) min = -0.5 max = 0.5
	}`)

	a, _ := syms.Joint("A")
	b, _ := syms.Joint("B")
	c, _ := syms.Joint("C")
	ab, _ := syms.Link("AB")
	cs := s.Constraints()
	require.Len(t, cs, 6)

	assert.Equal(t, sim.Plane{Joint: c, Normal: r3.Vec{Z: 2}, Point: r3.Vec{Z: 1}}, cs[0])
	assert.Equal(t, sim.Plane{Joint: b, Normal: r3.Vec{X: 1}}, cs[1], "omitted point defaults to the origin")

	pv := cs[2].(sim.PrismaticVector)
	assert.InDelta(t, 0.6, pv.Axis.Y, 1e-12)
	assert.InDelta(t, 0.8, pv.Axis.Z, 1e-12)
	assert.Equal(t, r3.Vec{X: 1}, pv.Origin)

	assert.Equal(t, sim.PrismaticLink{Joint: c, Link: ab, Origin: r3.Vec{Y: 1}}, cs[3])

	fa := cs[4].(sim.FixedAngle)
	assert.Equal(t, [3]sim.JointID{a, b, c}, [3]sim.JointID{fa.A, fa.Pivot, fa.C})
	assert.InDelta(t, math.Pi/2, fa.Angle, 1e-6)

	rev := cs[5].(sim.Revolute)
	assert.Equal(t, b, rev.Pivot)
	assert.Equal(t, c, rev.Moving)
	assert.Equal(t, r3.Vec{X: 2}, rev.Rest, "rest axis is kept as written")
	assert.InDelta(t, -0.5, rev.Min, 1e-7)
	assert.InDelta(t, 0.5, rev.Max, 1e-7)
}

func TestCompile_DerivesJointKinds(t *testing.T) {
	t.Parallel()

	s, syms := compile(t, `sim s {
		joint F, 0, 0
		joint S, 1, 0
		joint R, 2, 0
		joint FS, 3, 0
		fixed(F, FS)
		prismatic_vector(S, FS) axis = (2, 0, 0) origin = (0, 0, 0)
	}`)

	assert.Equal(t, sim.FixedKind(), jointByName(t, s, syms, "F").Kind)
	assert.Equal(t, sim.SliderKind(r3.Vec{X: 1}), jointByName(t, s, syms, "S").Kind)
	assert.Equal(t, sim.RevoluteKind(), jointByName(t, s, syms, "R").Kind)
	assert.Equal(t, sim.FixedKind(), jointByName(t, s, syms, "FS").Kind, "fixed takes precedence over slider")
}

func TestCompile_ReferenceErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		src      string
		sentinel error
		kind     string
		ident    string
		decl     string
		line     int
	}{
		{
			name:     "link to undeclared joint",
			src:      "sim s {\n joint A, 0, 0\n link L, A, C\n}",
			sentinel: ErrNameNotFound, kind: "joint", ident: "C", decl: "link", line: 3,
		},
		{
			name:     "constraint on undeclared joint",
			src:      "sim s {\n joint A, 0, 0\n distance(A, Z) = 1\n}",
			sentinel: ErrNameNotFound, kind: "joint", ident: "Z", decl: "distance", line: 3,
		},
		{
			name:     "undeclared link",
			src:      "sim s { joint A, 0, 0 prismatic_link(A) link = L origin = (0, 0, 0) }",
			sentinel: ErrNameNotFound, kind: "link", ident: "L", decl: "prismatic_link", line: 1,
		},
		{
			name:     "duplicate joint",
			src:      "sim s {\n joint A, 0, 0\n joint A, 1, 0\n}",
			sentinel: ErrDuplicateName, kind: "joint", ident: "A", decl: "joint", line: 3,
		},
		{
			name:     "duplicate link",
			src:      "sim s { joint A, 0, 0 joint B, 1, 0 link L, A, B link L, B, A }",
			sentinel: ErrDuplicateName, kind: "link", ident: "L", decl: "link", line: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Act ---
			s, syms, err := CompileWithSymbols(context.Background(), []byte(tc.src), "test.ugoku")

			// --- Assert ---
			require.Error(t, err)
			assert.Nil(t, s)
			assert.Nil(t, syms)
			assert.ErrorIs(t, err, tc.sentinel)

			var refErr *ReferenceError
			require.ErrorAs(t, err, &refErr)
			assert.Equal(t, tc.kind, refErr.Kind)
			assert.Equal(t, tc.ident, refErr.Name)
			assert.Equal(t, tc.decl, refErr.Decl)
			assert.Equal(t, tc.line, refErr.Range.Start.Line)
			assert.Contains(t, err.Error(), `"`+tc.ident+`"`)
			assert.Contains(t, err.Error(), "test.ugoku:")
		})
	}
}

func TestCompile_JointAndLinkNamespacesAreSeparate(t *testing.T) {
	t.Parallel()
	s, syms := compile(t, "sim s { joint A, 0, 0 joint B, 1, 0 link A, A, B }")
	assert.Equal(t, 1, s.LinkCount())
	_, ok := syms.Link("A")
	assert.True(t, ok)
}

func TestCompile_SelfLink(t *testing.T) {
	t.Parallel()
	s, syms := compile(t, "sim s { joint A, 0, 0 link L, A, A }")
	a, _ := syms.Joint("A")
	l, _ := syms.Link("L")
	j, ok := s.Joint(a)
	require.True(t, ok)
	assert.Equal(t, []sim.LinkID{l, l}, j.ConnectedLinks)
}

func TestCompile_DegenerateVectors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		src  string
	}{
		{name: "plane normal", src: "sim s { joint A, 0, 0 plane(A) normal = (0, 0, 0) }"},
		{name: "prismatic axis", src: "sim s { joint A, 0, 0 prismatic_vector(A) axis = (0, 0, 0) origin = (0, 0, 0) }"},
		{name: "revolute axis", src: "sim s { joint A, 0, 0 joint B, 1, 0 revolute(A, B) axis = (0, 0, 0) min = 0 max = 1 }"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, err := Compile(context.Background(), []byte(tc.src), "test.ugoku")
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrDegenerateVector)
		})
	}
}

func TestCompile_SyntaxError(t *testing.T) {
	t.Parallel()

	s, err := Compile(context.Background(), []byte("sim s {\n joint A, 0\n}"), "broken.ugoku")

	assert.Nil(t, s)
	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	require.Len(t, synErr.Diagnostics, 1)
	assert.Contains(t, err.Error(), "broken.ugoku:3,1")
}

func TestCompile_FourBarStaysSatisfied(t *testing.T) {
	t.Parallel()
	s, syms := compile(t, fourBar)

	c, _ := syms.Joint("C")
	require.NoError(t, s.SetJointPosition(c, sim.XYZ(2.4, 0.3, 1.7)))
	s.Step(0.016, 200)

	for _, pair := range [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"D", "A"}} {
		pa := jointByName(t, s, syms, pair[0]).Position.Vec3()
		pb := jointByName(t, s, syms, pair[1]).Position.Vec3()
		assert.InDelta(t, 2.0, r3.Norm(r3.Sub(pb, pa)), 1e-4, "%s-%s", pair[0], pair[1])
	}
	for _, name := range syms.JointNames() {
		assert.Equal(t, 0.0, jointByName(t, s, syms, name).Position.Vec3().Y)
	}
}

func TestCompile_LogsSummary(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	// --- Act ---
	_, err := Compile(ctx, []byte(fourBar), "test.ugoku")

	// --- Assert ---
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Compiled program")
	assert.Contains(t, out, "joints=4")
	assert.Contains(t, out, "constraints=10")
}

func TestCompileFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fourbar.ugoku")
	require.NoError(t, os.WriteFile(path, []byte(fourBar), 0600))

	s, syms, err := CompileFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, s.JointCount())
	assert.Len(t, syms.JointNames(), 4)

	_, _, err = CompileFile(context.Background(), filepath.Join(t.TempDir(), "missing.ugoku"))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSymbols_NilIsEmpty(t *testing.T) {
	t.Parallel()
	var syms *Symbols
	_, ok := syms.Joint("A")
	assert.False(t, ok)
	_, ok = syms.LinkName(sim.LinkID{})
	assert.False(t, ok)
	assert.Nil(t, syms.JointNames())
}
