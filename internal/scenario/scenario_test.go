package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/ugokugo/internal/compiler"
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

func compileFourBar(t *testing.T) (*sim.Simulation, *compiler.Symbols) {
	t.Helper()
	s, syms, err := compiler.CompileWithSymbols(context.Background(), []byte(fourBar), "fourbar.ugoku")
	require.NoError(t, err)
	return s, syms
}

func TestParse(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	src := `
iterations = 20
dt         = 0.5

drag "C" {
  position   = [2.4, 0.3, 1.7]
  iterations = 200
}

drag "D" {
  position = [1, 2]
}
`
	// --- Act ---
	sc, err := Parse([]byte(src), "drag.hcl")

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, sc.Iterations)
	assert.Equal(t, 20, *sc.Iterations)
	require.NotNil(t, sc.DT)
	assert.Equal(t, 0.5, *sc.DT)

	require.Len(t, sc.Drags, 2)
	assert.Equal(t, "C", sc.Drags[0].Joint)
	assert.Equal(t, sim.XYZ(2.4, 0.3, 1.7), sc.Drags[0].Position)
	assert.Equal(t, 200, sc.Drags[0].Iterations)
	assert.Equal(t, 6, sc.Drags[0].Range.Start.Line)

	assert.Equal(t, sim.XY(1, 2), sc.Drags[1].Position)
	assert.Zero(t, sc.Drags[1].Iterations)
}

func TestScenario_Settings(t *testing.T) {
	t.Parallel()
	defaults := Settings{Iterations: 10, DT: 0.016}

	empty, err := Parse([]byte(""), "empty.hcl")
	require.NoError(t, err)
	assert.Equal(t, defaults, empty.Settings(defaults))

	override, err := Parse([]byte("iterations = 3"), "override.hcl")
	require.NoError(t, err)
	assert.Equal(t, Settings{Iterations: 3, DT: 0.016}, override.Settings(defaults))
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "invalid hcl", src: `drag "A" {`, wantErr: "failed to parse scenario file"},
		{name: "unknown attribute", src: `speed = 3`, wantErr: "failed to decode scenario file"},
		{name: "missing position", src: `drag "A" {}`, wantErr: "failed to decode scenario file"},
		{name: "single component", src: `drag "A" { position = [1] }`, wantErr: "two or three components, got 1"},
		{name: "four components", src: `drag "A" { position = [1, 2, 3, 4] }`, wantErr: "got 4"},
		{name: "not numbers", src: `drag "A" { position = ["x", "y"] }`, wantErr: "Invalid position"},
		{name: "not a list", src: `drag "A" { position = 3 }`, wantErr: "Invalid position"},
		{name: "negative iterations", src: `iterations = -1`, wantErr: "must not be negative"},
		{name: "negative drag iterations", src: `drag "A" {
  position   = [0, 0]
  iterations = -5
}`, wantErr: "must not be negative"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sc, err := Parse([]byte(tc.src), "bad.hcl")
			assert.Nil(t, sc)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scenario.hcl")
	require.NoError(t, os.WriteFile(path, []byte("drag \"C\" {\n  position = [2, 0, 1]\n}\n"), 0600))

	sc, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, sc.Filename)
	require.Len(t, sc.Drags, 1)
	assert.Equal(t, path, sc.Drags[0].Range.Filename)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"))
	assert.ErrorContains(t, err, "failed to parse scenario file")
}

func TestReplay_DragRecovers(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	s, syms := compileFourBar(t)
	sc, err := Parse([]byte(`
drag "C" {
  position   = [2.4, 0.3, 1.7]
  iterations = 200
}
`), "drag.hcl")
	require.NoError(t, err)

	// --- Act ---
	err = Replay(context.Background(), s, syms, sc, Settings{Iterations: 10})

	// --- Assert ---
	require.NoError(t, err)
	a, _ := syms.Joint("A")
	b, _ := syms.Joint("B")
	c, _ := syms.Joint("C")
	pa, _ := s.Joint(a)
	pb, _ := s.Joint(b)
	pc, _ := s.Joint(c)
	assert.Equal(t, r3.Vec{}, pa.Position.Vec3())
	assert.InDelta(t, 2.0, r3.Norm(r3.Sub(pc.Position.Vec3(), pb.Position.Vec3())), 1e-4)
	assert.Equal(t, 0.0, pc.Position.Vec3().Y)
}

func TestReplay_NoDragsSettles(t *testing.T) {
	t.Parallel()

	s := sim.New("settle")
	a := s.AddJoint(sim.XY(0, 0), sim.FixedKind())
	b := s.AddJoint(sim.XY(10, 0), sim.RevoluteKind())
	require.NoError(t, s.AddConstraint(sim.Distance{A: a, B: b, Target: 2}))
	require.NoError(t, s.AddConstraint(sim.FixedPosition{Joint: a, Target: sim.XY(0, 0)}))

	err := Replay(context.Background(), s, nil, &Scenario{}, Settings{Iterations: 1})

	require.NoError(t, err)
	jb, _ := s.Joint(b)
	assert.InDelta(t, 4.0, jb.Position.Vec3().X, 1e-12, "one iteration is two passes")
}

func TestReplay_UnknownJoint(t *testing.T) {
	t.Parallel()
	s, syms := compileFourBar(t)
	sc, err := Parse([]byte(`drag "Z" { position = [0, 0] }`), "drag.hcl")
	require.NoError(t, err)

	err = Replay(context.Background(), s, syms, sc, Settings{Iterations: 10})

	assert.ErrorIs(t, err, ErrUnknownJoint)
	assert.ErrorContains(t, err, `"Z"`)
	assert.ErrorContains(t, err, "drag.hcl:1")
}

func TestResolveJoint(t *testing.T) {
	t.Parallel()
	s, syms := compileFourBar(t)
	c, _ := syms.Joint("C")

	byName, err := ResolveJoint(s, syms, "C")
	require.NoError(t, err)
	assert.Equal(t, c, byName)

	byHandle, err := ResolveJoint(s, nil, c.String())
	require.NoError(t, err)
	assert.Equal(t, c, byHandle)

	_, err = ResolveJoint(s, syms, "99v1")
	assert.ErrorIs(t, err, ErrUnknownJoint)
}
