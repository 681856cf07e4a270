package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/ugokugo/internal/compiler"
	"github.com/specialistvlad/ugokugo/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const crankProgram = `
sim crank {
  joint O, 0, 0
  joint P, 3, 0
  link OP, O, P
  fixed(O)
  distance(O, P) = 1
}
`

const sliderProgram = `
sim slider {
  joint S, 2, 5
  prismatic_vector(S) axis = X origin = (0, 0, 0)
}
`

func writeProgram(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))
	return path
}

func decodeAll(t *testing.T, r io.Reader) []snapshot.Snapshot {
	t.Helper()
	var out []snapshot.Snapshot
	dec := yaml.NewDecoder(r)
	for {
		var s snapshot.Snapshot
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, s)
	}
}

func TestRun_SingleProgramYAML(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeProgram(t, t.TempDir(), "crank.ugoku", crankProgram)
	testApp, out, logs := SetupAppTest(t, Config{ProgramPath: path, Iterations: 20})

	// --- Act ---
	err := testApp.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	snaps := decodeAll(t, strings.NewReader(out.String()))
	require.Len(t, snaps, 1)
	assert.Equal(t, "crank", snaps[0].Name)
	assert.True(t, snaps[0].Satisfied)
	p, ok := snaps[0].Joint("P")
	require.True(t, ok)
	assert.InDelta(t, 1.0, p.Position[0], 1e-6)
	assert.Contains(t, logs.String(), "Compiled program")
}

func TestRun_DirectoryOfPrograms(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeProgram(t, dir, "b_slider.ugoku", sliderProgram)
	writeProgram(t, dir, "a_crank.ugoku", crankProgram)
	writeProgram(t, dir, "README.md", "not a program")
	testApp, out, _ := SetupAppTest(t, Config{ProgramPath: dir, Iterations: 20})

	require.NoError(t, testApp.Run(context.Background()))

	snaps := decodeAll(t, strings.NewReader(out.String()))
	require.Len(t, snaps, 2)
	assert.Equal(t, "crank", snaps[0].Name, "programs run in lexical order")
	assert.Equal(t, "slider", snaps[1].Name)
	assert.Equal(t, []float64{2, 0, 0}, snaps[1].Joints[0].Position)
}

func TestRun_TextOutput(t *testing.T) {
	t.Parallel()
	path := writeProgram(t, t.TempDir(), "slider.ugoku", sliderProgram)
	testApp, out, _ := SetupAppTest(t, Config{ProgramPath: path, Iterations: 1, OutputFormat: "text"})

	require.NoError(t, testApp.Run(context.Background()))

	assert.True(t, strings.HasPrefix(out.String(), "simulation slider (satisfied)\n"), out.String())
}

func TestRun_CheckOnly(t *testing.T) {
	t.Parallel()
	path := writeProgram(t, t.TempDir(), "crank.ugoku", crankProgram)
	testApp, out, _ := SetupAppTest(t, Config{ProgramPath: path, CheckOnly: true})

	require.NoError(t, testApp.Run(context.Background()))

	assert.Equal(t, path+": ok (2 joints, 1 links, 2 constraints)\n", out.String())
}

func TestRun_Scenario(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	path := writeProgram(t, dir, "crank.ugoku", crankProgram)
	scenarioPath := filepath.Join(dir, "spin.hcl")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(`
iterations = 20

drag "P" {
  position = [0, 4]
}
`), 0600))
	testApp, out, _ := SetupAppTest(t, Config{ProgramPath: path, ScenarioPath: scenarioPath, Iterations: 1})

	// --- Act ---
	require.NoError(t, testApp.Run(context.Background()))

	// --- Assert ---
	snaps := decodeAll(t, strings.NewReader(out.String()))
	require.Len(t, snaps, 1)
	p, _ := snaps[0].Joint("P")
	assert.InDelta(t, 0, p.Position[0], 1e-9)
	assert.InDelta(t, 1, p.Position[1], 1e-6)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	broken := writeProgram(t, dir, "broken.ugoku", "sim broken { link L, A, B }")
	good := writeProgram(t, dir, "good.ugoku", crankProgram)
	missingDrag := filepath.Join(dir, "missing.hcl")
	require.NoError(t, os.WriteFile(missingDrag, []byte(`drag "Q" { position = [0, 0] }`), 0600))

	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
		is      error
	}{
		{name: "undeclared joint", cfg: Config{ProgramPath: broken}, wantErr: "failed to compile", is: compiler.ErrNameNotFound},
		{name: "no programs", cfg: Config{ProgramPath: t.TempDir()}, is: ErrNoPrograms},
		{name: "missing path", cfg: Config{ProgramPath: filepath.Join(dir, "nope")}, is: os.ErrNotExist},
		{name: "unknown scenario joint", cfg: Config{ProgramPath: good, ScenarioPath: missingDrag}, wantErr: "failed to replay scenario"},
		{name: "viewer with many programs", cfg: Config{ProgramPath: dir, ViewerURL: "http://localhost:1"}, wantErr: "exactly one program"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			testApp, _, _ := SetupAppTest(t, tc.cfg)

			err := testApp.Run(context.Background())

			require.Error(t, err)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
			}
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "missing program", cfg: Config{}, wantErr: "ProgramPath"},
		{name: "negative iterations", cfg: Config{ProgramPath: "p", Iterations: -1}, wantErr: "iterations"},
		{name: "bad format", cfg: Config{ProgramPath: "p", OutputFormat: "xml"}, wantErr: "output format"},
		{name: "bad port", cfg: Config{ProgramPath: "p", HealthcheckPort: 70000}, wantErr: "out of range"},
		{name: "viewer in check mode", cfg: Config{ProgramPath: "p", CheckOnly: true, ViewerURL: "http://x"}, wantErr: "check-only"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := NewConfig(tc.cfg)
			assert.Nil(t, cfg)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}

	cfg, err := NewConfig(Config{ProgramPath: "p"})
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.OutputFormat)
	assert.Equal(t, "/", cfg.ViewerNamespace)
}

func TestNewLogger_Formats(t *testing.T) {
	t.Parallel()

	var jsonBuf, textBuf SafeBuffer
	newLogger("debug", "json", &jsonBuf).Debug("hello", "k", 1)
	newLogger("warn", "text", &textBuf).Info("dropped")

	assert.True(t, strings.HasPrefix(jsonBuf.String(), "{"), jsonBuf.String())
	assert.Contains(t, jsonBuf.String(), `"msg":"hello"`)
	assert.Empty(t, textBuf.String(), "info is below the warn level")
}

func TestRun_BundledExample(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	examples := filepath.Join("..", "..", "examples")
	testApp, out, _ := SetupAppTest(t, Config{
		ProgramPath:  filepath.Join(examples, "fourbar.ugoku"),
		ScenarioPath: filepath.Join(examples, "fourbar.hcl"),
	})

	// --- Act ---
	require.NoError(t, testApp.Run(context.Background()))

	// --- Assert ---
	snaps := decodeAll(t, strings.NewReader(out.String()))
	require.Len(t, snaps, 1)
	assert.Equal(t, "fourbar", snaps[0].Name)
	a, ok := snaps[0].Joint("A")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 0, 0}, a.Position)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestRun_ServesHealthCheckUntilCancelled(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	port := freePort(t)
	testApp, _, _ := SetupAppTest(t, Config{
		ProgramPath:     filepath.Join("..", "..", "examples", "fourbar.ugoku"),
		Iterations:      20,
		HealthcheckPort: port,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)

	// --- Act ---
	go func() { done <- testApp.Run(ctx) }()

	// --- Assert ---
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		body = string(b)
		return true
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "OK fourbar\n", body)

	resp, err := http.Get(base + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	snaps := decodeAll(t, resp.Body)
	require.Len(t, snaps, 1)
	assert.Equal(t, "fourbar", snaps[0].Name)

	select {
	case err := <-done:
		t.Fatalf("Run returned while the health server should be up: %v", err)
	default:
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_HealthCheckPortInUse(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	testApp, _, _ := SetupAppTest(t, Config{
		ProgramPath:     filepath.Join("..", "..", "examples", "fourbar.ugoku"),
		HealthcheckPort: ln.Addr().(*net.TCPAddr).Port,
	})

	err = testApp.Run(context.Background())

	assert.ErrorContains(t, err, "failed to start health check server")
}
