package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/ugokugo/internal/ctxlog"
	"github.com/specialistvlad/ugokugo/internal/scenario"
	"github.com/specialistvlad/ugokugo/internal/sim"
	"github.com/specialistvlad/ugokugo/internal/snapshot"
)

// ErrInvalidDrag is returned for drag requests that cannot be applied.
var ErrInvalidDrag = errors.New("invalid drag request")

// Symbols resolves joint names and renders handles back to names.
// *compiler.Symbols satisfies it.
type Symbols interface {
	scenario.JointLookup
	snapshot.Names
}

// DragRequest is the payload of a "drag" event. Joint is a declared name or a
// handle string; Iterations of zero uses the session setting.
type DragRequest struct {
	Joint      string    `json:"joint"`
	Position   []float64 `json:"position"`
	Iterations int       `json:"iterations,omitempty"`
}

// Session guards one simulation. Drags and snapshots never interleave with a step.
type Session struct {
	mu       sync.Mutex
	sim      *sim.Simulation
	symbols  Symbols
	settings scenario.Settings
	last     uint64
}

// NewSession wraps s. symbols may be nil, in which case joints are addressed by handle only.
func NewSession(s *sim.Simulation, symbols Symbols, settings scenario.Settings) *Session {
	sess := &Session{sim: s, symbols: symbols, settings: settings}
	sess.last = snapshot.Fingerprint(snapshot.Take(s, symbols))
	return sess
}

// Name returns the simulation name.
func (s *Session) Name() string {
	return s.sim.Name()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() *snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.Take(s.sim, s.symbols)
}

// Drag moves the requested joint, steps the solver and returns the new
// state. changed reports whether any joint position differs from the last
// state this session produced.
func (s *Session) Drag(ctx context.Context, req DragRequest) (snap *snapshot.Snapshot, changed bool, err error) {
	var pos sim.Position
	switch len(req.Position) {
	case 2:
		pos = sim.XY(req.Position[0], req.Position[1])
	case 3:
		pos = sim.XYZ(req.Position[0], req.Position[1], req.Position[2])
	default:
		return nil, false, fmt.Errorf("%w: position needs two or three components, got %d", ErrInvalidDrag, len(req.Position))
	}
	if req.Iterations < 0 {
		return nil, false, fmt.Errorf("%w: iterations must not be negative", ErrInvalidDrag)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := scenario.ResolveJoint(s.sim, s.symbols, req.Joint)
	if err != nil {
		return nil, false, err
	}
	if err := s.sim.SetJointPosition(id, pos); err != nil {
		return nil, false, err
	}

	iterations := s.settings.Iterations
	if req.Iterations > 0 {
		iterations = req.Iterations
	}
	s.sim.Step(s.settings.DT, iterations)

	snap = snapshot.Take(s.sim, s.symbols)
	fp := snapshot.Fingerprint(snap)
	changed = fp != s.last
	s.last = fp

	ctxlog.FromContext(ctx).Debug("Applied drag.",
		"simulation", s.sim.Name(),
		"joint", req.Joint,
		"iterations", iterations,
		"changed", changed,
		"satisfied", snap.Satisfied,
	)
	return snap, changed, nil
}
