package scenario

import (
	"context"
	"fmt"

	"github.com/specialistvlad/ugokugo/internal/ctxlog"
	"github.com/specialistvlad/ugokugo/internal/sim"
)

// JointLookup resolves joint names. *compiler.Symbols satisfies it.
type JointLookup interface {
	Joint(name string) (sim.JointID, bool)
}

// ResolveJoint finds a joint by declared name, falling back to its handle
// string ("<index>v<generation>").
func ResolveJoint(s *sim.Simulation, joints JointLookup, ref string) (sim.JointID, error) {
	if joints != nil {
		if id, ok := joints.Joint(ref); ok {
			return id, nil
		}
	}
	if id, err := sim.ParseJointID(ref); err == nil {
		if _, ok := s.Joint(id); ok {
			return id, nil
		}
	}
	return sim.JointID{}, fmt.Errorf("%w: %q", ErrUnknownJoint, ref)
}

// Replay applies each drag of sc in order and steps s after every one. A
// scenario without drags runs a single settle step.
func Replay(ctx context.Context, s *sim.Simulation, joints JointLookup, sc *Scenario, defaults Settings) error {
	logger := ctxlog.FromContext(ctx)
	settings := sc.Settings(defaults)

	if len(sc.Drags) == 0 {
		s.Step(settings.DT, settings.Iterations)
		logger.Debug("Settled simulation.", "simulation", s.Name(), "iterations", settings.Iterations, "satisfied", s.Satisfied())
		return nil
	}

	for i, d := range sc.Drags {
		id, err := ResolveJoint(s, joints, d.Joint)
		if err != nil {
			return fmt.Errorf("%s: drag %d: %w", d.Range, i, err)
		}
		if err := s.SetJointPosition(id, d.Position); err != nil {
			return fmt.Errorf("%s: drag %d: %w", d.Range, i, err)
		}

		iterations := settings.Iterations
		if d.Iterations > 0 {
			iterations = d.Iterations
		}
		s.Step(settings.DT, iterations)
		logger.Debug("Applied drag.",
			"simulation", s.Name(),
			"joint", d.Joint,
			"position", d.Position.String(),
			"iterations", iterations,
			"satisfied", s.Satisfied(),
		)
	}
	return nil
}
