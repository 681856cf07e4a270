// Package scenario loads HCL files that script drag input against a compiled
// simulation and replays them between solver steps.
//
//	iterations = 20
//	dt         = 0.016
//
//	drag "C" {
//	  position   = [2.4, 0.3, 1.7]
//	  iterations = 200
//	}
package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/ugokugo/internal/ctxlog"
	"github.com/specialistvlad/ugokugo/internal/sim"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ErrUnknownJoint is returned by Replay when a drag names no joint of the simulation.
var ErrUnknownJoint = errors.New("unknown joint")

// Scenario is a decoded scenario file.
type Scenario struct {
	Filename   string
	Iterations *int
	DT         *float64
	Drags      []Drag
}

// Drag moves one joint, then steps the solver.
type Drag struct {
	Joint      string
	Position   sim.Position
	Iterations int // 0 uses the scenario setting
	Range      hcl.Range
}

// Settings are the solver parameters a replay runs with.
type Settings struct {
	Iterations int
	DT         float64
}

// Settings returns defaults overridden by whatever the scenario sets.
func (sc *Scenario) Settings(defaults Settings) Settings {
	out := defaults
	if sc.Iterations != nil {
		out.Iterations = *sc.Iterations
	}
	if sc.DT != nil {
		out.DT = *sc.DT
	}
	return out
}

type hclScenarioFile struct {
	Iterations *int       `hcl:"iterations,optional"`
	DT         *float64   `hcl:"dt,optional"`
	Drags      []*hclDrag `hcl:"drag,block"`
}

type hclDrag struct {
	Joint      string         `hcl:"joint,label"`
	Position   hcl.Expression `hcl:"position"`
	Iterations *int           `hcl:"iterations,optional"`
}

// Load parses the scenario file at path.
func Load(ctx context.Context, path string) (*Scenario, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading scenario file.", "path", path)

	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, diags)
	}
	sc, err := decode(file, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Successfully loaded scenario file.", "path", path, "drags_found", len(sc.Drags))
	return sc, nil
}

// Parse parses scenario source. filename is only used in diagnostics.
func Parse(src []byte, filename string) (*Scenario, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", filename, diags)
	}
	return decode(file, filename)
}

func decode(file *hcl.File, filename string) (*Scenario, error) {
	var raw hclScenarioFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode scenario file %s: %w", filename, diags)
	}

	sc := &Scenario{Filename: filename, Iterations: raw.Iterations, DT: raw.DT}
	if sc.Iterations != nil && *sc.Iterations < 0 {
		return nil, fmt.Errorf("scenario file %s: iterations must not be negative, got %d", filename, *sc.Iterations)
	}

	for _, d := range raw.Drags {
		pos, diags := decodePosition(d.Position)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode drag %q in %s: %w", d.Joint, filename, diags)
		}
		drag := Drag{Joint: d.Joint, Position: pos, Range: d.Position.Range()}
		if d.Iterations != nil {
			if *d.Iterations < 0 {
				return nil, fmt.Errorf("%s: drag %q: iterations must not be negative, got %d", drag.Range, d.Joint, *d.Iterations)
			}
			drag.Iterations = *d.Iterations
		}
		sc.Drags = append(sc.Drags, drag)
	}
	return sc, nil
}

// decodePosition accepts a list of two or three numbers.
func decodePosition(expr hcl.Expression) (sim.Position, hcl.Diagnostics) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return sim.Position{}, diags
	}

	invalid := func(detail string) hcl.Diagnostics {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid position",
			Detail:   detail,
			Subject:  expr.Range().Ptr(),
		}}
	}

	if val.IsNull() || !val.IsWhollyKnown() {
		return sim.Position{}, invalid("A position must be a list of two or three numbers.")
	}
	list, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return sim.Position{}, invalid(fmt.Sprintf("A position must be a list of two or three numbers: %s.", err))
	}

	var coords []float64
	if err := gocty.FromCtyValue(list, &coords); err != nil {
		return sim.Position{}, invalid(fmt.Sprintf("Failed to read position: %s.", err))
	}
	switch len(coords) {
	case 2:
		return sim.XY(coords[0], coords[1]), nil
	case 3:
		return sim.XYZ(coords[0], coords[1], coords[2]), nil
	default:
		return sim.Position{}, invalid(fmt.Sprintf("A position has two or three components, got %d.", len(coords)))
	}
}
