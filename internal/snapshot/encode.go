package snapshot

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Encoder writes snapshots in one output format.
type Encoder interface {
	Encode(w io.Writer, s *Snapshot) error
	Format() string
}

// Formats lists the names accepted by NewEncoder.
var Formats = []string{"yaml", "text"}

// NewEncoder returns the encoder for format.
func NewEncoder(format string) (Encoder, error) {
	switch format {
	case "yaml":
		return YAMLEncoder{}, nil
	case "text":
		return TextEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected one of %s)", format, strings.Join(Formats, ", "))
	}
}

// YAMLEncoder writes one YAML document per snapshot.
type YAMLEncoder struct{}

func (YAMLEncoder) Format() string { return "yaml" }

func (YAMLEncoder) Encode(w io.Writer, s *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot as YAML: %w", err)
	}
	return enc.Close()
}

// DecodeYAML reads a snapshot written by YAMLEncoder.
func DecodeYAML(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML snapshot: %w", err)
	}
	return &s, nil
}

// TextEncoder writes aligned joint and constraint tables.
type TextEncoder struct{}

func (TextEncoder) Format() string { return "text" }

func (TextEncoder) Encode(w io.Writer, s *Snapshot) error {
	status := "unsatisfied"
	if s.Satisfied {
		status = "satisfied"
	}
	if _, err := fmt.Fprintf(w, "simulation %s (%s)\n", s.Name, status); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOINT\tID\tKIND\tPOSITION")
	for _, j := range s.Joints {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", orDash(j.Name), j.ID, j.Kind, formatVec(j.Position))
	}
	if len(s.Constraints) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "#\tCONSTRAINT\tJOINTS\tSATISFIED")
		for _, c := range s.Constraints {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", c.Index, c.Kind, strings.Join(c.Joints, " "), c.Satisfied)
		}
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = strconv.FormatFloat(c, 'g', 6, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
