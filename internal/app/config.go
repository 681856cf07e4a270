package app

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/specialistvlad/ugokugo/internal/snapshot"
)

// Default solver settings used when neither flags nor a scenario override them.
const (
	DefaultIterations = 10
	DefaultDT         = 0.016
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProgramPath  string // .ugoku file or directory
	ScenarioPath string // optional HCL scenario

	Iterations   int
	DT           float64
	CheckOnly    bool
	OutputFormat string

	LogFormat string
	LogLevel  string

	ViewerURL       string
	ViewerNamespace string
	HealthcheckPort int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ProgramPath == "" {
		return nil, errors.New("ProgramPath is a required configuration field and cannot be empty")
	}
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("iterations must not be negative, got %d", cfg.Iterations)
	}
	if math.IsNaN(cfg.DT) || math.IsInf(cfg.DT, 0) {
		return nil, fmt.Errorf("dt must be a finite number, got %v", cfg.DT)
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "yaml"
	}
	if !slices.Contains(snapshot.Formats, cfg.OutputFormat) {
		return nil, fmt.Errorf("invalid output format %q", cfg.OutputFormat)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort)
	}
	if cfg.ViewerURL != "" && cfg.CheckOnly {
		return nil, errors.New("a viewer connection cannot be combined with check-only mode")
	}
	if cfg.ViewerNamespace == "" {
		cfg.ViewerNamespace = "/"
	}
	return &cfg, nil
}
