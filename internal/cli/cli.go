package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/ugokugo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("ugokugo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
ugokugo - compile mechanism programs and relax their constraints.

Usage:
  ugokugo [options] [PROGRAM_PATH]

Arguments:
  PROGRAM_PATH
    Path to a single .ugoku file or a directory containing .ugoku files.

Options:
`)
		flagSet.PrintDefaults()
	}

	programFlag := flagSet.String("program", "", "Path to the program file or directory.")
	pFlag := flagSet.String("p", "", "Path to the program file or directory (shorthand).")
	scenarioFlag := flagSet.String("scenario", "", "Path to an HCL scenario file with drag input to replay.")
	iterationsFlag := flagSet.Int("iterations", app.DefaultIterations, "Solver iterations per step. Each iteration runs two passes over the constraints.")
	dtFlag := flagSet.Float64("dt", app.DefaultDT, "Time step passed to the solver.")
	checkFlag := flagSet.Bool("check", false, "Only compile the programs and report what they declare.")
	outputFormatFlag := flagSet.String("output-format", "yaml", "Snapshot output format. Options: 'yaml' or 'text'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	viewerURLFlag := flagSet.String("viewer-url", "", "socket.io URL of a viewer to stream state to, e.g. http://localhost:3000/socket.io/.")
	viewerNamespaceFlag := flagSet.String("viewer-namespace", "/", "socket.io namespace of the viewer.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server, served until interrupted. 0 is disabled.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *programFlag != "" {
		path = *programFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Program path determined.", "path", path)

	if path == "" {
		slog.Debug("No program path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	outputFormat := strings.ToLower(*outputFormatFlag)
	if outputFormat != "yaml" && outputFormat != "text" {
		return nil, false, &ExitError{Code: 2, Message: "invalid output-format: must be 'yaml' or 'text'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ProgramPath:     path,
		ScenarioPath:    *scenarioFlag,
		Iterations:      *iterationsFlag,
		DT:              *dtFlag,
		CheckOnly:       *checkFlag,
		OutputFormat:    outputFormat,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		ViewerURL:       *viewerURLFlag,
		ViewerNamespace: *viewerNamespaceFlag,
		HealthcheckPort: *healthPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
