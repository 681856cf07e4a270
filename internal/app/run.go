package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/specialistvlad/ugokugo/internal/bridge"
	"github.com/specialistvlad/ugokugo/internal/compiler"
	"github.com/specialistvlad/ugokugo/internal/ctxlog"
	"github.com/specialistvlad/ugokugo/internal/fsutil"
	"github.com/specialistvlad/ugokugo/internal/scenario"
	"github.com/specialistvlad/ugokugo/internal/sim"
	"github.com/specialistvlad/ugokugo/internal/snapshot"
	"golang.org/x/sync/errgroup"
)

// ProgramExtension is the file extension of mechanism programs.
const ProgramExtension = ".ugoku"

// ErrNoPrograms is returned when the program path holds no program files.
var ErrNoPrograms = errors.New("no programs found")

type compiled struct {
	path    string
	sim     *sim.Simulation
	symbols *compiler.Symbols
}

// Run compiles every program under the configured path, replays the scenario
// against each one and writes the resulting snapshots. With a viewer URL or a
// health check port it then keeps serving until ctx is cancelled.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	files, err := fsutil.FindFilesByExtension(a.config.ProgramPath, ProgramExtension)
	if err != nil {
		return fmt.Errorf("failed to find programs in %s: %w", a.config.ProgramPath, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoPrograms, a.config.ProgramPath)
	}
	if a.config.ViewerURL != "" && len(files) != 1 {
		return fmt.Errorf("a viewer connection needs exactly one program, found %d", len(files))
	}
	a.logger.Debug("Programs found.", "count", len(files))

	programs, err := compileAll(ctx, files)
	if err != nil {
		return err
	}

	if a.config.CheckOnly {
		for _, p := range programs {
			fmt.Fprintf(a.outW, "%s: ok (%d joints, %d links, %d constraints)\n",
				p.path, p.sim.JointCount(), p.sim.LinkCount(), len(p.sim.Constraints()))
		}
		a.logger.Info("All programs compiled.", "count", len(programs))
		return nil
	}

	sc := &scenario.Scenario{}
	if a.config.ScenarioPath != "" {
		if sc, err = scenario.Load(ctx, a.config.ScenarioPath); err != nil {
			return err
		}
	}
	settings := sc.Settings(scenario.Settings{Iterations: a.config.Iterations, DT: a.config.DT})

	enc, err := snapshot.NewEncoder(a.config.OutputFormat)
	if err != nil {
		return err
	}

	for i, p := range programs {
		if err := scenario.Replay(ctx, p.sim, p.symbols, sc, settings); err != nil {
			return fmt.Errorf("failed to replay scenario on %s: %w", p.path, err)
		}
		if i > 0 {
			if err := a.writeSeparator(enc.Format()); err != nil {
				return err
			}
		}
		snap := snapshot.Take(p.sim, p.symbols)
		if err := enc.Encode(a.outW, snap); err != nil {
			return err
		}
		if !snap.Satisfied {
			a.logger.Warn("Constraints not satisfied after stepping.", "program", p.path, "iterations", settings.Iterations)
		}
	}

	var session *bridge.Session
	if len(programs) == 1 {
		session = bridge.NewSession(programs[0].sim, programs[0].symbols, settings)
	}
	if err := a.startHealthCheckServer(session); err != nil {
		return err
	}
	defer func() {
		if cerr := a.closeHealthCheckServer(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if a.config.ViewerURL != "" {
		client, err := bridge.Dial(ctx, bridge.Options{
			URL:       a.config.ViewerURL,
			Namespace: a.config.ViewerNamespace,
		}, session)
		if err != nil {
			return fmt.Errorf("failed to connect to viewer: %w", err)
		}
		a.logger.Info("Serving viewer until interrupted.", "url", a.config.ViewerURL)
		if err := client.Run(ctx); err != nil {
			return err
		}
	} else if a.httpServer != nil {
		a.logger.Info("Serving health checks until interrupted.", "port", a.config.HealthcheckPort)
		<-ctx.Done()
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// compileAll compiles files concurrently. The result keeps the order of files.
func compileAll(ctx context.Context, files []string) ([]compiled, error) {
	programs := make([]compiled, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			s, syms, err := compiler.CompileFile(ctx, path)
			if err != nil {
				return fmt.Errorf("failed to compile %s: %w", path, err)
			}
			programs[i] = compiled{path: path, sim: s, symbols: syms}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return programs, nil
}

func (a *App) writeSeparator(format string) error {
	sep := "\n"
	if format == "yaml" {
		sep = "---\n"
	}
	_, err := fmt.Fprint(a.outW, sep)
	return err
}
