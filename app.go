package filediffs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

// Version is set by goreleaser via ldflags.
var Version = "dev"

// App runs diff commands against a Host.
type App struct {
	config *Config
	engine *Engine
	host   Host
	log    *slog.Logger

	mu       sync.Mutex
	launched []*Result
}

// New creates a new App from a loaded config.
func New(cfg *Config, host Host, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	engine, err := NewEngine(cfg, WithLogger(log))
	if err != nil {
		return nil, err
	}
	return &App{config: cfg, engine: engine, host: host, log: log}, nil
}

// Run compares the active view with source and presents the result.
// A dismissed prompt is not an error. An external tool is left running;
// call Wait to block until it exits.
func (app *App) Run(ctx context.Context, source Source) error {
	a, b, err := Resolve(ctx, app.host, source)
	if errors.Is(err, ErrCanceled) {
		app.log.DebugContext(ctx, "diff canceled", "source", source.Label(FileMode))
		return nil
	}
	if err != nil {
		return err
	}

	res, err := app.engine.Diff(ctx, a, b)
	if err != nil {
		return err
	}
	switch res.Outcome {
	case OutcomeNoDifference:
		app.host.Status("No Difference")
	case OutcomeReport:
		if err := app.host.ShowReport(res.Report); err != nil {
			return fmt.Errorf("failed to show diff: %w", err)
		}
	case OutcomeExternal:
		app.mu.Lock()
		app.launched = append(app.launched, res)
		app.mu.Unlock()
	}
	return nil
}

// Wait blocks until every external tool started by Run has exited and its
// units are released.
func (app *App) Wait(ctx context.Context) error {
	app.mu.Lock()
	launched := app.launched
	app.launched = nil
	app.mu.Unlock()

	var errs []error
	for _, res := range launched {
		// Diff tools commonly exit non-zero when the inputs differ.
		var exitErr *exec.ExitError
		if err := res.Wait(); errors.As(err, &exitErr) {
			app.log.InfoContext(ctx, "external diff tool exited", "code", exitErr.ExitCode())
		} else if err != nil {
			errs = append(errs, fmt.Errorf("external diff tool: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Menu lets the user pick one of the sources that apply to the active view
// and runs it.
func (app *App) Menu(ctx context.Context) error {
	sources, mode := Menu(app.host.ActiveView())
	labels := make([]string, len(sources))
	for i, s := range sources {
		labels[i] = s.Label(mode)
	}
	idx, err := choose(ctx, app.host, labels)
	if errors.Is(err, ErrCanceled) {
		return nil
	}
	if err != nil {
		return err
	}
	return app.Run(ctx, sources[idx])
}
