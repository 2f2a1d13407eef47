package filediffs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ErrExternalTool is returned when the configured diff command cannot be started.
var ErrExternalTool = errors.New("failed to start external diff tool")

// Outcome tells what a diff produced.
type Outcome int

const (
	// OutcomeReport means Result.Report holds a unified diff.
	OutcomeReport Outcome = iota
	// OutcomeNoDifference means both sides have identical lines.
	OutcomeNoDifference
	// OutcomeExternal means an external tool was started to show the diff.
	OutcomeExternal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReport:
		return "report"
	case OutcomeNoDifference:
		return "no difference"
	case OutcomeExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Result is the outcome of Engine.Diff.
type Result struct {
	Outcome Outcome
	Report  string

	done <-chan error
}

// Wait blocks until a delegated external tool has exited and both units have
// been released. It returns the tool's exit error. For other outcomes it
// returns nil immediately.
func (r *Result) Wait() error {
	if r.done == nil {
		return nil
	}
	return <-r.done
}

// Engine diffs two units, either in process or with an external tool.
type Engine struct {
	cmd     []string
	context int
	match   lineMatcher
	log     *slog.Logger

	command func(name string, args ...string) *exec.Cmd
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for lifecycle and cleanup messages.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine returns an Engine for cfg. The config must have been validated.
func NewEngine(cfg *Config, opts ...EngineOption) (*Engine, error) {
	match, err := matcherFor(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cmd:     slices.Clone(cfg.Cmd),
		context: cfg.ContextLines(),
		match:   match,
		log:     slog.Default(),
		command: exec.Command,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Diff compares a and b. The engine takes ownership of both units: they are
// closed when Diff returns, or, for an external tool, once the tool exits.
func (e *Engine) Diff(ctx context.Context, a, b *Unit) (*Result, error) {
	log := e.log.With("op", uuid.NewString())
	if len(e.cmd) > 0 {
		return e.delegate(log, a, b)
	}
	defer e.release(log, a, b)

	linesA, err := a.Lines()
	if err != nil {
		return nil, err
	}
	linesB, err := b.Lines()
	if err != nil {
		return nil, err
	}
	if slices.Equal(linesA, linesB) {
		log.DebugContext(ctx, "no difference")
		return &Result{Outcome: OutcomeNoDifference}, nil
	}

	labelA, err := a.Caption()
	if err != nil {
		return nil, err
	}
	labelB, err := b.Caption()
	if err != nil {
		return nil, err
	}
	report := unifiedDiff(linesA, linesB, labelA, labelB, e.context, e.match)
	log.DebugContext(ctx, "diff computed", "from", labelA, "to", labelB, "bytes", len(report))
	return &Result{Outcome: OutcomeReport, Report: report}, nil
}

// delegate starts the external tool and releases the units after it exits.
func (e *Engine) delegate(log *slog.Logger, a, b *Unit) (*Result, error) {
	args, err := e.commandLine(a, b)
	if err != nil {
		e.release(log, a, b)
		return nil, err
	}
	cmd := e.command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		e.release(log, a, b)
		return nil, fmt.Errorf("%w %q: %w", ErrExternalTool, args[0], err)
	}
	log.Info("external diff tool started", "args", args, "pid", cmd.Process.Pid)

	done := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		if err != nil {
			log.Warn("external diff tool exited", "err", err)
		} else {
			log.Debug("external diff tool exited")
		}
		e.release(log, a, b)
		done <- err
		close(done)
	}()
	return &Result{Outcome: OutcomeExternal, done: done}, nil
}

// commandLine substitutes $file1, $file2, $caption1 and $caption2 into the
// configured command, in that order.
func (e *Engine) commandLine(a, b *Unit) ([]string, error) {
	file1, err := a.Path()
	if err != nil {
		return nil, err
	}
	file2, err := b.Path()
	if err != nil {
		return nil, err
	}
	caption1, err := a.Caption()
	if err != nil {
		return nil, err
	}
	caption2, err := b.Caption()
	if err != nil {
		return nil, err
	}
	args := slices.Clone(e.cmd)
	for i := range args {
		args[i] = strings.ReplaceAll(args[i], "$file1", file1)
		args[i] = strings.ReplaceAll(args[i], "$file2", file2)
		args[i] = strings.ReplaceAll(args[i], "$caption1", caption1)
		args[i] = strings.ReplaceAll(args[i], "$caption2", caption2)
	}
	return args, nil
}

func (e *Engine) release(log *slog.Logger, units ...*Unit) {
	for _, u := range units {
		if err := u.Close(); err != nil {
			log.Error("failed to release diff unit", "err", err)
		}
	}
}
