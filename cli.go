package filediffs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	logLevel   string
	terminal   TerminalOption
}

// CLI builds and returns the root cobra command.
func CLI() *cobra.Command {
	var g globalOptions
	root := &cobra.Command{
		Use:   "filediffs",
		Short: "Diff a file or selection with the clipboard, the saved file, another file or an open tab",
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to config YAML file (default: user config dir)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	root.AddCommand(
		menuCmd(&g),
		sourceCmd(&g, "clipboard", "Diff the file or selection with the clipboard", SourceClipboard),
		sourceCmd(&g, "selections", "Diff two selections of the file", SourceSelections),
		sourceCmd(&g, "saved", "Diff the unsaved buffer with the saved file", SourceSaved),
		sourceCmd(&g, "file", "Diff the file or selection with another file in the project", SourceFile),
		sourceCmd(&g, "tab", "Diff the file or selection with another open file", SourceTab),
		initCmd(&g),
		versionCmd(),
	)
	return root
}

func addViewFlags(cmd *cobra.Command, opt *TerminalOption) {
	cmd.Flags().StringVar(&opt.File, "file", "", "Active file")
	cmd.Flags().StringVar(&opt.Buffer, "buffer", "", "Unsaved content of the active view: a path, or - for stdin")
	cmd.Flags().StringArrayVar(&opt.Selections, "select", nil, "Selected line range START:END of the active view (repeatable)")
	cmd.Flags().StringArrayVar(&opt.Tabs, "tab", nil, "Another open file (repeatable)")
	cmd.Flags().StringArrayVar(&opt.Roots, "root", nil, "Project folder (repeatable, default: current directory)")
	cmd.Flags().StringVar(&opt.Pick, "pick", "", "Answer the prompt with an index (1-based) or a label")
}

func menuCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Choose how to diff the active view",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			return runAndWait(cmd.Context(), app, app.Menu)
		},
	}
	addViewFlags(cmd, &g.terminal)
	return cmd
}

func sourceCmd(g *globalOptions, use, short string, source Source) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			return runAndWait(cmd.Context(), app, func(ctx context.Context) error {
				return app.Run(ctx, source)
			})
		},
	}
	addViewFlags(cmd, &g.terminal)
	return cmd
}

// runAndWait keeps the process alive until launched diff tools exit, so their
// temp files are removed.
func runAndWait(ctx context.Context, app *App, run func(context.Context) error) error {
	err := run(ctx)
	return errors.Join(err, app.Wait(ctx))
}

func newApp(cmd *cobra.Command, g *globalOptions) (*App, error) {
	log, err := newLogger(cmd.ErrOrStderr(), g.logLevel)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	opt := g.terminal
	if len(opt.Roots) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		opt.Roots = []string{wd}
	}
	host, err := NewTerminalHost(opt, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return New(cfg, host, log)
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func initCmd(g *globalOptions) *cobra.Command {
	var opt InitOption
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			opt.Path = g.configPath
			path, err := Init(opt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&opt.Cmd, "cmd", nil, "External diff command token, e.g. --cmd meld --cmd '$file1' --cmd '$file2'")
	cmd.Flags().BoolVar(&opt.Force, "force", false, "Overwrite an existing config file")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "filediffs %s\n", Version)
		},
	}
}

// Run executes the CLI with signal handling.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := CLI()
	cmd.SetContext(ctx)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}
