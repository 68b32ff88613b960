// Command burrow runs the burrow console.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/burrow/internal/app"
	"github.com/dshills/burrow/internal/buffer"
	"github.com/dshills/burrow/internal/config"
	"github.com/dshills/burrow/internal/hook"
	"github.com/dshills/burrow/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var errNotTerminal = errors.New("burrow must be run in a terminal")

type rootFlags struct {
	configPath string
	logLevel   string
	hooksDir   string
	noThreads  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	cmd := &cobra.Command{
		Use:   "burrow",
		Short: "A console with stacked buffers, split panes and Lua hooks",
		Long: `burrow multiplexes several views onto one terminal. Buffers are stacked,
the screen may be split in two, and prompts complete as you type.

Settings are read from config.yaml or config.toml in ` + config.Dir() + `
and may be overridden with BURROW_* environment variables.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(f)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "configuration file")
	pf.StringVar(&f.hooksDir, "hooks-dir", "", "directory holding Lua hooks")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.noThreads, "no-threads", false, "disable background polling")

	cmd.AddCommand(newVersionCmd(), newHooksCmd(&f))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "burrow %s\nCommit: %s\nBuilt: %s\n", version, commit, date)
		},
	}
}

func newHooksCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "hooks",
		Short: "List the hooks and whether each is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := f.hooksDir
			if dir == "" {
				cfg, err := config.Load(f.configPath)
				if err != nil {
					return err
				}
				dir = cfg.HooksDir
			}
			m := hook.New(dir)
			defer m.Close()
			m.RegisterAll(buffer.HookDocs)
			m.RegisterAll(app.HookDocs)
			fmt.Fprint(cmd.OutOrStdout(), app.HookListing(m))
			return nil
		},
	}
}

func run(f rootFlags) error {
	switch f.logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", f.logLevel)
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal
	}

	terminal, err := backend.NewTerminal()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	application, err := app.New(app.Options{
		ConfigPath: f.configPath,
		LogLevel:   f.logLevel,
		HooksDir:   f.hooksDir,
		NoThreads:  f.noThreads,
		Version:    version,
		Backend:    terminal,
	})
	if err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		<-signals
		application.Quit()
	}()

	runErr := application.Run()
	if err := application.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "burrow: %v\n", err)
	}
	return runErr
}
