// Package app constructs every burrow component, owns them for the life
// of the process and runs the foreground input loop.
package app

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/burrow/internal/buffer"
	"github.com/dshills/burrow/internal/config"
	"github.com/dshills/burrow/internal/hook"
	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/layout"
	"github.com/dshills/burrow/internal/logging"
	"github.com/dshills/burrow/internal/mode"
	"github.com/dshills/burrow/internal/poll"
	"github.com/dshills/burrow/internal/renderer/backend"
	"github.com/dshills/burrow/internal/task"
	"github.com/dshills/burrow/internal/theme"
)

var errNoBackend = errors.New("no terminal backend")

// Name is the program name shown in the terminal title.
const Name = "burrow"

// ShutdownTimeout bounds the wait for background tasks on exit.
const ShutdownTimeout = 3 * time.Second

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty selects the default.
	ConfigPath string

	// LogLevel and HooksDir override the configuration when set.
	LogLevel string
	HooksDir string

	// NoThreads runs without background polling.
	NoThreads bool

	// Version is shown on the home screen and passed to hooks.
	Version string

	// Backend is the terminal. It is initialised by New and shut down by
	// Shutdown.
	Backend backend.Backend

	// LogOutput replaces the rotating log file.
	LogOutput io.Writer
}

// Application owns every manager. There are no package-level singletons:
// everything reachable from a mode or a hook was handed to it from here.
type Application struct {
	opts Options

	cfgMu   sync.RWMutex
	cfg     *config.Config
	watcher *config.Watcher

	log       *logging.Logger
	ring      *logging.Ring
	logCloser io.Closer
	logDirty  atomic.Bool

	theme    *theme.Theme
	backend  backend.Backend
	layout   *layout.Manager
	registry *keymap.Registry
	buffers  *buffer.Manager
	hooks    *hook.Manager
	tasks    *task.Supervisor
	poller   *poll.Manager
	spool    *poll.Spool
	metrics  *Metrics

	lastDrawErr string

	running  atomic.Bool
	quitting atomic.Bool
	closed   atomic.Bool
}

// New creates an Application. On error nothing needs shutting down.
func New(opts Options) (*Application, error) {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	app := &Application{
		opts:    opts,
		metrics: NewMetrics(),
	}
	if err := app.bootstrap(); err != nil {
		app.release()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes the components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration
	path := app.opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.cfg = app.applyFlags(cfg)

	// 2. Logging
	if err := app.initLogging(app.cfg); err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	app.log.Info("starting %s %s, config %s", Name, app.opts.Version, path)

	// 3. Theme
	app.theme, err = theme.New(app.cfg.Colors)
	if err != nil {
		return &InitError{Component: "theme", Err: err}
	}

	// 4. Terminal and layout
	if app.opts.Backend == nil {
		return &InitError{Component: "backend", Err: errNoBackend}
	}
	if err := app.opts.Backend.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}
	app.backend = app.opts.Backend
	if app.cfg.Mouse {
		app.backend.EnableMouse()
	}
	app.layout = layout.New(app.backend, func() layout.Settings {
		return app.Config().LayoutSettings()
	})

	// 5. Keymaps
	app.registry = keymap.NewRegistry()
	if err := mode.RegisterKeymaps(app.registry); err != nil {
		return &InitError{Component: "keymaps", Err: err}
	}
	if err := app.registerGlobalKeymap(); err != nil {
		return &InitError{Component: "keymaps", Err: err}
	}

	// 6. Hooks and buffers
	app.hooks = hook.New(app.cfg.HooksDir, hook.WithLogger(app.log))
	app.hooks.RegisterAll(buffer.HookDocs)
	app.hooks.RegisterAll(HookDocs)

	app.buffers, err = buffer.New(buffer.Config{
		Backend:      app.backend,
		Layout:       app.layout,
		Registry:     app.registry,
		Theme:        app.theme,
		Logger:       app.log,
		Hooks:        app.hooks,
		Labels:       labelSource{app},
		AppName:      Name,
		Version:      app.opts.Version,
		CancelKey:    app.cfg.Cancel(),
		GetchTimeout: app.cfg.GetchTimeout(),
	})
	if err != nil {
		return &InitError{Component: "buffers", Err: err}
	}
	app.hooks.SetUI(app.buffers)
	app.hooks.SetRegistry(app.registry)

	// 7. Background work
	app.tasks = task.NewSupervisor(
		task.WithLogger(app.log),
		task.WithFailureCallback(app.taskFailed),
	)
	app.poller = poll.New(app.buffers,
		poll.WithInterval(app.cfg.PollInterval.Std()),
		poll.WithHooks(app.hooks),
		poll.WithLogger(app.log),
	)
	if app.cfg.SpoolDir != "" {
		sp, err := poll.NewSpool(app.cfg.SpoolDir)
		if err != nil {
			app.log.Warn("%v", WrapError(err, "spool %s", app.cfg.SpoolDir))
		} else {
			app.spool = sp
			app.poller.AddSource(sp)
		}
	}

	// 8. Live configuration
	app.watcher = config.NewWatcher(path, cfg, config.WithWatcherLogger(app.log))
	app.watcher.OnChange(app.configChanged)
	app.watcher.OnError(func(err error) {
		app.buffers.Flash("Configuration not reloaded: " + err.Error())
	})

	// 9. User keybindings, before the registry freezes in Run.
	if _, err := app.hooks.Run(hook.Keybindings, nil); err != nil {
		app.log.Warn("keybindings hook: %v", err)
	}
	return nil
}

func (app *Application) initLogging(cfg *config.Config) error {
	out := app.opts.LogOutput
	if out == nil {
		f, err := logging.OpenFile(cfg.LogFileConfig())
		if err != nil {
			return WrapError(err, "open log file %s", cfg.LogFile)
		}
		app.logCloser = f
		out = f
	}
	app.ring = logging.NewRing(logging.DefaultRingSize)
	app.ring.OnAdd(func() { app.logDirty.Store(true) })
	app.log = logging.New(logging.Config{
		Level:  cfg.Level(),
		Output: out,
		Ring:   app.ring,
	})
	return nil
}

// applyFlags returns a copy of cfg with the command-line overrides
// applied.
func (app *Application) applyFlags(cfg *config.Config) *config.Config {
	cfg = cfg.Clone()
	if app.opts.LogLevel != "" {
		cfg.LogLevel = app.opts.LogLevel
	}
	if app.opts.HooksDir != "" {
		cfg.HooksDir = app.opts.HooksDir
	}
	return cfg
}

// Config returns the current configuration.
func (app *Application) Config() *config.Config {
	app.cfgMu.RLock()
	defer app.cfgMu.RUnlock()
	return app.cfg
}

// configChanged applies a reloaded configuration. Settings read on every
// redraw (split view, labels) take effect through Config; the rest is
// pushed to the components that cache it.
func (app *Application) configChanged(next *config.Config) {
	cfg := app.applyFlags(next)
	app.cfgMu.Lock()
	prev := app.cfg
	app.cfg = cfg
	app.cfgMu.Unlock()

	if err := app.theme.Load(cfg.Colors); err != nil {
		app.log.Warn("colors: %v", err)
	}
	app.buffers.SetCancelKey(cfg.Cancel())
	app.buffers.SetGetchTimeout(cfg.GetchTimeout())
	app.log.SetLevel(cfg.Level())
	app.poller.SetInterval(cfg.PollInterval.Std())
	if cfg.Mouse != prev.Mouse {
		if cfg.Mouse {
			app.backend.EnableMouse()
		} else {
			app.backend.DisableMouse()
		}
	}
	if cfg.HooksDir != prev.HooksDir {
		app.log.Info("hooks_dir changes take effect on restart")
	}
	app.log.Info("configuration reloaded")
	app.buffers.SigwinchHappened()
}

func (app *Application) taskFailed(t *task.Task) {
	app.buffers.Flash("Background task " + t.Name + " failed: " + t.Err().Error())
}

// Buffers returns the buffer manager.
func (app *Application) Buffers() *buffer.Manager { return app.buffers }

// Registry returns the keymap registry. Bindings must be added before
// Run.
func (app *Application) Registry() *keymap.Registry { return app.registry }

// Hooks returns the hook manager.
func (app *Application) Hooks() *hook.Manager { return app.hooks }

// Tasks returns the background task supervisor.
func (app *Application) Tasks() *task.Supervisor { return app.tasks }

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger { return app.log }

// Metrics returns the main-loop counters.
func (app *Application) Metrics() *Metrics { return app.metrics }

// labelSource adapts the live label configuration for label prompts.
type labelSource struct{ app *Application }

func (l labelSource) UserLabels() []string { return l.app.Config().Labels.User }

func (l labelSource) Reserved() []string { return l.app.Config().Labels.Reserved }

// startBackground starts the supervised tasks.
func (app *Application) startBackground() {
	start := func(name string, fn task.Func) {
		if _, err := app.tasks.Go(name, fn); err != nil {
			app.log.Warn("start %s: %v", name, err)
		}
	}
	start("config-watcher", app.watcher.Run)
	if app.opts.NoThreads {
		app.log.Info("background polling disabled")
		return
	}
	if app.Config().PollInterval > 0 {
		start("poll", app.poller.Run)
	}
	if app.spool != nil {
		start("spool-watch", app.spool.Watch)
	}
}

// runHook runs a hook whose result is unused, logging failures.
func (app *Application) runHook(name string, vars map[string]any) {
	if _, err := app.hooks.Run(name, vars); err != nil {
		app.log.Warn("%s hook: %v", name, err)
		app.buffers.Flash("Hook " + name + " failed, see the log")
	}
}
