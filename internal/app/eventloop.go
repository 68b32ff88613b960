package app

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dshills/burrow/internal/buffer"
	"github.com/dshills/burrow/internal/hook"
	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/renderer/backend"
)

// Run shows the home screen and processes input until an action quits or
// Quit is called. The keymap registry is frozen first; bindings added
// later fail.
func (app *Application) Run() error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	app.registry.Freeze()
	if err := app.spawnHome(); err != nil {
		return &InitError{Component: "home", Err: err}
	}
	app.redraw()
	app.runHook(hook.Startup, map[string]any{"version": app.opts.Version})
	app.startBackground()

	for !app.quitting.Load() {
		app.redraw()
		ev, ok := app.buffers.GetEvent()
		if !ok {
			continue
		}
		app.handleEvent(ev)
	}
	app.log.Info("main loop done")
	return nil
}

// Quit ends Run after the current action. Safe from any goroutine.
func (app *Application) Quit() {
	app.quitting.Store(true)
	app.backend.PostEvent(backend.KeyEvent(buffer.RedrawKey))
}

// Quitting reports whether the main loop is ending.
func (app *Application) Quitting() bool {
	return app.quitting.Load()
}

// handleEvent routes one event. A key goes to the focused mode first and
// to the global keymap when the mode does not bind it. A panic in a mode
// or action is logged and flashed, never fatal.
func (app *Application) handleEvent(ev backend.Event) {
	defer func() {
		if r := recover(); r != nil {
			err := &RecoveredPanicError{Value: r, Stack: string(debug.Stack())}
			app.log.Error("%v", err)
			app.buffers.Flash(fmt.Sprintf("Internal error: %v", r))
		}
	}()

	if ev.Type == backend.EventMouse {
		app.metrics.RecordClick()
		app.buffers.HandleInput(ev)
		return
	}

	app.metrics.RecordKey()
	app.buffers.EraseFlash()

	modeName := keymap.GlobalKeymap
	if b := app.buffers.FocusBuffer(); b != nil {
		modeName = b.Mode().Name()
	}

	res := app.buffers.HandleInput(ev)
	switch res.Status {
	case keymap.Aborted:
		app.metrics.RecordAborted()
		return
	case keymap.Found:
		if !res.Handled {
			app.perform(res.Action, modeName)
		}
		return
	}

	res = app.buffers.ResolveInput(ev.Key, app.registry.KeymapOrEmpty(keymap.GlobalKeymap))
	switch res.Status {
	case keymap.Found:
		app.perform(res.Action, modeName)
	case keymap.Aborted:
		app.metrics.RecordAborted()
	default:
		app.metrics.RecordUnbound()
		app.buffers.Flash(fmt.Sprintf("Unknown keypress '%s' for %s.", ev.Key, modeName))
	}
}

// perform runs the hook registered for action.
func (app *Application) perform(action keymap.Action, modeName string) {
	fn, ok := app.registry.Hook(action)
	if !ok {
		app.log.Warn("action %s has no handler", action)
		return
	}
	err := fn(modeName)
	switch {
	case err == nil:
	case errors.Is(err, ErrQuit):
		app.quitting.Store(true)
	default:
		app.metrics.RecordActionError()
		app.log.Warn("%s: %v", action, err)
		app.buffers.Flash(err.Error())
	}
}

// redraw refreshes the log view if needed and draws the screen. A layout
// failure is flashed once until it changes.
func (app *Application) redraw() {
	app.refreshLog()
	start := time.Now()
	err := app.buffers.DrawScreen(buffer.DrawOptions{Refresh: true})
	app.metrics.RecordDraw(time.Since(start), err)
	if err == nil {
		app.lastDrawErr = ""
		return
	}
	if msg := err.Error(); msg != app.lastDrawErr {
		app.lastDrawErr = msg
		app.log.Error("redraw: %v", err)
		app.buffers.Flash(msg)
	}
}
