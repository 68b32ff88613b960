package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dshills/burrow/internal/buffer"
	"github.com/dshills/burrow/internal/hook"
	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/mode"
	"github.com/dshills/burrow/internal/task"
)

// Global actions. They run when the focused mode does not bind a key.
const (
	ActionQuitAsk              keymap.Action = "quit-ask"
	ActionQuitNow              keymap.Action = "quit-now"
	ActionHelp                 keymap.Action = "help"
	ActionRollBuffers          keymap.Action = "roll-buffers"
	ActionRollBuffersBackwards keymap.Action = "roll-buffers-backwards"
	ActionKillBuffer           keymap.Action = "kill-buffer"
	ActionListBuffers          keymap.Action = "list-buffers"
	ActionJumpToBuffer         keymap.Action = "jump-to-buffer"
	ActionShowLog              keymap.Action = "show-log"
	ActionShowTasks            keymap.Action = "show-tasks"
	ActionShowHooks            keymap.Action = "show-hooks"
	ActionPoll                 keymap.Action = "poll"
	ActionShellOut             keymap.Action = "shell-out"
	ActionViewFile             keymap.Action = "view-file"
	ActionReloadConfig         keymap.Action = "reload-config"
)

// Titles of the singleton system buffers.
const (
	HomeTitle    = "burrow"
	LogTitle     = "Log"
	BuffersTitle = "Buffer List"
	TasksTitle   = "Background Tasks"
	HooksTitle   = "Hooks"
)

// maxViewSize bounds files opened with view-file.
const maxViewSize = 4 << 20

// HookDocs describes the hooks run by the application itself.
var HookDocs = map[string]string{
	hook.Startup: `Executed at startup, after the home screen is shown.

Variables:
  version: the burrow version
Return value: none.`,
	hook.AfterPoll: `Executed after a poll that found new messages.

Variables:
  num: number of new messages
Return value: none.`,
	hook.Keybindings: `Adds keybindings. Call bind(mode, key, description, fn) for each one;
mode is a keymap name such as "global" or "scroll-mode", and fn is called
with the name of the active mode.

Variables: none
Return value: none.`,
}

type globalBinding struct {
	action keymap.Action
	desc   string
	fn     keymap.HookFunc
	keys   []string
}

func (app *Application) globalBindings() []globalBinding {
	return []globalBinding{
		{ActionQuitAsk, "Quit, but ask first", app.quitAsk, []string{"q"}},
		{ActionQuitNow, "Quit immediately", app.quitNow, []string{"Q"}},
		{ActionHelp, "Show help", app.help, []string{"?"}},
		{ActionRollBuffers, "Switch to next buffer", app.rollBuffers, []string{"b"}},
		{ActionRollBuffersBackwards, "Switch to previous buffer", app.rollBuffersBackwards, []string{"B"}},
		{ActionKillBuffer, "Kill the current buffer", app.killBuffer, []string{"x"}},
		{ActionListBuffers, "List all buffers", app.listBuffers, []string{";"}},
		{ActionShowLog, "Show the log", app.showLog, []string{"~"}},
		{ActionShowTasks, "Show background tasks", app.showTasks, []string{"T"}},
		{ActionShowHooks, "Show hooks", app.showHooks, []string{"H"}},
		{ActionPoll, "Poll for new messages", app.pollNow, []string{"P"}},
		{ActionShellOut, "Run a shell command", app.shellOut, []string{"!"}},
		{ActionViewFile, "View a file", app.viewFile, []string{"o"}},
		{ActionReloadConfig, "Reload the configuration", app.reloadConfig, []string{"C-r"}},
	}
}

// registerGlobalKeymap defines the global keymap and its action hooks.
func (app *Application) registerGlobalKeymap() error {
	gk, err := app.registry.Define(keymap.GlobalKeymap, nil)
	if err != nil {
		return err
	}
	for _, b := range app.globalBindings() {
		if err := app.registry.Bind(keymap.GlobalKeymap, b.action, b.desc, b.fn, b.keys...); err != nil {
			return err
		}
	}
	if err := app.registry.RegisterHook(ActionJumpToBuffer, app.jumpToBuffer); err != nil {
		return err
	}
	return gk.AddMulti("Buffer commands", "C-x", func(km *keymap.Keymap) error {
		return errors.Join(
			km.Add(ActionJumpToBuffer, "Jump to a buffer by name", "b"),
			km.Add(ActionKillBuffer, "Kill the current buffer", "k"),
			km.Add(ActionQuitAsk, "Quit, but ask first", "C-c"),
		)
	})
}

func (app *Application) quitAsk(string) error {
	yes, answered, err := app.buffers.AskYesOrNo("Really quit?")
	if err != nil {
		return err
	}
	if !answered || !yes {
		return nil
	}
	return app.quitNow("")
}

func (app *Application) quitNow(string) error {
	if !app.buffers.KillAllBuffersSafely() {
		app.buffers.Flash("A buffer refused to close")
		return nil
	}
	return ErrQuit
}

func (app *Application) help(modeName string) error {
	var sections []mode.HelpSection
	if b := app.buffers.FocusBuffer(); b != nil {
		if km, ok := b.Mode().(interface{ Keymaps() []*keymap.Keymap }); ok {
			sections = append(sections, mode.HelpSection{
				Title:   "Keybindings for " + modeName,
				Keymaps: km.Keymaps(),
			})
		}
	}
	sections = append(sections, mode.HelpSection{
		Title:   "Global keybindings",
		Keymaps: []*keymap.Keymap{app.registry.KeymapOrEmpty(keymap.GlobalKeymap)},
	})
	_, _, err := app.buffers.SpawnUnlessExists("Help for "+modeName, buffer.SpawnOptions{}, func() (mode.Mode, error) {
		return mode.NewHelp(app.registry, sections...), nil
	})
	return err
}

func (app *Application) rollBuffers(string) error {
	app.buffers.RollBuffers()
	return nil
}

func (app *Application) rollBuffersBackwards(string) error {
	app.buffers.RollBuffersBackwards()
	return nil
}

func (app *Application) killBuffer(string) error {
	b := app.buffers.FocusBuffer()
	if b == nil {
		return ErrNoBuffer
	}
	killed, err := app.buffers.KillBufferSafely(b)
	if err != nil {
		return &OperationError{Op: string(ActionKillBuffer), Target: b.Title(), Err: err}
	}
	if !killed {
		app.buffers.Flash(fmt.Sprintf("Buffer %q stays open", b.Title()))
	}
	return nil
}

func (app *Application) listBuffers(string) error {
	b, created, err := app.buffers.SpawnUnlessExists(BuffersTitle, buffer.SpawnOptions{System: true}, func() (mode.Mode, error) {
		return mode.NewBufferList(app.registry, app.buffers), nil
	})
	if err != nil {
		return err
	}
	if !created {
		if bl, ok := b.Mode().(*mode.BufferList); ok {
			bl.Reload()
		}
	}
	return nil
}

func (app *Application) jumpToBuffer(string) error {
	b, ok, err := app.buffers.AskForBuffer("buffer", "Jump to buffer: ")
	if err != nil || !ok || b == nil {
		return err
	}
	app.buffers.RaiseToFront(b)
	return nil
}

func (app *Application) showLog(string) error {
	_, _, err := app.buffers.SpawnUnlessExists(LogTitle, buffer.SpawnOptions{System: true}, func() (mode.Mode, error) {
		return mode.NewLog(app.registry, app.ring), nil
	})
	return err
}

// refreshLog reloads the log view after new lines were logged.
func (app *Application) refreshLog() {
	if !app.logDirty.Swap(false) {
		return
	}
	b := app.buffers.Get(LogTitle)
	if b == nil {
		return
	}
	if l, ok := b.Mode().(*mode.Log); ok {
		l.Update()
		b.MarkDirty()
	}
}

func (app *Application) showTasks(string) error {
	if b := app.buffers.Get(TasksTitle); b != nil {
		if err := app.buffers.KillBuffer(b); err != nil {
			return err
		}
	}
	var sb strings.Builder
	tasks := app.tasks.List()
	if len(tasks) == 0 {
		sb.WriteString("No background tasks.\n")
	}
	for _, t := range tasks {
		fmt.Fprintf(&sb, "%-9s %-16s started %s", t.State(), t.Name, t.Started.Format(time.TimeOnly))
		if t.State() != task.StateRunning {
			fmt.Fprintf(&sb, ", finished %s", t.Finished().Format(time.TimeOnly))
		}
		if err := t.Err(); err != nil {
			fmt.Fprintf(&sb, ": %v", err)
		}
		sb.WriteString("\n")
	}
	if last := app.poller.LastPoll(); !last.IsZero() {
		fmt.Fprintf(&sb, "\nLast poll at %s, every %s.\n", last.Format(time.TimeOnly), app.poller.Interval())
	}
	sb.WriteString("\n")
	sb.WriteString(app.metrics.Snapshot().String())
	_, err := app.buffers.Spawn(TasksTitle, mode.NewText(app.registry, sb.String(), mode.ScrollOptions{}), buffer.SpawnOptions{System: true})
	return err
}

func (app *Application) showHooks(string) error {
	_, _, err := app.buffers.SpawnUnlessExists(HooksTitle, buffer.SpawnOptions{System: true}, func() (mode.Mode, error) {
		return mode.NewText(app.registry, HookListing(app.hooks), mode.ScrollOptions{}), nil
	})
	return err
}

// HookListing describes every documented hook and whether it is
// installed.
func HookListing(m *hook.Manager) string {
	installed := make(map[string]bool)
	for _, name := range m.Installed() {
		installed[name] = true
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hooks are loaded from %s.\n", m.Dir())
	for _, d := range m.Docs() {
		state := "not installed"
		if installed[d.Name] {
			state = "installed"
		}
		fmt.Fprintf(&sb, "\n%s (%s)\n%s\n%s\n", d.Name, state, strings.Repeat("-", len(d.Name)), d.Description)
	}
	return sb.String()
}

func (app *Application) pollNow(string) error {
	// Failures are flashed by the poller.
	_, ran, _ := app.poller.Poll(context.Background())
	if !ran {
		app.buffers.Flash("A poll is already running")
	}
	return nil
}

func (app *Application) shellOut(string) error {
	cmd, ok, err := app.buffers.Ask("shell", "Shell command: ", "", nil)
	if err != nil || !ok || strings.TrimSpace(cmd) == "" {
		return err
	}
	success, err := app.buffers.ShellOut(cmd, false)
	if err != nil {
		return &OperationError{Op: string(ActionShellOut), Target: cmd, Err: err}
	}
	if !success {
		app.buffers.Flash(fmt.Sprintf("%q failed", cmd))
	}
	return app.buffers.CompletelyRedrawScreen()
}

func (app *Application) viewFile(string) error {
	path, ok, err := app.buffers.AskForFilename("filename", "View file: ", "", false)
	if err != nil || !ok {
		return err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return &OperationError{Op: string(ActionViewFile), Target: path, Err: err}
	}
	if fi.Size() > maxViewSize {
		return &OperationError{Op: string(ActionViewFile), Target: path, Err: fmt.Errorf("file is larger than %d bytes", maxViewSize)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &OperationError{Op: string(ActionViewFile), Target: path, Err: err}
	}
	_, err = app.buffers.Spawn(path, mode.NewText(app.registry, string(data), mode.ScrollOptions{}), buffer.SpawnOptions{})
	return err
}

func (app *Application) reloadConfig(string) error {
	if err := app.watcher.Reload(); err != nil {
		return &OperationError{Op: string(ActionReloadConfig), Target: app.watcher.Path(), Err: err}
	}
	app.buffers.Flash("Configuration reloaded")
	return nil
}

// spawnHome creates the home view, which stays until quit.
func (app *Application) spawnHome() error {
	text := fmt.Sprintf(`%s %s

Press ? for help, ; for the buffer list, q to quit.

Configuration: %s
Hooks: %s
`, Name, app.opts.Version, app.watcher.Path(), app.hooks.Dir())
	if app.spool != nil {
		text += fmt.Sprintf("Spool: %s, polled every %s\n", app.spool.Dir(), app.poller.Interval())
	}
	_, err := app.buffers.Spawn(HomeTitle, mode.NewText(app.registry, text, mode.ScrollOptions{Home: true}), buffer.SpawnOptions{})
	return err
}
