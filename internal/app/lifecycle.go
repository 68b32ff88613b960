package app

// Shutdown stops background tasks, kills every buffer and gives the
// terminal back. It is safe to call more than once.
func (app *Application) Shutdown() error {
	if app.closed.Swap(true) {
		return nil
	}
	app.quitting.Store(true)

	var err error
	if app.tasks != nil {
		if err = app.tasks.Shutdown(ShutdownTimeout); err != nil {
			app.log.Warn("shutdown: %v", err)
		}
	}
	if app.buffers != nil {
		app.buffers.KillAllBuffers()
	}
	app.release()
	return err
}

// release frees what bootstrap acquired, in reverse order. Components
// that were never created are skipped.
func (app *Application) release() {
	if app.hooks != nil {
		if err := app.hooks.Close(); err != nil {
			app.log.Warn("close hooks: %v", err)
		}
	}
	if app.backend != nil {
		app.backend.Shutdown()
	}
	if app.log != nil {
		app.log.Info("%s exiting", Name)
	}
	if app.logCloser != nil {
		_ = app.logCloser.Close()
	}
}
