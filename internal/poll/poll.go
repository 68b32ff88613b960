// Package poll checks message sources in the background.
//
// The Manager polls every source on an interval, shows progress on the
// minibuffer, flashes how much arrived and runs the after-poll hook. A
// poll started while another is running is skipped, not queued.
package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/burrow/internal/logging"
)

// DefaultInterval is used when none is configured.
const DefaultInterval = 5 * time.Minute

// AfterPollHook is run after every poll that found something.
const AfterPollHook = "after-poll"

// Source is something that can be checked for new messages.
type Source interface {
	Name() string
	// Poll returns how many new messages arrived since the last call.
	Poll(ctx context.Context) (int, error)
}

// UI is the minibuffer as seen by the poller.
type UI interface {
	Say(msg string) int
	Clear(id int)
	Flash(msg string)
}

// Hooks runs the after-poll hook.
type Hooks interface {
	Run(name string, vars map[string]any) (any, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithInterval sets the time between polls.
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithHooks sets the hook runner.
func WithHooks(h Hooks) Option {
	return func(m *Manager) { m.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager polls a set of sources.
type Manager struct {
	ui       UI
	hooks    Hooks
	log      *logging.Logger
	interval time.Duration
	now      func() time.Time

	polling sync.Mutex

	mu       sync.Mutex
	sources  []Source
	lastPoll time.Time
}

// New creates a poll manager reporting to ui.
func New(ui UI, opts ...Option) *Manager {
	m := &Manager{
		ui:       ui,
		log:      logging.Discard,
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithComponent("poll")
	return m
}

// AddSource adds a source to every later poll.
func (m *Manager) AddSource(s Source) {
	m.mu.Lock()
	m.sources = append(m.sources, s)
	m.mu.Unlock()
}

// SetInterval changes the time between polls.
func (m *Manager) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.interval = d
	m.mu.Unlock()
}

// Interval returns the time between polls.
func (m *Manager) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// LastPoll returns when the last poll finished, zero before the first.
func (m *Manager) LastPoll() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPoll
}

// Poll checks every source once. ran is false when another poll was
// already in progress. Source failures are flashed and joined into err;
// the other sources are still polled.
func (m *Manager) Poll(ctx context.Context) (found int, ran bool, err error) {
	if !m.polling.TryLock() {
		m.log.Debug("poll already in progress")
		return 0, false, nil
	}
	defer m.polling.Unlock()

	m.mu.Lock()
	sources := append([]Source(nil), m.sources...)
	m.mu.Unlock()

	id := m.ui.Say("Polling for new messages...")
	var errs []error
	for _, s := range sources {
		n, perr := s.Poll(ctx)
		if perr != nil {
			m.log.Warn("source %s: %v", s.Name(), perr)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), perr))
			continue
		}
		found += n
	}
	m.ui.Clear(id)

	m.mu.Lock()
	m.lastPoll = m.now()
	m.mu.Unlock()

	if err = errors.Join(errs...); err != nil {
		m.ui.Flash("Poll failed: " + err.Error())
	} else if found > 0 {
		m.ui.Flash(Pluralize(found, "message") + " updated")
	}
	if found > 0 && m.hooks != nil {
		if _, herr := m.hooks.Run(AfterPollHook, map[string]any{"num": found}); herr != nil {
			m.log.Warn("%v", herr)
		}
	}
	m.log.Info("poll found %d", found)
	return found, true, err
}

// Run polls until ctx is done. It wakes every half interval and polls
// when a full interval has passed since the last poll, so a manual poll
// pushes the next automatic one back.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.Interval() / 2):
		}
		last := m.LastPoll()
		if last.IsZero() || m.now().Sub(last) >= m.Interval() {
			// Failures were already flashed and logged.
			_, _, _ = m.Poll(ctx)
		}
	}
}

// Pluralize returns "1 message", "2 messages".
func Pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
