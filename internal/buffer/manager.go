package buffer

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/burrow/internal/completion"
	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/layout"
	"github.com/dshills/burrow/internal/logging"
	"github.com/dshills/burrow/internal/mode"
	"github.com/dshills/burrow/internal/renderer/backend"
	"github.com/dshills/burrow/internal/textfield"
	"github.com/dshills/burrow/internal/theme"
)

// DefaultGetchTimeout bounds each wait for a keystroke.
const DefaultGetchTimeout = 500 * time.Millisecond

// Config wires a Manager to its collaborators. Backend, Layout and
// Registry are required.
type Config struct {
	Backend  backend.Backend
	Layout   *layout.Manager
	Registry *keymap.Registry
	Theme    *theme.Theme
	Logger   *logging.Logger

	Hooks    Hooks
	Counter  Counter
	Contacts ContactSource
	Labels   LabelSource
	Users    completion.UserDB

	// AppName and Version make up the default terminal title.
	AppName string
	Version string

	// CancelKey aborts prompts and modal loops. Defaults to Ctrl-G.
	CancelKey    key.Event
	GetchTimeout time.Duration
}

// SpawnOptions control how a buffer enters the stack.
type SpawnOptions struct {
	// Hidden buffers are not raised; they take focus only when nothing
	// else has it.
	Hidden bool
	// System buffers are skipped when rolling.
	System bool
	// ForceToTop pins the buffer above anything raised later.
	ForceToTop bool
}

// Manager owns every buffer, the stacking order, focus, the minibuffer
// and all prompts. Lock order is screenMu, then mu; mode methods are
// never called with mu held. Focus changes and kills run under screenMu,
// so draws see either the old state or the new one.
type Manager struct {
	backend  backend.Backend
	layout   *layout.Manager
	registry *keymap.Registry
	theme    *theme.Theme
	log      *logging.Logger
	hooks    Hooks
	counter  Counter
	contacts ContactSource
	labels   LabelSource
	users    completion.UserDB
	appName  string
	version  string
	timeout  atomic.Int64
	now      func() time.Time

	screenMu  sync.Mutex
	drawHooks atomic.Int32
	lastTitle string

	mu       sync.Mutex
	nameMap  map[string]*Buffer
	buffers  []*Buffer // bottom first
	focusBuf *Buffer
	dirty    bool
	cancel   key.Event

	minibufMu    sync.Mutex
	minibufStack []*string
	flash        *string
	prompt       prompt

	fieldsMu   sync.Mutex
	textfields map[string]*textfield.Field

	asking  atomic.Bool
	shelled atomic.Bool

	sigwinchMu sync.Mutex
	sigwinch   bool
}

// New creates a Manager.
func New(cfg Config) (*Manager, error) {
	if cfg.Backend == nil || cfg.Layout == nil || cfg.Registry == nil {
		return nil, fmt.Errorf("buffer manager needs a backend, a layout and a keymap registry")
	}
	if cfg.Theme == nil {
		cfg.Theme = theme.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard
	}
	if cfg.CancelKey == (key.Event{}) {
		cfg.CancelKey = key.Ctrl('g')
	}
	if cfg.GetchTimeout <= 0 {
		cfg.GetchTimeout = DefaultGetchTimeout
	}
	if cfg.AppName == "" {
		cfg.AppName = "burrow"
	}
	m := &Manager{
		backend:    cfg.Backend,
		layout:     cfg.Layout,
		registry:   cfg.Registry,
		theme:      cfg.Theme,
		log:        cfg.Logger.WithComponent("buffer"),
		hooks:      cfg.Hooks,
		counter:    cfg.Counter,
		contacts:   cfg.Contacts,
		labels:     cfg.Labels,
		users:      cfg.Users,
		appName:    cfg.AppName,
		version:    cfg.Version,
		now:        time.Now,
		nameMap:    make(map[string]*Buffer),
		dirty:      true,
		cancel:     cfg.CancelKey,
		textfields: make(map[string]*textfield.Field),
	}
	m.timeout.Store(int64(cfg.GetchTimeout))
	return m, nil
}

// CancelKey returns the key that aborts prompts.
func (m *Manager) CancelKey() key.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel
}

// SetCancelKey changes the abort key.
func (m *Manager) SetCancelKey(k key.Event) {
	m.mu.Lock()
	m.cancel = k
	m.mu.Unlock()
}

// SetGetchTimeout changes how long GetKey waits for a keystroke.
// Non-positive values restore the default.
func (m *Manager) SetGetchTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultGetchTimeout
	}
	m.timeout.Store(int64(d))
}

// Registry returns the keymap registry modes are built from.
func (m *Manager) Registry() *keymap.Registry {
	return m.registry
}

// Exists reports whether a buffer has title.
func (m *Manager) Exists(title string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nameMap[title]
	return ok
}

// Get returns the buffer with title, or nil.
func (m *Manager) Get(title string) *Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nameMap[title]
}

// Buffers returns the stack bottom first.
func (m *Manager) Buffers() []*Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.buffers)
}

// FocusBuffer returns the focused buffer, or nil.
func (m *Manager) FocusBuffer() *Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focusBuf
}

// Top returns the topmost buffer, or nil.
func (m *Manager) Top() *Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.buffers) == 0 {
		return nil
	}
	return m.buffers[len(m.buffers)-1]
}

func (m *Manager) markDirty() {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

// register adds b under its title. Caller holds mu.
func (m *Manager) register(b *Buffer) error {
	if _, ok := m.nameMap[b.title]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTitle, b.title)
	}
	m.nameMap[b.title] = b
	return nil
}

func (m *Manager) uniqueTitle(title string) string {
	t := title
	for n := 2; ; n++ {
		if _, ok := m.nameMap[t]; !ok {
			return t
		}
		t = fmt.Sprintf("%s <%d>", title, n)
	}
}

// Spawn creates a buffer for md. A title already in use gets a " <n>"
// suffix. The buffer is raised and focused unless opts.Hidden is set.
func (m *Manager) Spawn(title string, md mode.Mode, opts SpawnOptions) (*Buffer, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}

	b := newBuffer(m, title, md, opts)
	if err := b.RefreshGeometry(); err != nil {
		return nil, err
	}

	// The title is picked in the same critical section that registers it;
	// b is not reachable from the manager before that.
	m.mu.Lock()
	b.title = m.uniqueTitle(title)
	if err := m.register(b); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.buffers = slices.Insert(m.buffers, 0, b)
	hasFocus := m.focusBuf != nil
	m.mu.Unlock()

	m.log.Debug("spawned %s", b)
	if opts.Hidden {
		if !hasFocus {
			m.FocusOn(b)
		}
	} else {
		m.RaiseToFront(b)
	}
	return b, nil
}

// SpawnUnlessExists raises the buffer titled title, or creates one from
// factory when there is none. created reports which happened; factory is
// not called for an existing buffer.
func (m *Manager) SpawnUnlessExists(title string, opts SpawnOptions, factory func() (mode.Mode, error)) (b *Buffer, created bool, err error) {
	if b := m.Get(title); b != nil {
		if !opts.Hidden {
			m.RaiseToFront(b)
		}
		return b, false, nil
	}
	md, err := factory()
	if err != nil {
		return nil, false, err
	}
	b, err = m.Spawn(title, md, opts)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// FocusOn moves focus to b, blurring the previous holder first. The
// screen lock is held for the whole handover, so no draw sees it half
// done.
func (m *Manager) FocusOn(b *Buffer) {
	m.screenMu.Lock()
	defer m.screenMu.Unlock()
	m.focusOn(b)
}

// focusOn is FocusOn for callers holding screenMu.
func (m *Manager) focusOn(b *Buffer) {
	m.mu.Lock()
	if b == m.focusBuf || !slices.Contains(m.buffers, b) {
		m.mu.Unlock()
		return
	}
	old := m.focusBuf
	m.focusBuf = b
	m.mu.Unlock()

	if old != nil {
		old.blur()
	}
	b.focus()
}

// RaiseToFront moves b to the top of the stack, or just below a pinned
// top buffer, and focuses the new top.
func (m *Manager) RaiseToFront(b *Buffer) {
	m.screenMu.Lock()
	defer m.screenMu.Unlock()
	m.raiseToFront(b)
}

// raiseToFront is RaiseToFront for callers holding screenMu.
func (m *Manager) raiseToFront(b *Buffer) {
	m.mu.Lock()
	i := slices.Index(m.buffers, b)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	m.buffers = slices.Delete(m.buffers, i, i+1)
	if n := len(m.buffers); n > 0 && m.buffers[n-1].ForceToTop() {
		m.buffers = slices.Insert(m.buffers, n-1, b)
	} else {
		m.buffers = append(m.buffers, b)
	}
	top := m.buffers[len(m.buffers)-1]
	m.dirty = true
	m.mu.Unlock()

	m.focusOn(top)
}

// rollable returns the buffers taking part in rolling: everything that
// is neither system nor hidden, plus the current top.
func (m *Manager) rollable() []*Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Buffer
	for i, b := range m.buffers {
		if i == len(m.buffers)-1 || !(b.System() || b.Hidden()) {
			out = append(out, b)
		}
	}
	return out
}

// RollBuffers raises the bottom rollable buffer. The current top loses
// its pin so the user can always move buffers around.
func (m *Manager) RollBuffers() {
	bufs := m.rollable()
	if len(bufs) == 0 {
		return
	}
	bufs[len(bufs)-1].SetForceToTop(false)
	m.RaiseToFront(bufs[0])
}

// RollBuffersBackwards raises the rollable buffer just below the top.
func (m *Manager) RollBuffersBackwards() {
	bufs := m.rollable()
	if len(bufs) < 2 {
		return
	}
	bufs[len(bufs)-1].SetForceToTop(false)
	m.RaiseToFront(bufs[len(bufs)-2])
}

// KillBuffer cleans up b's mode and removes it, then raises the new top.
// The last remaining buffer is left in place.
func (m *Manager) KillBuffer(b *Buffer) error {
	_, err := m.kill(b, false)
	return err
}

// kill holds the screen lock from cleanup until the new top is focused,
// so a draw never reaches a cleaned-up mode.
func (m *Manager) kill(b *Buffer, allowEmpty bool) (bool, error) {
	m.screenMu.Lock()
	defer m.screenMu.Unlock()

	m.mu.Lock()
	if !slices.Contains(m.buffers, b) {
		m.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrBufferNotFound, b)
	}
	if len(m.buffers) == 1 && !allowEmpty {
		m.mu.Unlock()
		return false, nil
	}
	m.mu.Unlock()

	b.mode.Cleanup()

	m.mu.Lock()
	if i := slices.Index(m.buffers, b); i >= 0 {
		m.buffers = slices.Delete(m.buffers, i, i+1)
	}
	delete(m.nameMap, b.title)
	if m.focusBuf == b {
		m.focusBuf = nil
	}
	var top *Buffer
	if n := len(m.buffers); n > 0 {
		top = m.buffers[n-1]
	}
	m.mu.Unlock()

	m.log.Debug("killed %s", b)
	if top != nil {
		m.raiseToFront(top)
	}
	return true, nil
}

// KillBufferSafely kills b if its mode agrees. It reports whether b is
// gone.
func (m *Manager) KillBufferSafely(b *Buffer) (bool, error) {
	if !b.mode.Killable() {
		return false, nil
	}
	return m.kill(b, false)
}

// KillAllBuffersSafely kills every buffer, top first, if every mode
// agrees. The home view never objects. Nothing is killed when any mode
// refuses.
func (m *Manager) KillAllBuffersSafely() bool {
	bufs := m.Buffers()
	for _, b := range bufs {
		if !mode.IsHome(b.mode) && !b.mode.Killable() {
			m.log.Info("%s refused to close", b)
			return false
		}
	}
	for i := len(bufs) - 1; i >= 0; i-- {
		if _, err := m.kill(bufs[i], true); err != nil {
			m.log.Warn("kill all: %v", err)
		}
	}
	return true
}

// KillAllBuffers kills everything, bottom first, without asking.
func (m *Manager) KillAllBuffers() {
	for {
		bufs := m.Buffers()
		if len(bufs) == 0 {
			return
		}
		if _, err := m.kill(bufs[0], true); err != nil {
			m.log.Warn("kill all: %v", err)
			return
		}
	}
}

// FrontBuffers returns the visible buffer of each screen region: buffers
// sharing an origin are grouped and the most recently drawn one wins.
// The result is ordered by position.
func (m *Manager) FrontBuffers() []*Buffer {
	type pos struct{ top, left int }
	best := make(map[pos]*Buffer)
	for _, b := range m.Buffers() {
		g := b.Geometry()
		p := pos{g.Top, g.Left}
		if cur, ok := best[p]; !ok || b.ATime().After(cur.ATime()) {
			best[p] = b
		}
	}
	out := make([]*Buffer, 0, len(best))
	for _, b := range best {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		gi, gj := out[i].Geometry(), out[j].Geometry()
		if gi.Top != gj.Top {
			return gi.Top < gj.Top
		}
		return gi.Left < gj.Left
	})
	return out
}

// NextFrontBuffer returns the visible buffer after the focused one.
func (m *Manager) NextFrontBuffer() *Buffer {
	bufs := m.FrontBuffers()
	if len(bufs) == 0 {
		return nil
	}
	if i := slices.Index(bufs, m.FocusBuffer()); i >= 0 {
		return bufs[(i+1)%len(bufs)]
	}
	return bufs[0]
}

func (m *Manager) hasOpenMessageView() bool {
	for _, b := range m.Buffers() {
		if mode.KindOf(b.mode) == layout.KindMessageView {
			return true
		}
	}
	return false
}

// BufferInfos describes the stack, top first.
func (m *Manager) BufferInfos() []mode.BufferInfo {
	bufs := m.Buffers()
	focus := m.FocusBuffer()
	out := make([]mode.BufferInfo, 0, len(bufs))
	for i := len(bufs) - 1; i >= 0; i-- {
		b := bufs[i]
		out = append(out, mode.BufferInfo{
			Title:   b.title,
			Mode:    b.mode.Name(),
			Focused: b == focus,
			System:  b.System(),
			Hidden:  b.Hidden(),
		})
	}
	return out
}

// RaiseTitle raises the buffer titled title.
func (m *Manager) RaiseTitle(title string) error {
	b := m.Get(title)
	if b == nil {
		return fmt.Errorf("%w: %q", ErrBufferNotFound, title)
	}
	m.RaiseToFront(b)
	return nil
}

// KillTitleSafely kills the buffer titled title if its mode agrees.
func (m *Manager) KillTitleSafely(title string) (bool, error) {
	b := m.Get(title)
	if b == nil {
		return false, fmt.Errorf("%w: %q", ErrBufferNotFound, title)
	}
	return m.KillBufferSafely(b)
}
