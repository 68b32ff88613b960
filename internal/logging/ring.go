package logging

import "sync"

// DefaultRingSize is the number of lines kept for the log view.
const DefaultRingSize = 1000

// Ring keeps the most recent log lines.
type Ring struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool

	listeners []func()
}

// NewRing returns a ring holding up to size lines.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{lines: make([]string, size)}
}

// Add appends a line, evicting the oldest when full.
func (r *Ring) Add(line string) {
	r.mu.Lock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
	ls := r.listeners
	r.mu.Unlock()

	for _, fn := range ls {
		fn()
	}
}

// Lines returns the buffered lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]string(nil), r.lines[:r.next]...)
	}
	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[r.next:]...)
	return append(out, r.lines[:r.next]...)
}

// OnAdd registers fn to run after each added line. fn runs with the
// logger's lock held and must not log.
func (r *Ring) OnAdd(fn func()) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}
