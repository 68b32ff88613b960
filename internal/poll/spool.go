package poll

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Spool is a Source that counts files dropped into a directory, the way
// a local delivery agent fills a maildir's new/ folder.
type Spool struct {
	dir string

	mu       sync.Mutex
	arrived  map[string]bool
	watching bool
}

// NewSpool creates a spool source for dir, creating the directory when
// it is missing.
func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("spool %s: %w", dir, err)
	}
	return &Spool{dir: dir, arrived: make(map[string]bool)}, nil
}

func (s *Spool) Name() string { return "spool:" + s.dir }

// Dir returns the watched directory.
func (s *Spool) Dir() string { return s.dir }

// Poll returns the number of files created since the last call.
func (s *Spool) Poll(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.arrived)
	clear(s.arrived)
	return n, nil
}

// Watching reports whether Watch is running.
func (s *Spool) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

// Watch records arrivals until ctx is done. A file that is created and
// removed again before the next poll is not counted.
func (s *Spool) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(s.dir); err != nil {
		return fmt.Errorf("spool %s: %w", s.dir, err)
	}

	s.mu.Lock()
	s.watching = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.watching = false
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			s.mu.Lock()
			switch {
			case ev.Has(fsnotify.Create):
				s.arrived[ev.Name] = true
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				delete(s.arrived, ev.Name)
			}
			s.mu.Unlock()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("spool %s: %w", s.dir, err)
		}
	}
}
