package poll

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeUI struct {
	mu      sync.Mutex
	said    []string
	cleared []int
	flashes []string
}

func (u *fakeUI) Say(msg string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.said = append(u.said, msg)
	return len(u.said) - 1
}

func (u *fakeUI) Clear(id int) {
	u.mu.Lock()
	u.cleared = append(u.cleared, id)
	u.mu.Unlock()
}

func (u *fakeUI) Flash(msg string) {
	u.mu.Lock()
	u.flashes = append(u.flashes, msg)
	u.mu.Unlock()
}

func (u *fakeUI) lastFlash() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.flashes) == 0 {
		return ""
	}
	return u.flashes[len(u.flashes)-1]
}

type countSource struct {
	name string
	n    int
	err  error
	hold chan struct{}
}

func (c *countSource) Name() string { return c.name }

func (c *countSource) Poll(context.Context) (int, error) {
	if c.hold != nil {
		<-c.hold
	}
	return c.n, c.err
}

type hookRecorder struct {
	mu   sync.Mutex
	runs []map[string]any
}

func (h *hookRecorder) Run(name string, vars map[string]any) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if name == AfterPollHook {
		h.runs = append(h.runs, vars)
	}
	return nil, nil
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name    string
		sources []*countSource
		found   int
		flash   string
		hooks   int
		wantErr bool
	}{
		{"nothing", []*countSource{{name: "a"}}, 0, "", 0, false},
		{"one", []*countSource{{name: "a", n: 1}}, 1, "1 message updated", 1, false},
		{"sum", []*countSource{{name: "a", n: 2}, {name: "b", n: 3}}, 5, "5 messages updated", 1, false},
		{"failure", []*countSource{{name: "a", n: 2}, {name: "b", err: errors.New("offline")}}, 2, "Poll failed: b: offline", 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui := &fakeUI{}
			hooks := &hookRecorder{}
			m := New(ui, WithHooks(hooks))
			for _, s := range tt.sources {
				m.AddSource(s)
			}

			found, ran, err := m.Poll(context.Background())
			if !ran || found != tt.found || (err != nil) != tt.wantErr {
				t.Errorf("Poll = %d, %v, %v", found, ran, err)
			}
			if got := ui.lastFlash(); got != tt.flash {
				t.Errorf("flash = %q, want %q", got, tt.flash)
			}
			if len(ui.said) != 1 || len(ui.cleared) != 1 || ui.cleared[0] != 0 {
				t.Errorf("progress message: said %v cleared %v", ui.said, ui.cleared)
			}
			if len(hooks.runs) != tt.hooks {
				t.Errorf("after-poll runs = %d", len(hooks.runs))
			}
			if tt.hooks > 0 && hooks.runs[0]["num"] != tt.found {
				t.Errorf("hook vars = %v", hooks.runs[0])
			}
			if m.LastPoll().IsZero() {
				t.Error("last poll not recorded")
			}
		})
	}
}

func TestPollSkipsWhileRunning(t *testing.T) {
	ui := &fakeUI{}
	m := New(ui)
	slow := &countSource{name: "slow", n: 1, hold: make(chan struct{})}
	m.AddSource(slow)

	done := make(chan struct{})
	go func() {
		m.Poll(context.Background())
		close(done)
	}()
	// Wait for the first poll to hold the lock.
	for {
		ui.mu.Lock()
		n := len(ui.said)
		ui.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if _, ran, _ := m.Poll(context.Background()); ran {
		t.Error("second poll ran concurrently")
	}
	close(slow.hold)
	<-done
}

func TestRun(t *testing.T) {
	ui := &fakeUI{}
	m := New(ui, WithInterval(20*time.Millisecond))
	m.AddSource(&countSource{name: "a", n: 1})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- m.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for m.LastPoll().IsZero() {
		select {
		case <-deadline:
			t.Fatal("no poll")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestPluralize(t *testing.T) {
	for n, want := range map[int]string{0: "0 messages", 1: "1 message", 7: "7 messages"} {
		if got := Pluralize(n, "message"); got != want {
			t.Errorf("Pluralize(%d) = %q", n, got)
		}
	}
}

func TestSpool(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new")
	s, err := NewSpool(dir)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-errc; err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	for !s.Watching() {
		time.Sleep(time.Millisecond)
	}

	for _, name := range []string{"1", "2"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.After(5 * time.Second)
	total := 0
	for total < 2 {
		n, _ := s.Poll(context.Background())
		total += n
		select {
		case <-deadline:
			t.Fatalf("counted %d arrivals", total)
		case <-time.After(10 * time.Millisecond):
		}
	}
	time.Sleep(50 * time.Millisecond)
	n, _ := s.Poll(context.Background())
	if total+n != 2 {
		t.Errorf("arrivals = %d, want 2", total+n)
	}
}
