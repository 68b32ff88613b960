package app

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMetricsDraws(t *testing.T) {
	m := NewMetrics()
	if s := m.Snapshot(); s.Draws != 0 || s.AvgDraw != 0 {
		t.Fatalf("fresh snapshot = %+v", s)
	}

	m.RecordDraw(10*time.Millisecond, nil)
	m.RecordDraw(30*time.Millisecond, errors.New("terminal too small"))
	m.RecordDraw(5*time.Millisecond, nil)

	s := m.Snapshot()
	if s.Draws != 3 {
		t.Errorf("draws = %d, want 3", s.Draws)
	}
	if s.AvgDraw != 15*time.Millisecond {
		t.Errorf("avg = %v, want 15ms", s.AvgDraw)
	}
	if s.MaxDraw != 30*time.Millisecond {
		t.Errorf("max = %v, want 30ms", s.MaxDraw)
	}
	if s.DrawErrors != 1 {
		t.Errorf("draw errors = %d, want 1", s.DrawErrors)
	}
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	for range 3 {
		m.RecordKey()
	}
	m.RecordUnbound()
	m.RecordAborted()
	m.RecordClick()
	m.RecordActionError()

	s := m.Snapshot()
	want := MetricsSnapshot{Keys: 3, UnboundKeys: 1, AbortedKeys: 1, Clicks: 1, ActionErrors: 1}
	s.Uptime = 0
	if s != want {
		t.Errorf("snapshot = %+v, want %+v", s, want)
	}
	if !strings.Contains(s.String(), "keystrokes : 3") {
		t.Errorf("String() = %q", s.String())
	}
}
