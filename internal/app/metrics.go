package app

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics counts main-loop work. All methods are safe for concurrent
// use.
type Metrics struct {
	drawCount   atomic.Uint64
	drawTotalNs atomic.Int64
	drawMaxNs   atomic.Int64
	drawErrors  atomic.Uint64

	keyCount     atomic.Uint64
	unboundKeys  atomic.Uint64
	abortedKeys  atomic.Uint64
	clickCount   atomic.Uint64
	actionErrors atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordDraw records one redraw pass.
func (m *Metrics) RecordDraw(d time.Duration, err error) {
	ns := d.Nanoseconds()
	m.drawCount.Add(1)
	m.drawTotalNs.Add(ns)
	for {
		old := m.drawMaxNs.Load()
		if ns <= old || m.drawMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
	if err != nil {
		m.drawErrors.Add(1)
	}
}

// RecordKey records a keystroke read by the main loop.
func (m *Metrics) RecordKey() { m.keyCount.Add(1) }

// RecordUnbound records a keystroke no keymap bound.
func (m *Metrics) RecordUnbound() { m.unboundKeys.Add(1) }

// RecordAborted records a cancelled multi-key sequence.
func (m *Metrics) RecordAborted() { m.abortedKeys.Add(1) }

// RecordClick records a mouse click.
func (m *Metrics) RecordClick() { m.clickCount.Add(1) }

// RecordActionError records an action that returned an error.
func (m *Metrics) RecordActionError() { m.actionErrors.Add(1) }

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	draws := m.drawCount.Load()
	var avg time.Duration
	if draws > 0 {
		avg = time.Duration(m.drawTotalNs.Load() / int64(draws))
	}
	return MetricsSnapshot{
		Uptime:       time.Since(m.startTime),
		Draws:        draws,
		AvgDraw:      avg,
		MaxDraw:      time.Duration(m.drawMaxNs.Load()),
		DrawErrors:   m.drawErrors.Load(),
		Keys:         m.keyCount.Load(),
		UnboundKeys:  m.unboundKeys.Load(),
		AbortedKeys:  m.abortedKeys.Load(),
		Clicks:       m.clickCount.Load(),
		ActionErrors: m.actionErrors.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of Metrics.
type MetricsSnapshot struct {
	Uptime       time.Duration
	Draws        uint64
	AvgDraw      time.Duration
	MaxDraw      time.Duration
	DrawErrors   uint64
	Keys         uint64
	UnboundKeys  uint64
	AbortedKeys  uint64
	Clicks       uint64
	ActionErrors uint64
}

// Lines formats the snapshot for a text view.
func (s MetricsSnapshot) Lines() []string {
	var lines []string
	add := func(label string, v any) {
		lines = append(lines, fmt.Sprintf("%14s : %v", label, v))
	}
	add("uptime", s.Uptime.Truncate(time.Second))
	add("redraws", s.Draws)
	add("avg redraw", s.AvgDraw)
	add("max redraw", s.MaxDraw)
	add("redraw errors", s.DrawErrors)
	add("keystrokes", s.Keys)
	add("unbound keys", s.UnboundKeys)
	add("aborted keys", s.AbortedKeys)
	add("clicks", s.Clicks)
	add("action errors", s.ActionErrors)
	return lines
}

func (s MetricsSnapshot) String() string {
	return strings.Join(s.Lines(), "\n")
}
