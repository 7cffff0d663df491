// Package store provides cash.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/till-engine/cash"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	events      []cash.CashEvent // most-recent-first
	idempotency map[string]bool
	drawer      []cash.DrawerLine
	openings    map[string]cash.OpeningBalance // keyed by YYYY-MM-DD
}

func NewMemory() *Memory {
	return &Memory{
		idempotency: make(map[string]bool),
		openings:    make(map[string]cash.OpeningBalance),
	}
}

// AppendEvent adds a single event at the front. Append-only.
func (m *Memory) AppendEvent(_ context.Context, event cash.CashEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.IdempotencyKey != "" && m.idempotency[event.IdempotencyKey] {
		return cash.ErrDuplicateEvent
	}
	m.appendLocked(event)
	return nil
}

// AppendEvents adds multiple events atomically.
func (m *Memory) AppendEvents(_ context.Context, events []cash.CashEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all idempotency keys first (atomic check).
	for _, e := range events {
		if e.IdempotencyKey != "" && m.idempotency[e.IdempotencyKey] {
			return cash.ErrDuplicateEvent
		}
	}
	for _, e := range events {
		m.appendLocked(e)
	}
	return nil
}

func (m *Memory) appendLocked(event cash.CashEvent) {
	// Prepend: history screens read most-recent-first.
	m.events = append([]cash.CashEvent{event}, m.events...)
	if event.IdempotencyKey != "" {
		m.idempotency[event.IdempotencyKey] = true
	}
}

func (m *Memory) Events(_ context.Context) ([]cash.CashEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]cash.CashEvent, len(m.events))
	copy(out, m.events)
	sortRecentFirst(out)
	return out, nil
}

func (m *Memory) EventsBetween(_ context.Context, from, to time.Time) ([]cash.CashEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []cash.CashEvent
	for _, e := range m.events {
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			out = append(out, e)
		}
	}
	sortRecentFirst(out)
	return out, nil
}

// sortRecentFirst orders by timestamp descending. Stable, so backfilled
// events with equal timestamps keep insertion order (latest append
// first), matching the sqlite store's ts DESC, rowid DESC.
func sortRecentFirst(events []cash.CashEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}

func (m *Memory) SaveDrawer(_ context.Context, lines []cash.DrawerLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drawer = make([]cash.DrawerLine, len(lines))
	copy(m.drawer, lines)
	return nil
}

func (m *Memory) LoadDrawer(_ context.Context) ([]cash.DrawerLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.drawer == nil {
		return nil, nil
	}
	out := make([]cash.DrawerLine, len(m.drawer))
	copy(out, m.drawer)
	return out, nil
}

func (m *Memory) SaveOpeningBalance(_ context.Context, ob cash.OpeningBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.openings[dayKey(ob.Day)] = ob
	return nil
}

func (m *Memory) OpeningBalanceOn(_ context.Context, day time.Time) (*cash.OpeningBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ob, ok := m.openings[dayKey(day)]
	if !ok {
		return nil, nil
	}
	return &ob, nil
}

// Reset bulk-clears everything. Dev/test tooling only.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = nil
	m.idempotency = make(map[string]bool)
	m.drawer = nil
	m.openings = make(map[string]cash.OpeningBalance)
	return nil
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
