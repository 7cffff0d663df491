/*
ledger.go - Append-only cash event log

PURPOSE:
  The Ledger is the immutable audit trail of every cash-affecting
  operation: sales, change, deposits, withdrawals, count corrections.
  Drawer state can always be explained by replaying it.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No update, no per-event delete. Corrections are new
     adjustment events, never edits.
  2. IMMUTABLE: Once appended, an event never changes.
  3. CONSERVATION: Sum of all event totals since a reset equals the
     drawer's value change since that reset.
  4. IDEMPOTENT: Same idempotency key = one event, no duplicates.

DAY SEMANTICS:
  EventsOn selects by local calendar date (year/month/day components),
  not a rolling 24h window. A sale at 23:59 belongs to that day; one at
  00:01 belongs to the next.

SEE ALSO:
  - store.go: Low-level persistence interface
  - settlement.go: Daily aggregation queries
*/
package cash

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER - Append-only event log
// =============================================================================

// Ledger is the audit trail of cash-affecting events.
type Ledger interface {
	// Append assigns an ID and timestamp (when unset), validates the
	// kind, and persists the event. Returns the stored event.
	Append(ctx context.Context, event CashEvent) (CashEvent, error)

	// AppendAll appends multiple events atomically (all or none).
	// Used when one operation produces paired events (sale + change).
	AppendAll(ctx context.Context, events []CashEvent) ([]CashEvent, error)

	// Events returns the full history, most-recent-first.
	Events(ctx context.Context) ([]CashEvent, error)

	// EventsOn returns events on the given local calendar day,
	// most-recent-first.
	EventsOn(ctx context.Context, day time.Time) ([]CashEvent, error)

	// TodayEvents is EventsOn(now).
	TodayEvents(ctx context.Context) ([]CashEvent, error)

	// DailySettlement aggregates a day's events into a settlement
	// summary. Pure query: mutates nothing, resets nothing.
	DailySettlement(ctx context.Context, day time.Time) (Settlement, error)

	// TotalDeposits sums manual deposit amounts on the day.
	TotalDeposits(ctx context.Context, day time.Time) (int64, error)

	// TotalWithdrawals sums absolute manual withdrawal amounts on the day.
	TotalWithdrawals(ctx context.Context, day time.Time) (int64, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store

	// Now is the clock used for timestamps and TodayEvents.
	// Defaults to time.Now; tests substitute a fixed clock.
	Now func() time.Time
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store, Now: time.Now}
}

func (l *DefaultLedger) Append(ctx context.Context, event CashEvent) (CashEvent, error) {
	event, err := l.prepare(event)
	if err != nil {
		return CashEvent{}, err
	}
	if err := l.Store.AppendEvent(ctx, event); err != nil {
		return CashEvent{}, err
	}
	return event, nil
}

func (l *DefaultLedger) AppendAll(ctx context.Context, events []CashEvent) ([]CashEvent, error) {
	prepared := make([]CashEvent, len(events))
	for i, e := range events {
		var err error
		if prepared[i], err = l.prepare(e); err != nil {
			return nil, err
		}
	}
	if err := l.Store.AppendEvents(ctx, prepared); err != nil {
		return nil, err
	}
	return prepared, nil
}

// prepare validates the kind and fills ID, timestamp, and total.
func (l *DefaultLedger) prepare(event CashEvent) (CashEvent, error) {
	if !ValidKind(event.Kind) {
		return CashEvent{}, ErrInvalidKind
	}
	if event.ID == "" {
		event.ID = EventID(uuid.NewString())
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.Now()
	}
	if event.TotalAmount == 0 && !event.Breakdown.IsZero() {
		event.TotalAmount = event.Breakdown.Total()
	}
	return event, nil
}

func (l *DefaultLedger) Events(ctx context.Context) ([]CashEvent, error) {
	return l.Store.Events(ctx)
}

func (l *DefaultLedger) EventsOn(ctx context.Context, day time.Time) ([]CashEvent, error) {
	from, to := DayBounds(day)
	return l.Store.EventsBetween(ctx, from, to)
}

func (l *DefaultLedger) TodayEvents(ctx context.Context) ([]CashEvent, error) {
	return l.EventsOn(ctx, l.Now())
}

func (l *DefaultLedger) DailySettlement(ctx context.Context, day time.Time) (Settlement, error) {
	events, err := l.EventsOn(ctx, day)
	if err != nil {
		return Settlement{}, err
	}
	s := Settle(day, events)

	// Attach the opening snapshot when one exists for the day.
	ob, err := l.Store.OpeningBalanceOn(ctx, day)
	if err != nil {
		return Settlement{}, err
	}
	if ob != nil {
		s.OpeningBalance = &ob.Total
		expected := ob.Total + s.NetTotal
		s.ExpectedClosing = &expected
	}
	return s, nil
}

func (l *DefaultLedger) TotalDeposits(ctx context.Context, day time.Time) (int64, error) {
	return l.sumKind(ctx, day, EventManualDeposit, false)
}

func (l *DefaultLedger) TotalWithdrawals(ctx context.Context, day time.Time) (int64, error) {
	return l.sumKind(ctx, day, EventManualWithdraw, true)
}

func (l *DefaultLedger) sumKind(ctx context.Context, day time.Time, kind EventKind, absolute bool) (int64, error) {
	events, err := l.EventsOn(ctx, day)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, e := range events {
		if e.Kind != kind {
			continue
		}
		amount := e.TotalAmount
		if absolute && amount < 0 {
			amount = -amount
		}
		sum += amount
	}
	return sum, nil
}

// =============================================================================
// DAY HELPERS
// =============================================================================

// DayBounds returns [local midnight, next local midnight) for a day.
func DayBounds(day time.Time) (time.Time, time.Time) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return from, from.AddDate(0, 0, 1)
}

// SameDay reports whether two instants fall on the same local calendar
// day (by date components, not a 24h window).
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
