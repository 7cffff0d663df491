/*
store.go - Persistence interface for events and drawer inventory

PURPOSE:
  Defines the interface between the cash engine and storage. The Store
  persists the append-only event log, the current drawer inventory, and
  opening-balance snapshots. Implementations: SQLite for production,
  in-memory for tests, a JSON key-value blob mirroring the device cache.

APPEND-ONLY CONTRACT:
  Events have AppendEvent() and read methods only. No update, no
  per-event delete. Reset() exists solely for dev/test bulk clears and
  wipes everything (events, drawer, snapshots).

IDEMPOTENCY:
  AppendEvent rejects an event whose idempotency key already exists
  with ErrDuplicateEvent. Empty keys skip the check.

ORDERING:
  Events() and EventsBetween() return events most-recent-first, matching
  how history screens consume them.

IMPLEMENTATIONS:
  - store/sqlite:   Production SQLite store
  - cash/store:     In-memory store for testing/dev
  - store/kvfile:   Best-effort JSON device-cache mirror

SEE ALSO:
  - ledger.go: Higher-level Ledger built on Store
*/
package cash

import (
	"context"
	"time"
)

// Store handles persistence for the cash engine.
// The event log is APPEND-ONLY: no update, no per-event delete.
type Store interface {
	// AppendEvent persists an event. Returns ErrDuplicateEvent if the
	// idempotency key already exists.
	AppendEvent(ctx context.Context, event CashEvent) error

	// AppendEvents persists multiple events atomically. Either all are
	// written or none. Used for paired sale+change events.
	AppendEvents(ctx context.Context, events []CashEvent) error

	// Events returns all events, most-recent-first.
	Events(ctx context.Context) ([]CashEvent, error)

	// EventsBetween returns events with from <= Timestamp < to,
	// most-recent-first.
	EventsBetween(ctx context.Context, from, to time.Time) ([]CashEvent, error)

	// SaveDrawer replaces the persisted drawer inventory.
	// Called after every committed mutation (last write wins).
	SaveDrawer(ctx context.Context, lines []DrawerLine) error

	// LoadDrawer returns the persisted inventory, or nil if none saved.
	LoadDrawer(ctx context.Context) ([]DrawerLine, error)

	// SaveOpeningBalance stores a start-of-day snapshot, replacing any
	// existing snapshot for the same day.
	SaveOpeningBalance(ctx context.Context, ob OpeningBalance) error

	// OpeningBalanceOn returns the snapshot for a calendar day, or nil.
	OpeningBalanceOn(ctx context.Context, day time.Time) (*OpeningBalance, error)

	// Reset bulk-clears all persisted state. Dev/test tooling only.
	Reset(ctx context.Context) error
}

// =============================================================================
// OPENING BALANCE - Start-of-day snapshot
// =============================================================================

// OpeningBalance freezes the drawer at the start of a business day.
// Settlement uses it to derive the expected closing cash; there is no
// mutating day-close step.
type OpeningBalance struct {
	ID      string       `json:"id"`
	Day     time.Time    `json:"day"` // normalized to local midnight
	Lines   []DrawerLine `json:"lines"`
	Total   int64        `json:"total"`
	TakenAt time.Time    `json:"takenAt"`
}
