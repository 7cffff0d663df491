/*
Package sqlite provides a SQLite-backed implementation of cash.Store.

PURPOSE:
  Durable persistence for the cash event log, the drawer inventory, and
  opening-balance snapshots. The same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on cash_events
  - No per-row DELETE on cash_events
  - Reset() is the only destructive operation (dev/test tooling)

KEY TABLES:
  cash_events:      Immutable event log, idempotency_key UNIQUE
  drawer_lines:     Current inventory (replaced wholesale on save)
  opening_balances: One start-of-day snapshot per calendar day

TIMESTAMPS:
  Stored as fixed-width UTC text so range scans can use the index.
  Parsed back to time.Time on load.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/till.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := cash.NewLedger(store)

SEE ALSO:
  - cash/store.go: Interface definition
  - cash/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/till-engine/cash"
)

// tsLayout is fixed-width so lexicographic order equals time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements cash.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Cash events (append-only ledger)
	CREATE TABLE IF NOT EXISTS cash_events (
		id TEXT PRIMARY KEY,
		ts TEXT NOT NULL,
		kind TEXT NOT NULL,
		linked_transaction_id TEXT,
		total_amount INTEGER NOT NULL,
		description TEXT,
		idempotency_key TEXT UNIQUE,
		breakdown_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cash_events_ts
		ON cash_events(ts DESC);
	CREATE INDEX IF NOT EXISTS idx_cash_events_kind
		ON cash_events(kind);
	CREATE INDEX IF NOT EXISTS idx_cash_events_linked
		ON cash_events(linked_transaction_id)
		WHERE linked_transaction_id IS NOT NULL;

	-- Current drawer inventory (replaced wholesale on save)
	CREATE TABLE IF NOT EXISTS drawer_lines (
		denomination INTEGER PRIMARY KEY,
		quantity INTEGER NOT NULL
	);

	-- Start-of-day snapshots, one per calendar day
	CREATE TABLE IF NOT EXISTS opening_balances (
		id TEXT PRIMARY KEY,
		day TEXT NOT NULL UNIQUE,
		lines_json TEXT NOT NULL,
		total INTEGER NOT NULL,
		taken_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EVENTS
// =============================================================================

func (s *Store) AppendEvent(ctx context.Context, event cash.CashEvent) error {
	return s.AppendEvents(ctx, []cash.CashEvent{event})
}

// AppendEvents persists events in one transaction: all or none.
func (s *Store) AppendEvents(ctx context.Context, events []cash.CashEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		if err := insertEvent(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertEvent(ctx context.Context, tx *sql.Tx, event cash.CashEvent) error {
	if event.IdempotencyKey != "" {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM cash_events WHERE idempotency_key = ?`,
			event.IdempotencyKey).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return cash.ErrDuplicateEvent
		}
	}

	breakdownJSON, err := json.Marshal(event.Breakdown)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cash_events
			(id, ts, kind, linked_transaction_id, total_amount, description, idempotency_key, breakdown_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(event.ID),
		event.Timestamp.UTC().Format(tsLayout),
		string(event.Kind),
		nullable(event.LinkedTransactionID),
		event.TotalAmount,
		event.Description,
		nullable(event.IdempotencyKey),
		string(breakdownJSON),
	)
	return err
}

func (s *Store) Events(ctx context.Context) ([]cash.CashEvent, error) {
	return s.queryEvents(ctx,
		`SELECT id, ts, kind, linked_transaction_id, total_amount, description, idempotency_key, breakdown_json
		 FROM cash_events ORDER BY ts DESC, rowid DESC`)
}

func (s *Store) EventsBetween(ctx context.Context, from, to time.Time) ([]cash.CashEvent, error) {
	return s.queryEvents(ctx,
		`SELECT id, ts, kind, linked_transaction_id, total_amount, description, idempotency_key, breakdown_json
		 FROM cash_events WHERE ts >= ? AND ts < ? ORDER BY ts DESC, rowid DESC`,
		from.UTC().Format(tsLayout), to.UTC().Format(tsLayout))
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]cash.CashEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []cash.CashEvent
	for rows.Next() {
		var (
			event         cash.CashEvent
			id, ts, kind  string
			linked, idem  sql.NullString
			description   sql.NullString
			breakdownJSON string
		)
		if err := rows.Scan(&id, &ts, &kind, &linked, &event.TotalAmount, &description, &idem, &breakdownJSON); err != nil {
			return nil, err
		}
		event.ID = cash.EventID(id)
		event.Kind = cash.EventKind(kind)
		event.LinkedTransactionID = linked.String
		event.Description = description.String
		event.IdempotencyKey = idem.String
		if event.Timestamp, err = time.Parse(tsLayout, ts); err != nil {
			return nil, fmt.Errorf("corrupt timestamp %q: %w", ts, err)
		}
		if err := json.Unmarshal([]byte(breakdownJSON), &event.Breakdown); err != nil {
			return nil, fmt.Errorf("corrupt breakdown for event %s: %w", id, err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// =============================================================================
// DRAWER INVENTORY
// =============================================================================

func (s *Store) SaveDrawer(ctx context.Context, lines []cash.DrawerLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM drawer_lines`); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO drawer_lines (denomination, quantity) VALUES (?, ?)`,
			line.Denomination, line.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) LoadDrawer(ctx context.Context) ([]cash.DrawerLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT denomination, quantity FROM drawer_lines ORDER BY denomination DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []cash.DrawerLine
	for rows.Next() {
		var line cash.DrawerLine
		if err := rows.Scan(&line.Denomination, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// =============================================================================
// OPENING BALANCES
// =============================================================================

func (s *Store) SaveOpeningBalance(ctx context.Context, ob cash.OpeningBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	linesJSON, err := json.Marshal(ob.Lines)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO opening_balances (id, day, lines_json, total, taken_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			id = excluded.id,
			lines_json = excluded.lines_json,
			total = excluded.total,
			taken_at = excluded.taken_at`,
		ob.ID,
		ob.Day.Format("2006-01-02"),
		string(linesJSON),
		ob.Total,
		ob.TakenAt.UTC().Format(tsLayout),
	)
	return err
}

func (s *Store) OpeningBalanceOn(ctx context.Context, day time.Time) (*cash.OpeningBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		ob              cash.OpeningBalance
		dayStr, takenAt string
		linesJSON       string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, day, lines_json, total, taken_at FROM opening_balances WHERE day = ?`,
		day.Format("2006-01-02")).
		Scan(&ob.ID, &dayStr, &linesJSON, &ob.Total, &takenAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if ob.Day, err = time.ParseInLocation("2006-01-02", dayStr, day.Location()); err != nil {
		return nil, err
	}
	if ob.TakenAt, err = time.Parse(tsLayout, takenAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(linesJSON), &ob.Lines); err != nil {
		return nil, err
	}
	return &ob, nil
}

// =============================================================================
// RESET - Dev/test tooling only
// =============================================================================

// Reset bulk-clears all persisted state. The only destructive operation.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"cash_events", "drawer_lines", "opening_balances"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
