package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/till-engine/cash"
	"github.com/warp/till-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
}

// =============================================================================
// EVENTS
// =============================================================================

func TestAppendEvent_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original := cash.CashEvent{
		ID:                  "evt-1",
		Timestamp:           at(10, 30),
		Kind:                cash.EventSale,
		LinkedTransactionID: "order-42",
		Breakdown: cash.Breakdown{
			{Denomination: 5000, Quantity: 1, Total: 5000},
		},
		TotalAmount:    5000,
		Description:    "counter sale",
		IdempotencyKey: "sale-order-42",
	}
	require.NoError(t, store.AppendEvent(ctx, original))

	events, err := store.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, original.ID, got.ID)
	assert.Equal(t, original.Kind, got.Kind)
	assert.Equal(t, original.LinkedTransactionID, got.LinkedTransactionID)
	assert.Equal(t, original.Breakdown, got.Breakdown)
	assert.Equal(t, original.TotalAmount, got.TotalAmount)
	assert.Equal(t, original.Description, got.Description)
	assert.Equal(t, original.IdempotencyKey, got.IdempotencyKey)
	assert.True(t, got.Timestamp.Equal(original.Timestamp))
}

func TestEvents_MostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, ts := range []time.Time{at(9, 0), at(12, 0), at(18, 0)} {
		require.NoError(t, store.AppendEvent(ctx, cash.CashEvent{
			ID:        cash.EventID(string(rune('a' + i))),
			Timestamp: ts,
			Kind:      cash.EventSale,
			Breakdown: cash.Breakdown{},
		}))
	}

	events, err := store.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].Timestamp.Equal(at(18, 0)))
	assert.True(t, events[2].Timestamp.Equal(at(9, 0)))
}

func TestEventsBetween_HalfOpenRange(t *testing.T) {
	// from <= ts < to
	store := newTestStore(t)
	ctx := context.Background()

	stamps := []time.Time{at(8, 59), at(9, 0), at(11, 59), at(12, 0)}
	for i, ts := range stamps {
		require.NoError(t, store.AppendEvent(ctx, cash.CashEvent{
			ID:        cash.EventID(string(rune('a' + i))),
			Timestamp: ts,
			Kind:      cash.EventSale,
			Breakdown: cash.Breakdown{},
		}))
	}

	events, err := store.EventsBetween(ctx, at(9, 0), at(12, 0))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.Equal(at(11, 59)))
	assert.True(t, events[1].Timestamp.Equal(at(9, 0)))
}

func TestAppendEvent_DuplicateIdempotencyKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	event := cash.CashEvent{
		ID:             "evt-1",
		Timestamp:      at(10, 0),
		Kind:           cash.EventSale,
		Breakdown:      cash.Breakdown{},
		IdempotencyKey: "sale-order-42",
	}
	require.NoError(t, store.AppendEvent(ctx, event))

	event.ID = "evt-2"
	err := store.AppendEvent(ctx, event)
	assert.ErrorIs(t, err, cash.ErrDuplicateEvent)
}

func TestAppendEvents_AtomicOnDuplicate(t *testing.T) {
	// GIVEN: An existing event with key "dup"
	// WHEN: Appending a batch whose second event reuses that key
	// THEN: The whole batch is rolled back.

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendEvent(ctx, cash.CashEvent{
		ID: "evt-0", Timestamp: at(9, 0), Kind: cash.EventSale,
		Breakdown: cash.Breakdown{}, IdempotencyKey: "dup",
	}))

	err := store.AppendEvents(ctx, []cash.CashEvent{
		{ID: "evt-1", Timestamp: at(10, 0), Kind: cash.EventSale, Breakdown: cash.Breakdown{}, IdempotencyKey: "fresh"},
		{ID: "evt-2", Timestamp: at(10, 0), Kind: cash.EventChange, Breakdown: cash.Breakdown{}, IdempotencyKey: "dup"},
	})
	assert.ErrorIs(t, err, cash.ErrDuplicateEvent)

	events, err := store.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEvents_EmptyStore(t *testing.T) {
	store := newTestStore(t)

	events, err := store.Events(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

// =============================================================================
// DRAWER INVENTORY
// =============================================================================

func TestSaveDrawer_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lines := []cash.DrawerLine{
		{Denomination: 50000, Quantity: 8},
		{Denomination: 10000, Quantity: 15},
		{Denomination: 100, Quantity: 50},
	}
	require.NoError(t, store.SaveDrawer(ctx, lines))

	loaded, err := store.LoadDrawer(ctx)
	require.NoError(t, err)
	assert.Equal(t, lines, loaded)
}

func TestSaveDrawer_ReplacesWholesale(t *testing.T) {
	// A second save must not leave stale lines from the first behind.
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDrawer(ctx, []cash.DrawerLine{
		{Denomination: 50000, Quantity: 8},
		{Denomination: 100, Quantity: 50},
	}))
	require.NoError(t, store.SaveDrawer(ctx, []cash.DrawerLine{
		{Denomination: 500, Quantity: 30},
	}))

	loaded, err := store.LoadDrawer(ctx)
	require.NoError(t, err)
	assert.Equal(t, []cash.DrawerLine{{Denomination: 500, Quantity: 30}}, loaded)
}

func TestLoadDrawer_EmptyStore_Nil(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.LoadDrawer(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

// =============================================================================
// OPENING BALANCES
// =============================================================================

func TestOpeningBalance_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	ob := cash.OpeningBalance{
		ID:  "ob-1",
		Day: day,
		Lines: []cash.DrawerLine{
			{Denomination: 1000, Quantity: 25},
		},
		Total:   25000,
		TakenAt: at(8, 0),
	}
	require.NoError(t, store.SaveOpeningBalance(ctx, ob))

	loaded, err := store.OpeningBalanceOn(ctx, day)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, ob.ID, loaded.ID)
	assert.Equal(t, ob.Lines, loaded.Lines)
	assert.Equal(t, ob.Total, loaded.Total)
	assert.True(t, loaded.Day.Equal(day))
	assert.True(t, loaded.TakenAt.Equal(ob.TakenAt))
}

func TestOpeningBalance_UpsertPerDay(t *testing.T) {
	// Opening the same day twice keeps only the latest snapshot.
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveOpeningBalance(ctx, cash.OpeningBalance{
		ID: "ob-1", Day: day, Lines: []cash.DrawerLine{}, Total: 1005000, TakenAt: at(8, 0),
	}))
	require.NoError(t, store.SaveOpeningBalance(ctx, cash.OpeningBalance{
		ID: "ob-2", Day: day, Lines: []cash.DrawerLine{}, Total: 1017000, TakenAt: at(8, 5),
	}))

	loaded, err := store.OpeningBalanceOn(ctx, day)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "ob-2", loaded.ID)
	assert.Equal(t, int64(1017000), loaded.Total)
}

func TestOpeningBalanceOn_MissingDay_Nil(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.OpeningBalanceOn(context.Background(),
		time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

// =============================================================================
// RESET
// =============================================================================

func TestReset_ClearsAllTables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendEvent(ctx, cash.CashEvent{
		ID: "evt-1", Timestamp: at(10, 0), Kind: cash.EventSale, Breakdown: cash.Breakdown{},
	}))
	require.NoError(t, store.SaveDrawer(ctx, []cash.DrawerLine{{Denomination: 100, Quantity: 1}}))
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveOpeningBalance(ctx, cash.OpeningBalance{
		ID: "ob-1", Day: day, Lines: []cash.DrawerLine{}, Total: 100, TakenAt: at(8, 0),
	}))

	require.NoError(t, store.Reset(ctx))

	events, err := store.Events(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	lines, err := store.LoadDrawer(ctx)
	require.NoError(t, err)
	assert.Nil(t, lines)

	ob, err := store.OpeningBalanceOn(ctx, day)
	require.NoError(t, err)
	assert.Nil(t, ob)
}
