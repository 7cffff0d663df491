package cash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/till-engine/cash"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// openingFloat is a typical opening drawer: total 1,005,000.
func openingFloat() []cash.DrawerLine {
	return []cash.DrawerLine{
		{Denomination: 50000, Quantity: 15},
		{Denomination: 10000, Quantity: 15},
		{Denomination: 5000, Quantity: 12},
		{Denomination: 1000, Quantity: 25},
		{Denomination: 500, Quantity: 30},
		{Denomination: 100, Quantity: 50},
	}
}

func newTestDrawer(t *testing.T) *cash.Drawer {
	drawer, err := cash.NewDrawer(cash.DefaultCurrency(), openingFloat())
	require.NoError(t, err)
	return drawer
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNewDrawer_CoversFullDenominationSet(t *testing.T) {
	// GIVEN: Initial lines covering only two denominations
	// WHEN: Building the drawer
	// THEN: Every configured denomination has exactly one line;
	//       uncovered denominations start at zero.

	drawer, err := cash.NewDrawer(cash.DefaultCurrency(), []cash.DrawerLine{
		{Denomination: 10000, Quantity: 3},
		{Denomination: 100, Quantity: 10},
	})
	require.NoError(t, err)

	lines := drawer.Lines()
	assert.Len(t, lines, 6)
	assert.Equal(t, int64(31000), drawer.TotalValue())

	line, err := drawer.Line(5000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), line.Quantity)
}

func TestNewDrawer_UnknownDenomination_Rejected(t *testing.T) {
	_, err := cash.NewDrawer(cash.DefaultCurrency(), []cash.DrawerLine{
		{Denomination: 200, Quantity: 1},
	})
	assert.ErrorIs(t, err, cash.ErrNotFound)
}

func TestNewDrawer_DuplicateLine_Rejected(t *testing.T) {
	_, err := cash.NewDrawer(cash.DefaultCurrency(), []cash.DrawerLine{
		{Denomination: 500, Quantity: 1},
		{Denomination: 500, Quantity: 2},
	})
	assert.ErrorIs(t, err, cash.ErrInvalidAmount)
}

func TestNewDrawer_NegativeQuantity_Rejected(t *testing.T) {
	_, err := cash.NewDrawer(cash.DefaultCurrency(), []cash.DrawerLine{
		{Denomination: 500, Quantity: -1},
	})
	assert.ErrorIs(t, err, cash.ErrInvalidAmount)
}

// =============================================================================
// READS
// =============================================================================

func TestDrawer_TotalValue(t *testing.T) {
	drawer := newTestDrawer(t)
	assert.Equal(t, int64(1005000), drawer.TotalValue())
}

func TestDrawer_Line_NotFound(t *testing.T) {
	drawer := newTestDrawer(t)

	_, err := drawer.Line(123)
	assert.ErrorIs(t, err, cash.ErrNotFound)

	var nfErr *cash.NotFoundError
	assert.ErrorAs(t, err, &nfErr)
	assert.Equal(t, int64(123), nfErr.Denomination)
}

func TestDrawer_Reads_Idempotent(t *testing.T) {
	// Reads without an intervening mutation return identical results.
	drawer := newTestDrawer(t)

	assert.Equal(t, drawer.TotalValue(), drawer.TotalValue())
	assert.Equal(t, drawer.Lines(), drawer.Lines())
}

// =============================================================================
// APPLY BREAKDOWN
// =============================================================================

func TestApplyBreakdown_Deposit(t *testing.T) {
	// Deposit 12000 into the 1,005,000 drawer: the 10000-line becomes
	// 16 and the 1000-line becomes 27.

	drawer := newTestDrawer(t)

	b, err := drawer.Currency().Breakdown(12000)
	require.NoError(t, err)
	require.NoError(t, drawer.ApplyBreakdown(b))

	assert.Equal(t, int64(16), drawer.Quantity(10000))
	assert.Equal(t, int64(27), drawer.Quantity(1000))
	assert.Equal(t, int64(1017000), drawer.TotalValue())
}

func TestApplyBreakdown_NegativeLines(t *testing.T) {
	drawer := newTestDrawer(t)

	err := drawer.ApplyBreakdown(cash.Breakdown{
		{Denomination: 500, Quantity: -10, Total: -5000},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20), drawer.Quantity(500))
	assert.Equal(t, int64(1000000), drawer.TotalValue())
}

func TestApplyBreakdown_WouldGoNegative_AllOrNothing(t *testing.T) {
	// GIVEN: 30 coins of 500 on hand
	// WHEN: Applying a breakdown that takes 40 of them (plus a valid line)
	// THEN: InsufficientInventoryError and NOTHING is applied.

	drawer := newTestDrawer(t)

	err := drawer.ApplyBreakdown(cash.Breakdown{
		{Denomination: 1000, Quantity: -5, Total: -5000},
		{Denomination: 500, Quantity: -40, Total: -20000},
	})
	assert.ErrorIs(t, err, cash.ErrInsufficientInventory)

	// The error pins down the offending line with amounts scoped to it:
	// the breakdown nets 40x500 (20,000) out of a line holding 30 (15,000).
	var invErr *cash.InsufficientInventoryError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, int64(500), invErr.Denomination)
	assert.Equal(t, int64(20000), invErr.Requested)
	assert.Equal(t, int64(15000), invErr.Covered)
	assert.Equal(t, int64(5000), invErr.Shortfall)

	// First line must not have been applied either.
	assert.Equal(t, int64(25), drawer.Quantity(1000))
	assert.Equal(t, int64(30), drawer.Quantity(500))
	assert.Equal(t, int64(1005000), drawer.TotalValue())
}

func TestApplyBreakdown_UnknownDenomination_Rejected(t *testing.T) {
	drawer := newTestDrawer(t)

	err := drawer.ApplyBreakdown(cash.Breakdown{
		{Denomination: 250, Quantity: 1, Total: 250},
	})
	assert.ErrorIs(t, err, cash.ErrNotFound)
	assert.Equal(t, int64(1005000), drawer.TotalValue())
}

func TestApplyBreakdown_RepeatedDenomination_ValidatedCumulatively(t *testing.T) {
	// A merged sale delta may touch the same line twice: +1x500 received
	// then -1x500 change on a drawer holding zero 500s. Sequentially the
	// quantity never dips below zero, so the apply must succeed.

	drawer, err := cash.NewDrawer(cash.DefaultCurrency(), nil)
	require.NoError(t, err)

	err = drawer.ApplyBreakdown(cash.Breakdown{
		{Denomination: 500, Quantity: 1, Total: 500},
		{Denomination: 500, Quantity: -1, Total: -500},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), drawer.Quantity(500))
}

// =============================================================================
// DELTA COMPUTATION
// =============================================================================

func TestDeltaTo_CountCorrection(t *testing.T) {
	// GIVEN: The opening drawer
	// WHEN: A physical count finds 14x10000 and 52x100
	// THEN: The delta is -1x10000, +2x100, and applying it lands the
	//       drawer exactly on the counted quantities.

	drawer := newTestDrawer(t)

	delta, err := drawer.DeltaTo([]cash.DrawerLine{
		{Denomination: 10000, Quantity: 14},
		{Denomination: 100, Quantity: 52},
	})
	require.NoError(t, err)

	assert.Equal(t, cash.Breakdown{
		{Denomination: 10000, Quantity: -1, Total: -10000},
		{Denomination: 100, Quantity: 2, Total: 200},
	}, delta)

	require.NoError(t, drawer.ApplyBreakdown(delta))
	assert.Equal(t, int64(14), drawer.Quantity(10000))
	assert.Equal(t, int64(52), drawer.Quantity(100))
}

func TestDeltaTo_NoChange_EmptyDelta(t *testing.T) {
	drawer := newTestDrawer(t)

	delta, err := drawer.DeltaTo(openingFloat())
	require.NoError(t, err)
	assert.True(t, delta.IsZero())
}

func TestDeltaTo_NegativeTarget_Rejected(t *testing.T) {
	drawer := newTestDrawer(t)

	_, err := drawer.DeltaTo([]cash.DrawerLine{{Denomination: 500, Quantity: -3}})
	assert.ErrorIs(t, err, cash.ErrInvalidAmount)
}

// =============================================================================
// BREAKDOWN HELPERS
// =============================================================================

func TestBreakdownNegate(t *testing.T) {
	b := cash.Breakdown{
		{Denomination: 1000, Quantity: 2, Total: 2000},
		{Denomination: 100, Quantity: 5, Total: 500},
	}

	n := b.Negate()
	assert.Equal(t, int64(-2500), n.Total())
	assert.Equal(t, int64(2500), b.Total(), "negate must not mutate the original")
}
