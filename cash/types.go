/*
Package cash provides the core cash drawer engine.

PURPOSE:
  This package contains the types and algorithms for tracking a till's
  physical cash inventory: denominations, drawer lines, breakdown
  calculation, and the append-only event ledger that records every
  cash-affecting operation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Denomination: A legal-tender face value (bill or coin)
  - Currency: The fixed, ordered denomination set for a till
  - DrawerLine: Quantity on hand for one denomination
  - Breakdown: A decomposition of an amount into denomination counts
  - CashEvent: An immutable ledger entry recording a drawer mutation

DESIGN PRINCIPLES:
  1. Integer money: All amounts are int64 in the smallest currency unit.
     No floating point ever touches a balance.
  2. Immutability: CashEvents are never modified after append.
  3. Signed breakdowns: A negative line quantity means cash leaving the
     drawer. Sum of event totals always equals the drawer's net change.
  4. Auditability: Every mutation is paired with a ledger event.

USAGE:
  currency := cash.DefaultCurrency()
  b, err := currency.Breakdown(63500)
  // b = [{50000,1},{10000,1},{1000,3},{500,1}]

SEE ALSO:
  - breakdown.go: Greedy breakdown calculators
  - drawer.go: Drawer state and atomic apply
  - ledger.go: Append-only event log
*/
package cash

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DENOMINATION - Fixed face values
// =============================================================================

type DenominationKind string

const (
	KindBill DenominationKind = "bill"
	KindCoin DenominationKind = "coin"
)

// Denomination is one face value in the configured set.
// Kind is used only for display grouping, never for calculation.
type Denomination struct {
	Value int64
	Kind  DenominationKind
}

// Currency is the immutable, descending-ordered denomination set a till
// operates with. Built once at startup; never mutated afterwards.
type Currency struct {
	denominations []Denomination
}

// NewCurrency validates and builds a denomination set.
// Values must be positive, unique, and strictly descending.
func NewCurrency(denominations []Denomination) (*Currency, error) {
	if len(denominations) == 0 {
		return nil, &InvalidAmountError{Reason: "denomination set is empty"}
	}
	prev := int64(0)
	for i, d := range denominations {
		if d.Value <= 0 {
			return nil, &InvalidAmountError{Amount: d.Value, Reason: "denomination must be positive"}
		}
		if i > 0 && d.Value >= prev {
			return nil, &InvalidAmountError{Amount: d.Value, Reason: "denominations must be strictly descending"}
		}
		prev = d.Value
	}
	set := make([]Denomination, len(denominations))
	copy(set, denominations)
	return &Currency{denominations: set}, nil
}

// DefaultCurrency returns the standard denomination set:
// 50000/10000/5000/1000 bills and 500/100 coins.
func DefaultCurrency() *Currency {
	c, _ := NewCurrency([]Denomination{
		{Value: 50000, Kind: KindBill},
		{Value: 10000, Kind: KindBill},
		{Value: 5000, Kind: KindBill},
		{Value: 1000, Kind: KindBill},
		{Value: 500, Kind: KindCoin},
		{Value: 100, Kind: KindCoin},
	})
	return c
}

// Denominations returns the set in descending order (copy).
func (c *Currency) Denominations() []Denomination {
	out := make([]Denomination, len(c.denominations))
	copy(out, c.denominations)
	return out
}

// Smallest returns the smallest face value in the set.
func (c *Currency) Smallest() int64 {
	return c.denominations[len(c.denominations)-1].Value
}

// Contains reports whether value is part of the configured set.
func (c *Currency) Contains(value int64) bool {
	for _, d := range c.denominations {
		if d.Value == value {
			return true
		}
	}
	return false
}

// =============================================================================
// DRAWER LINE - Inventory for one denomination
// =============================================================================

// DrawerLine is the on-hand quantity for one denomination.
// INVARIANT: Quantity is never negative after a committed mutation.
type DrawerLine struct {
	Denomination int64 `json:"denomination"`
	Quantity     int64 `json:"quantity"`
}

// =============================================================================
// BREAKDOWN - Denomination decomposition of an amount
// =============================================================================

// BreakdownLine is one denomination/count pair. Quantity and Total are
// negative when the line represents cash leaving the drawer.
type BreakdownLine struct {
	Denomination int64 `json:"denomination"`
	Quantity     int64 `json:"quantity"`
	Total        int64 `json:"total"`
}

// Breakdown is an ordered (largest denomination first) sequence of lines.
type Breakdown []BreakdownLine

// Total returns the signed sum of all line totals.
func (b Breakdown) Total() int64 {
	var sum int64
	for _, line := range b {
		sum += line.Total
	}
	return sum
}

// Negate returns a copy with every quantity and total sign-flipped.
// Used to turn an outgoing amount's breakdown into a drawer delta.
func (b Breakdown) Negate() Breakdown {
	out := make(Breakdown, len(b))
	for i, line := range b {
		out[i] = BreakdownLine{
			Denomination: line.Denomination,
			Quantity:     -line.Quantity,
			Total:        -line.Total,
		}
	}
	return out
}

// Pieces returns the total number of physical pieces (absolute count).
func (b Breakdown) Pieces() int64 {
	var n int64
	for _, line := range b {
		if line.Quantity < 0 {
			n -= line.Quantity
		} else {
			n += line.Quantity
		}
	}
	return n
}

// IsZero reports whether the breakdown moves no cash at all.
func (b Breakdown) IsZero() bool {
	for _, line := range b {
		if line.Quantity != 0 {
			return false
		}
	}
	return true
}

// =============================================================================
// CASH EVENT - Immutable ledger entry
// =============================================================================

type EventKind string

const (
	EventSale           EventKind = "sale"            // Cash received for a sale (positive)
	EventChange         EventKind = "change"          // Change handed back (negative)
	EventAdjustment     EventKind = "adjustment"      // Count correction delta
	EventManualDeposit  EventKind = "manual_deposit"  // Operator added cash (positive)
	EventManualWithdraw EventKind = "manual_withdraw" // Operator removed cash (negative)
)

// ValidKind reports whether k is one of the five event kinds.
func ValidKind(k EventKind) bool {
	switch k {
	case EventSale, EventChange, EventAdjustment, EventManualDeposit, EventManualWithdraw:
		return true
	}
	return false
}

type EventID string

// CashEvent records one drawer mutation. Append-only: never modified or
// removed after append, except by an explicit bulk Reset (test tooling).
//
// Sign convention: TotalAmount > 0 means cash entered the drawer,
// TotalAmount < 0 means cash left it. The breakdown carries the same sign.
type CashEvent struct {
	ID                  EventID   `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	Kind                EventKind `json:"kind"`
	LinkedTransactionID string    `json:"linkedTransactionId,omitempty"`
	Breakdown           Breakdown `json:"breakdown"`
	TotalAmount         int64     `json:"totalAmount"`
	Description         string    `json:"description,omitempty"`

	// IdempotencyKey guards against double-appends from retries.
	// Empty key skips the check.
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// =============================================================================
// MONEY DISPLAY
// =============================================================================

// AmountDecimal converts a smallest-unit amount into a decimal for
// display math (averages, ratios). Balances stay int64.
func AmountDecimal(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount)
}
