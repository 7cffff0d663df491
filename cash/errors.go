/*
errors.go - Centralized error types for the cash engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The till package wraps these with orchestration context.

ERROR CATEGORIES:
  1. Calculation errors - Bad amounts passed to breakdown calculators
  2. Inventory errors - Mutations the drawer cannot physically satisfy
  3. Ledger errors - Append/persistence failures

USAGE:
  if errors.Is(err, cash.ErrInsufficientInventory) {
      // drawer cannot cover the requested amount
  }

SEE ALSO:
  - breakdown.go: Raises ErrInvalidAmount
  - drawer.go: Raises ErrNotFound, ErrInsufficientInventory
  - ledger.go: Raises ErrInvalidKind, ErrDuplicateEvent
*/
package cash

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a denomination is not part of the
	// configured currency set.
	ErrNotFound = errors.New("denomination not found")

	// ErrInvalidAmount is returned when a negative or non-representable
	// amount is passed to a breakdown calculator.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientInventory is returned when the drawer cannot fully
	// cover a requested payout from on-hand quantities.
	ErrInsufficientInventory = errors.New("insufficient drawer inventory")

	// ErrInvalidKind is returned when an event carries an unknown kind.
	ErrInvalidKind = errors.New("invalid event kind")

	// ErrDuplicateEvent is returned when an event with the same
	// idempotency key already exists. Expected behavior for retries.
	ErrDuplicateEvent = errors.New("duplicate event idempotency key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which denomination was missing.
type NotFoundError struct {
	Denomination int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("denomination %d is not in the configured set", e.Denomination)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidAmountError explains why an amount was rejected.
type InvalidAmountError struct {
	Amount int64
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %d: %s", e.Amount, e.Reason)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// InsufficientInventoryError details a payout shortfall.
// Covered is what the drawer could supply; Shortfall = Requested - Covered.
// When the failure is pinned to a single drawer line (an ApplyBreakdown
// rejection), Denomination identifies it and the amounts are scoped to
// that line; zero means the amounts are request-level.
type InsufficientInventoryError struct {
	Requested    int64
	Covered      int64
	Shortfall    int64
	Denomination int64
}

func (e *InsufficientInventoryError) Error() string {
	if e.Denomination != 0 {
		return fmt.Sprintf("insufficient inventory of denomination %d: requested %d, covered %d, short by %d",
			e.Denomination, e.Requested, e.Covered, e.Shortfall)
	}
	return fmt.Sprintf("insufficient inventory: requested %d, covered %d, short by %d",
		e.Requested, e.Covered, e.Shortfall)
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientInventory }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// or an operator-recoverable condition (as opposed to a storage fault).
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrInsufficientInventory) ||
		errors.Is(err, ErrDuplicateEvent)
}
