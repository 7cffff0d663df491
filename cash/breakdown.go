/*
breakdown.go - Greedy denomination breakdown calculators

PURPOSE:
  Pure, side-effect-free conversion of an integer amount (smallest
  currency unit) into denomination/quantity pairs. Two variants:

  Breakdown (unconstrained):
    Money coming INTO the drawer. No upper bound per denomination.
    Greedy largest-first; result total always equals the amount.

  BreakdownConstrained (inventory-constrained):
    Money leaving the drawer (change, withdrawal). Each denomination is
    capped at on-hand quantity. Result total may fall short of the
    amount; the shortfall is returned explicitly, never dropped.

POLICY DECISIONS (previously silent gaps):
  - A negative amount is rejected with InvalidAmountError.
  - An unconstrained amount that is not a multiple of the smallest
    denomination is rejected with InvalidAmountError (the remainder
    cannot exist as physical tender).
  - A constrained shortfall is part of the return value so the caller
    can warn the operator instead of losing money silently.

GUARANTEES:
  - Deterministic: same inputs, same output.
  - Never mutates the inventory it reads.
  - Greedy-minimal piece count for ladder denomination sets where each
    value divides the next larger one.

SEE ALSO:
  - drawer.go: Inventory interface implemented by Drawer
  - till/service.go: Callers that apply these breakdowns
*/
package cash

// Inventory exposes read-only on-hand quantities to the constrained
// calculator. *Drawer implements it; tests can supply fixed maps.
type Inventory interface {
	// Quantity returns the on-hand count for a denomination,
	// or 0 if the denomination is not stocked.
	Quantity(denomination int64) int64
}

// Breakdown decomposes amount into the canonical largest-first
// breakdown. The returned breakdown's total always equals amount.
//
// Errors:
//   - InvalidAmountError if amount is negative or not representable
//     with the configured denomination set.
func (c *Currency) Breakdown(amount int64) (Breakdown, error) {
	if amount < 0 {
		return nil, &InvalidAmountError{Amount: amount, Reason: "amount must be non-negative"}
	}

	var out Breakdown
	remaining := amount
	for _, d := range c.denominations {
		count := remaining / d.Value
		if count == 0 {
			continue
		}
		out = append(out, BreakdownLine{
			Denomination: d.Value,
			Quantity:     count,
			Total:        count * d.Value,
		})
		remaining -= count * d.Value
	}

	if remaining != 0 {
		return nil, &InvalidAmountError{
			Amount: amount,
			Reason: "not representable with the configured denominations",
		}
	}
	return out, nil
}

// BreakdownConstrained decomposes amount using only on-hand inventory.
// At each denomination the usable count is capped at available quantity.
//
// The returned shortfall is amount minus the breakdown's total: zero
// when the drawer fully covers the request, positive when it cannot.
// A positive shortfall is a reportable condition for the caller, not
// an error from this function.
//
// Errors:
//   - InvalidAmountError if amount is negative.
func (c *Currency) BreakdownConstrained(amount int64, available Inventory) (Breakdown, int64, error) {
	if amount < 0 {
		return nil, 0, &InvalidAmountError{Amount: amount, Reason: "amount must be non-negative"}
	}

	var out Breakdown
	remaining := amount
	for _, d := range c.denominations {
		count := remaining / d.Value
		if onHand := available.Quantity(d.Value); count > onHand {
			count = onHand
		}
		if count <= 0 {
			continue
		}
		out = append(out, BreakdownLine{
			Denomination: d.Value,
			Quantity:     count,
			Total:        count * d.Value,
		})
		remaining -= count * d.Value
	}

	return out, remaining, nil
}
