/*
drawer.go - Canonical denomination inventory

PURPOSE:
  The Drawer owns the authoritative per-denomination cash inventory for
  one till session. It is created once at startup from a configured
  initial count and mutated only through ApplyBreakdown.

CRITICAL INVARIANTS:
  1. FULL COVERAGE: Exactly one line per configured denomination.
     No duplicates, no omissions.
  2. NON-NEGATIVE: No committed mutation may drive a quantity below
     zero. ApplyBreakdown validates every line before touching state
     and rejects the whole breakdown on any violation (all-or-nothing).
  3. SINGLE MUTATION PATH: Direct quantity replacement (till inspection
     screens) is modeled as DeltaTo + ApplyBreakdown, so every change
     funnels through one loggable code path.

WHAT THIS TYPE DOES NOT DO:
  Ledger appends. Pairing a mutation with its CashEvent is the
  orchestration layer's job, which keeps drawer state decoupled from
  audit logging.

CONCURRENCY:
  Guarded by a sync.RWMutex. The intended deployment is single-writer
  (one till, one operator), but reads may come from any goroutine
  serving the HTTP surface.

SEE ALSO:
  - breakdown.go: Produces the breakdowns applied here
  - till/service.go: The only writer
*/
package cash

import "sync"

// Drawer is the authoritative cash inventory, one line per denomination.
type Drawer struct {
	mu       sync.RWMutex
	currency *Currency
	lines    []DrawerLine // same order as currency.denominations
}

// NewDrawer builds a drawer covering the full denomination set exactly
// once. Initial lines may cover any subset; uncovered denominations
// start at zero. Unknown denominations, duplicates, and negative
// quantities are rejected.
func NewDrawer(currency *Currency, initial []DrawerLine) (*Drawer, error) {
	quantities := make(map[int64]int64, len(initial))
	for _, line := range initial {
		if !currency.Contains(line.Denomination) {
			return nil, &NotFoundError{Denomination: line.Denomination}
		}
		if _, dup := quantities[line.Denomination]; dup {
			return nil, &InvalidAmountError{Amount: line.Denomination, Reason: "duplicate initial drawer line"}
		}
		if line.Quantity < 0 {
			return nil, &InvalidAmountError{Amount: line.Quantity, Reason: "initial quantity must be non-negative"}
		}
		quantities[line.Denomination] = line.Quantity
	}

	lines := make([]DrawerLine, 0, len(currency.denominations))
	for _, d := range currency.denominations {
		lines = append(lines, DrawerLine{Denomination: d.Value, Quantity: quantities[d.Value]})
	}
	return &Drawer{currency: currency, lines: lines}, nil
}

// Currency returns the denomination set this drawer operates with.
func (d *Drawer) Currency() *Currency { return d.currency }

// Line returns the drawer line for a denomination.
func (d *Drawer) Line(denomination int64) (DrawerLine, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, line := range d.lines {
		if line.Denomination == denomination {
			return line, nil
		}
	}
	return DrawerLine{}, &NotFoundError{Denomination: denomination}
}

// Quantity implements Inventory for the constrained calculator.
// Unknown denominations read as zero.
func (d *Drawer) Quantity(denomination int64) int64 {
	line, err := d.Line(denomination)
	if err != nil {
		return 0
	}
	return line.Quantity
}

// Lines returns a copy of all drawer lines in denomination order.
func (d *Drawer) Lines() []DrawerLine {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]DrawerLine, len(d.lines))
	copy(out, d.lines)
	return out
}

// TotalValue returns the drawer's total cash value.
func (d *Drawer) TotalValue() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var total int64
	for _, line := range d.lines {
		total += line.Denomination * line.Quantity
	}
	return total
}

// ApplyBreakdown adds each breakdown line's signed quantity to the
// matching drawer line. This is the ONLY mutation path.
//
// All-or-nothing: the whole breakdown is validated first. If any line
// addresses an unknown denomination or would drive a quantity negative,
// nothing is applied.
//
// Errors:
//   - NotFoundError for an unconfigured denomination.
//   - InsufficientInventoryError if any quantity would go negative.
func (d *Drawer) ApplyBreakdown(b Breakdown) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Validate before commit. Deltas accumulate per denomination so a
	// breakdown may touch the same line more than once (a sale's merged
	// received+change delta does).
	projected := make(map[int]int64, len(b))
	for _, line := range b {
		idx := d.indexOf(line.Denomination)
		if idx < 0 {
			return &NotFoundError{Denomination: line.Denomination}
		}
		quantity, ok := projected[idx]
		if !ok {
			quantity = d.lines[idx].Quantity
		}
		quantity += line.Quantity
		if quantity < 0 {
			// Scope the amounts to the offending line: how much value the
			// breakdown nets out of it versus what it holds.
			covered := d.lines[idx].Quantity * line.Denomination
			short := -quantity * line.Denomination
			return &InsufficientInventoryError{
				Requested:    covered + short,
				Covered:      covered,
				Shortfall:    short,
				Denomination: line.Denomination,
			}
		}
		projected[idx] = quantity
	}

	for _, line := range b {
		idx := d.indexOf(line.Denomination)
		d.lines[idx].Quantity += line.Quantity
	}
	return nil
}

// DeltaTo computes the breakdown that transforms the current inventory
// into target. Used by count-correction flows so that inspection edits
// go through ApplyBreakdown like every other mutation.
//
// Target lines may cover any subset of denominations; omitted lines are
// left untouched. Unknown denominations and negative target quantities
// are rejected.
func (d *Drawer) DeltaTo(target []DrawerLine) (Breakdown, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[int64]bool, len(target))
	var delta Breakdown
	for _, t := range target {
		if seen[t.Denomination] {
			return nil, &InvalidAmountError{Amount: t.Denomination, Reason: "duplicate target drawer line"}
		}
		seen[t.Denomination] = true
		if t.Quantity < 0 {
			return nil, &InvalidAmountError{Amount: t.Quantity, Reason: "target quantity must be non-negative"}
		}
		idx := d.indexOf(t.Denomination)
		if idx < 0 {
			return nil, &NotFoundError{Denomination: t.Denomination}
		}
		diff := t.Quantity - d.lines[idx].Quantity
		if diff == 0 {
			continue
		}
		delta = append(delta, BreakdownLine{
			Denomination: t.Denomination,
			Quantity:     diff,
			Total:        diff * t.Denomination,
		})
	}
	return delta, nil
}

// indexOf returns the position of a denomination, or -1.
// Caller must hold the lock.
func (d *Drawer) indexOf(denomination int64) int {
	for i, line := range d.lines {
		if line.Denomination == denomination {
			return i
		}
	}
	return -1
}
