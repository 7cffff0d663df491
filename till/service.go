/*
Package till orchestrates the cash drawer.

PURPOSE:
  The cash package knows denominations, breakdowns, and events, but not
  the business rules that tie them together. This package is the ONLY
  writer: every sale, deposit, withdrawal, and count correction flows
  through Service, which pairs each drawer mutation with its ledger
  event and keeps the two consistent.

INVARIANTS ENFORCED HERE:
  1. CONSERVATION: drawer total at any time equals the initial total
     plus the signed sum of all appended event totals.
  2. PAIRING: every drawer mutation produces exactly one or two events
     (a sale with change owed produces two, appended atomically).
  3. ATOMICITY: drawer apply + ledger append succeed or fail together.
     If the append fails after the drawer was mutated, the mutation is
     reverted by applying its negation.
  4. NON-NEGATIVITY: payouts are inventory-constrained; a shortfall is
     surfaced as InsufficientInventoryError carrying the exact amount,
     and nothing is applied (unless Policy.AllowPartialPayout).

POLICY CHOICES:
  - Manual withdrawals are inventory-constrained like change. The
    unconstrained behavior is available via Policy but off by default.
  - Count corrections always append an adjustment event; there is no
    unlogged mutation path.
  - Received cash defaults to the canonical largest-first breakdown of
    the tendered amount; an operator-supplied tender breakdown is used
    verbatim when provided.

PERSISTENCE:
  Display-first, best-effort: the in-memory drawer is authoritative.
  After each committed operation the inventory is saved to the Store
  and mirrored to the optional device cache; failures are logged as
  warnings and never roll back the operation (the ledger append already
  committed).

SEE ALSO:
  - cash/drawer.go: The state this service mutates
  - cash/ledger.go: The audit trail it appends to
*/
package till

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/till-engine/cash"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Policy holds the operator-facing behavior knobs.
type Policy struct {
	// AllowPartialPayout pays out whatever the drawer can cover when it
	// cannot satisfy the full amount, instead of rejecting. The event
	// records the covered amount; the shortfall is returned to the
	// caller for the operator warning.
	AllowPartialPayout bool

	// UnconstrainedWithdrawals restores the legacy behavior of building
	// withdrawal breakdowns without consulting inventory. The drawer
	// still refuses to go negative, so this only changes WHICH
	// denominations are attempted, not the non-negativity guarantee.
	UnconstrainedWithdrawals bool
}

// Cache mirrors drawer+ledger state to a device-local blob store.
// Writes are best-effort; see store/kvfile.
type Cache interface {
	Write(ctx context.Context, lines []cash.DrawerLine, events []cash.CashEvent) error
}

// Config assembles a Service.
type Config struct {
	Currency *cash.Currency    // nil = cash.DefaultCurrency()
	Store    cash.Store        // required
	Initial  []cash.DrawerLine // starting inventory when the store is empty
	Policy   Policy
	Cache    Cache          // optional device-cache mirror
	Logger   *logrus.Logger // nil = logrus.StandardLogger()
	Now      func() time.Time
}

// =============================================================================
// SERVICE
// =============================================================================

// Service owns the drawer and ledger for one till session.
type Service struct {
	mu sync.Mutex // serializes mutations

	currency *cash.Currency
	drawer   *cash.Drawer
	ledger   *cash.DefaultLedger
	store    cash.Store
	cache    Cache
	policy   Policy
	log      *logrus.Logger
	now      func() time.Time
}

// New builds a Service. A previously persisted drawer inventory takes
// precedence over cfg.Initial.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("till: store is required")
	}
	currency := cfg.Currency
	if currency == nil {
		currency = cash.DefaultCurrency()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	initial := cfg.Initial
	persisted, err := cfg.Store.LoadDrawer(ctx)
	if err != nil {
		return nil, fmt.Errorf("till: load drawer: %w", err)
	}
	if persisted != nil {
		initial = persisted
	}

	drawer, err := cash.NewDrawer(currency, initial)
	if err != nil {
		return nil, err
	}

	ledger := cash.NewLedger(cfg.Store)
	ledger.Now = now

	return &Service{
		currency: currency,
		drawer:   drawer,
		ledger:   ledger,
		store:    cfg.Store,
		cache:    cfg.Cache,
		policy:   cfg.Policy,
		log:      logger,
		now:      now,
	}, nil
}

// Drawer exposes the read-only drawer surface.
func (s *Service) Drawer() *cash.Drawer { return s.drawer }

// Ledger exposes the read-only ledger surface.
func (s *Service) Ledger() cash.Ledger { return s.ledger }

// =============================================================================
// SALE
// =============================================================================

// SaleInput describes one completed cash sale.
type SaleInput struct {
	AmountDue      int64
	AmountReceived int64

	// Tendered is the actual bills/coins the customer handed over.
	// When nil, the canonical largest-first breakdown of AmountReceived
	// is assumed (aggregate-only tracking).
	Tendered cash.Breakdown

	// TransactionID links the cash events to the order transaction.
	TransactionID string

	Description string
}

// SaleResult reports what was recorded.
type SaleResult struct {
	Sale        cash.CashEvent
	Change      *cash.CashEvent // nil when no change was owed
	ChangeOwed  int64
	ChangePaid  int64
	Shortfall   int64 // non-zero only with Policy.AllowPartialPayout
	DrawerTotal int64
}

// RecordSale applies a cash sale: the received breakdown goes into the
// drawer, the change breakdown comes out, and one sale event plus (when
// change is owed) one change event are appended atomically.
func (s *Service) RecordSale(ctx context.Context, in SaleInput) (SaleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.AmountDue < 0 {
		return SaleResult{}, &cash.InvalidAmountError{Amount: in.AmountDue, Reason: "amount due must be non-negative"}
	}
	if in.AmountReceived < in.AmountDue {
		return SaleResult{}, &cash.InvalidAmountError{Amount: in.AmountReceived, Reason: "amount received is less than amount due"}
	}

	received, err := s.receivedBreakdown(in)
	if err != nil {
		return SaleResult{}, err
	}
	changeOwed := in.AmountReceived - in.AmountDue

	var change cash.Breakdown
	var shortfall int64
	if changeOwed > 0 {
		change, shortfall, err = s.currency.BreakdownConstrained(changeOwed, s.drawer)
		if err != nil {
			return SaleResult{}, err
		}
		if shortfall > 0 && !s.policy.AllowPartialPayout {
			return SaleResult{}, &cash.InsufficientInventoryError{
				Requested: changeOwed,
				Covered:   changeOwed - shortfall,
				Shortfall: shortfall,
			}
		}
	}

	txID := in.TransactionID
	if txID == "" {
		txID = uuid.NewString()
	}

	events := []cash.CashEvent{{
		Kind:                cash.EventSale,
		LinkedTransactionID: txID,
		Breakdown:           received,
		TotalAmount:         in.AmountReceived,
		Description:         in.Description,
		IdempotencyKey:      "sale-" + txID,
	}}
	if len(change) > 0 {
		events = append(events, cash.CashEvent{
			Kind:                cash.EventChange,
			LinkedTransactionID: txID,
			Breakdown:           change.Negate(),
			TotalAmount:         -change.Total(),
			Description:         in.Description,
			IdempotencyKey:      "change-" + txID,
		})
	}

	// One drawer delta for the whole sale: all-or-nothing.
	delta := append(append(cash.Breakdown{}, received...), change.Negate()...)
	appended, err := s.commit(ctx, delta, events)
	if err != nil {
		return SaleResult{}, err
	}

	result := SaleResult{
		Sale:        appended[0],
		ChangeOwed:  changeOwed,
		ChangePaid:  change.Total(),
		Shortfall:   shortfall,
		DrawerTotal: s.drawer.TotalValue(),
	}
	if len(appended) > 1 {
		result.Change = &appended[1]
	}

	s.log.WithFields(logrus.Fields{
		"event_id":    result.Sale.ID,
		"transaction": txID,
		"received":    in.AmountReceived,
		"change":      result.ChangePaid,
	}).Info("cash sale recorded")
	return result, nil
}

func (s *Service) receivedBreakdown(in SaleInput) (cash.Breakdown, error) {
	if in.Tendered == nil {
		return s.currency.Breakdown(in.AmountReceived)
	}
	var total int64
	for _, line := range in.Tendered {
		if !s.currency.Contains(line.Denomination) {
			return nil, &cash.NotFoundError{Denomination: line.Denomination}
		}
		if line.Quantity <= 0 {
			return nil, &cash.InvalidAmountError{Amount: line.Quantity, Reason: "tendered quantity must be positive"}
		}
		if line.Total != line.Quantity*line.Denomination {
			return nil, &cash.InvalidAmountError{Amount: line.Total, Reason: "tendered line total mismatch"}
		}
		total += line.Total
	}
	if total != in.AmountReceived {
		return nil, &cash.InvalidAmountError{Amount: total, Reason: "tendered breakdown does not match amount received"}
	}
	return in.Tendered, nil
}

// =============================================================================
// MANUAL DEPOSIT / WITHDRAWAL
// =============================================================================

// Deposit adds cash to the drawer using the canonical breakdown and
// appends one manual_deposit event.
func (s *Service) Deposit(ctx context.Context, amount int64, description string) (cash.CashEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount <= 0 {
		return cash.CashEvent{}, &cash.InvalidAmountError{Amount: amount, Reason: "deposit amount must be positive"}
	}
	breakdown, err := s.currency.Breakdown(amount)
	if err != nil {
		return cash.CashEvent{}, err
	}

	event := cash.CashEvent{
		Kind:        cash.EventManualDeposit,
		Breakdown:   breakdown,
		TotalAmount: amount,
		Description: description,
	}
	appended, err := s.commit(ctx, breakdown, []cash.CashEvent{event})
	if err != nil {
		return cash.CashEvent{}, err
	}

	s.log.WithFields(logrus.Fields{"event_id": appended[0].ID, "amount": amount}).Info("manual deposit")
	return appended[0], nil
}

// WithdrawResult reports a withdrawal, including any shortfall paid
// partially under Policy.AllowPartialPayout.
type WithdrawResult struct {
	Event     cash.CashEvent
	Requested int64
	Paid      int64
	Shortfall int64
}

// Withdraw removes cash from the drawer and appends one manual_withdraw
// event with a negative total. Inventory-constrained by default.
func (s *Service) Withdraw(ctx context.Context, amount int64, description string) (WithdrawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount <= 0 {
		return WithdrawResult{}, &cash.InvalidAmountError{Amount: amount, Reason: "withdrawal amount must be positive"}
	}

	var breakdown cash.Breakdown
	var shortfall int64
	var err error
	if s.policy.UnconstrainedWithdrawals {
		breakdown, err = s.currency.Breakdown(amount)
	} else {
		breakdown, shortfall, err = s.currency.BreakdownConstrained(amount, s.drawer)
	}
	if err != nil {
		return WithdrawResult{}, err
	}
	if shortfall > 0 && !s.policy.AllowPartialPayout {
		return WithdrawResult{}, &cash.InsufficientInventoryError{
			Requested: amount,
			Covered:   amount - shortfall,
			Shortfall: shortfall,
		}
	}

	paid := breakdown.Total()
	event := cash.CashEvent{
		Kind:        cash.EventManualWithdraw,
		Breakdown:   breakdown.Negate(),
		TotalAmount: -paid,
		Description: description,
	}
	appended, err := s.commit(ctx, breakdown.Negate(), []cash.CashEvent{event})
	if err != nil {
		return WithdrawResult{}, err
	}

	s.log.WithFields(logrus.Fields{"event_id": appended[0].ID, "amount": paid, "shortfall": shortfall}).Info("manual withdrawal")
	return WithdrawResult{Event: appended[0], Requested: amount, Paid: paid, Shortfall: shortfall}, nil
}

// =============================================================================
// COUNT CORRECTION
// =============================================================================

// CorrectCount replaces on-hand quantities with an operator-supplied
// physical count. The change is applied as a delta breakdown and always
// logged as an adjustment event. Returns nil when the count matches.
func (s *Service) CorrectCount(ctx context.Context, target []cash.DrawerLine, reason string) (*cash.CashEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta, err := s.drawer.DeltaTo(target)
	if err != nil {
		return nil, err
	}
	if delta.IsZero() {
		return nil, nil
	}

	event := cash.CashEvent{
		Kind:        cash.EventAdjustment,
		Breakdown:   delta,
		TotalAmount: delta.Total(),
		Description: reason,
	}
	appended, err := s.commit(ctx, delta, []cash.CashEvent{event})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"event_id": appended[0].ID, "delta": delta.Total()}).Info("count correction")
	return &appended[0], nil
}

// =============================================================================
// DAY LIFECYCLE
// =============================================================================

// OpenDay snapshots the current inventory as the day's opening balance.
// Settlement reports use it to derive the expected closing cash.
func (s *Service) OpenDay(ctx context.Context) (cash.OpeningBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	day, _ := cash.DayBounds(now)
	ob := cash.OpeningBalance{
		ID:      uuid.NewString(),
		Day:     day,
		Lines:   s.drawer.Lines(),
		Total:   s.drawer.TotalValue(),
		TakenAt: now,
	}
	if err := s.store.SaveOpeningBalance(ctx, ob); err != nil {
		return cash.OpeningBalance{}, err
	}
	return ob, nil
}

// Reset bulk-clears persisted state and zeroes the drawer.
// Dev/test tooling only; not part of normal operation.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	zero := make([]cash.DrawerLine, 0, len(s.currency.Denominations()))
	for _, d := range s.currency.Denominations() {
		zero = append(zero, cash.DrawerLine{Denomination: d.Value, Quantity: 0})
	}
	delta, err := s.drawer.DeltaTo(zero)
	if err != nil {
		return err
	}
	return s.drawer.ApplyBreakdown(delta)
}

// =============================================================================
// COMMIT - One atomic drawer mutation + ledger append
// =============================================================================

// commit applies the drawer delta and appends the events as one unit.
// If the append fails, the drawer mutation is reverted. Persistence to
// the store and device cache is best-effort and never fails the commit.
func (s *Service) commit(ctx context.Context, delta cash.Breakdown, events []cash.CashEvent) ([]cash.CashEvent, error) {
	if err := s.drawer.ApplyBreakdown(delta); err != nil {
		return nil, err
	}
	appended, err := s.ledger.AppendAll(ctx, events)
	if err != nil {
		if revertErr := s.drawer.ApplyBreakdown(delta.Negate()); revertErr != nil {
			// The negation of an applied delta is always applicable;
			// reaching this means drawer state was tampered with.
			s.log.WithError(revertErr).Error("failed to revert drawer mutation")
		}
		return nil, err
	}
	s.persist(ctx)
	return appended, nil
}

func (s *Service) persist(ctx context.Context) {
	if err := s.store.SaveDrawer(ctx, s.drawer.Lines()); err != nil {
		s.log.WithError(err).Warn("drawer persistence failed; in-memory state is authoritative")
	}
	if s.cache == nil {
		return
	}
	events, err := s.ledger.Events(ctx)
	if err == nil {
		err = s.cache.Write(ctx, s.drawer.Lines(), events)
	}
	if err != nil {
		s.log.WithError(err).Warn("device cache write failed")
	}
}
