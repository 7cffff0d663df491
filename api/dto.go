/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These decouple the
  internal engine types from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the till service, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/till-engine/cash"
	"github.com/warp/till-engine/till"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// DrawerLineDTO is one denomination row of the drawer view.
type DrawerLineDTO struct {
	Denomination int64  `json:"denomination"`
	Kind         string `json:"kind"`
	Quantity     int64  `json:"quantity"`
	Total        int64  `json:"total"`
}

// DrawerDTO is the full drawer view.
type DrawerDTO struct {
	Lines      []DrawerLineDTO `json:"lines"`
	TotalValue int64           `json:"total_value"`
}

// EventDTO represents a ledger event.
type EventDTO struct {
	ID                  string         `json:"id"`
	Timestamp           string         `json:"timestamp"`
	Kind                string         `json:"kind"`
	LinkedTransactionID string         `json:"linked_transaction_id,omitempty"`
	Breakdown           cash.Breakdown `json:"breakdown"`
	TotalAmount         int64          `json:"total_amount"`
	Description         string         `json:"description,omitempty"`
}

// SaleRequest records a completed cash sale.
type SaleRequest struct {
	AmountDue      int64          `json:"amount_due"`
	AmountReceived int64          `json:"amount_received"`
	Tendered       cash.Breakdown `json:"tendered,omitempty"`
	TransactionID  string         `json:"transaction_id,omitempty"`
	Description    string         `json:"description,omitempty"`
}

// SaleResponse reports the recorded events and change.
type SaleResponse struct {
	Sale        EventDTO  `json:"sale"`
	Change      *EventDTO `json:"change,omitempty"`
	ChangeOwed  int64     `json:"change_owed"`
	ChangePaid  int64     `json:"change_paid"`
	Shortfall   int64     `json:"shortfall,omitempty"`
	DrawerTotal int64     `json:"drawer_total"`
}

// DepositRequest / WithdrawRequest are manual drawer operations.
type DepositRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

type WithdrawRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// WithdrawResponse includes any partial-payout shortfall.
type WithdrawResponse struct {
	Event     EventDTO `json:"event"`
	Requested int64    `json:"requested"`
	Paid      int64    `json:"paid"`
	Shortfall int64    `json:"shortfall,omitempty"`
}

// CorrectionRequest replaces on-hand quantities with a physical count.
type CorrectionRequest struct {
	Lines  []cash.DrawerLine `json:"lines"`
	Reason string            `json:"reason,omitempty"`
}

// SettlementDTO is the daily settlement report.
type SettlementDTO struct {
	Day              string     `json:"day"`
	TotalSales       int64      `json:"total_sales"`
	TotalChange      int64      `json:"total_change"`
	NetCashFlow      int64      `json:"net_cash_flow"`
	TotalDeposits    int64      `json:"total_deposits"`
	TotalWithdrawals int64      `json:"total_withdrawals"`
	TotalAdjustments int64      `json:"total_adjustments"`
	NetTotal         int64      `json:"net_total"`
	SaleCount        int        `json:"sale_count"`
	AverageSale      string     `json:"average_sale"`
	OpeningBalance   *int64     `json:"opening_balance,omitempty"`
	ExpectedClosing  *int64     `json:"expected_closing,omitempty"`
	Events           []EventDTO `json:"events"`
}

// OpeningBalanceDTO reports a start-of-day snapshot.
type OpeningBalanceDTO struct {
	ID      string            `json:"id"`
	Day     string            `json:"day"`
	Lines   []cash.DrawerLine `json:"lines"`
	Total   int64             `json:"total"`
	TakenAt string            `json:"taken_at"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEventDTO(e cash.CashEvent) EventDTO {
	return EventDTO{
		ID:                  string(e.ID),
		Timestamp:           e.Timestamp.Format(time.RFC3339),
		Kind:                string(e.Kind),
		LinkedTransactionID: e.LinkedTransactionID,
		Breakdown:           e.Breakdown,
		TotalAmount:         e.TotalAmount,
		Description:         e.Description,
	}
}

func toEventDTOs(events []cash.CashEvent) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	return dtos
}

func toSettlementDTO(s cash.Settlement) SettlementDTO {
	return SettlementDTO{
		Day:              s.Day.Format("2006-01-02"),
		TotalSales:       s.TotalSales,
		TotalChange:      s.TotalChange,
		NetCashFlow:      s.NetCashFlow,
		TotalDeposits:    s.TotalDeposits,
		TotalWithdrawals: s.TotalWithdrawals,
		TotalAdjustments: s.TotalAdjustments,
		NetTotal:         s.NetTotal,
		SaleCount:        s.SaleCount,
		AverageSale:      s.AverageSale.StringFixed(2),
		OpeningBalance:   s.OpeningBalance,
		ExpectedClosing:  s.ExpectedClosing,
		Events:           toEventDTOs(s.Events),
	}
}

func toSaleResponse(r till.SaleResult) SaleResponse {
	resp := SaleResponse{
		Sale:        toEventDTO(r.Sale),
		ChangeOwed:  r.ChangeOwed,
		ChangePaid:  r.ChangePaid,
		Shortfall:   r.Shortfall,
		DrawerTotal: r.DrawerTotal,
	}
	if r.Change != nil {
		dto := toEventDTO(*r.Change)
		resp.Change = &dto
	}
	return resp
}
