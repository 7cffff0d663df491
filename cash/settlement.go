/*
settlement.go - Daily settlement and cash statistics

PURPOSE:
  Pure aggregation over a day's ledger events. Powers the sales summary
  cards, the settlement report, and the deposit/withdrawal totals. No
  mutation, no drawer reset: settlement is a query, day-close semantics
  live in opening-balance snapshots (store.go).

DEFINITIONS:
  TotalSales       sum of sale event totals (positive)
  TotalChange      sum of |change event totals|
  NetCashFlow      TotalSales - TotalChange
  TotalDeposits    sum of manual deposit totals
  TotalWithdrawals sum of |manual withdrawal totals|
  TotalAdjustments signed sum of adjustment totals
  NetTotal         signed sum over ALL events (drawer value change)
  AverageSale      TotalSales / SaleCount, decimal (display only)
  ExpectedClosing  opening snapshot total + NetTotal, when a snapshot
                   exists for the day

SEE ALSO:
  - ledger.go: DailySettlement entry point
  - store.go: OpeningBalance snapshots
*/
package cash

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement summarizes one calendar day of drawer activity.
type Settlement struct {
	Day time.Time `json:"day"`

	TotalSales       int64 `json:"totalSales"`
	TotalChange      int64 `json:"totalChange"`
	NetCashFlow      int64 `json:"netCashFlow"`
	TotalDeposits    int64 `json:"totalDeposits"`
	TotalWithdrawals int64 `json:"totalWithdrawals"`
	TotalAdjustments int64 `json:"totalAdjustments"`
	NetTotal         int64 `json:"netTotal"`

	SaleCount   int             `json:"saleCount"`
	AverageSale decimal.Decimal `json:"averageSale"`

	// OpeningBalance and ExpectedClosing are set only when an opening
	// snapshot exists for the day.
	OpeningBalance  *int64 `json:"openingBalance,omitempty"`
	ExpectedClosing *int64 `json:"expectedClosing,omitempty"`

	Events []CashEvent `json:"events"`
}

// Settle aggregates events (assumed to belong to day) into a Settlement.
// Pure function: deterministic, mutates nothing.
func Settle(day time.Time, events []CashEvent) Settlement {
	s := Settlement{Day: day, Events: events, AverageSale: decimal.Zero}

	for _, e := range events {
		s.NetTotal += e.TotalAmount
		switch e.Kind {
		case EventSale:
			s.TotalSales += e.TotalAmount
			s.SaleCount++
		case EventChange:
			s.TotalChange += abs(e.TotalAmount)
		case EventManualDeposit:
			s.TotalDeposits += e.TotalAmount
		case EventManualWithdraw:
			s.TotalWithdrawals += abs(e.TotalAmount)
		case EventAdjustment:
			s.TotalAdjustments += e.TotalAmount
		}
	}

	s.NetCashFlow = s.TotalSales - s.TotalChange
	if s.SaleCount > 0 {
		s.AverageSale = AmountDecimal(s.TotalSales).
			Div(decimal.NewFromInt(int64(s.SaleCount))).
			Round(2)
	}
	return s
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
