/*
handlers.go - HTTP API handlers for the till engine

PURPOSE:
  Exposes the cash drawer via REST. Handles HTTP request/response and
  JSON serialization; all business rules live in the till service.

ENDPOINTS:
  Drawer:
    GET  /api/drawer                        Drawer lines + total
    GET  /api/drawer/lines/{denomination}   One drawer line
    POST /api/drawer/corrections            Count correction
    POST /api/drawer/deposits               Manual deposit
    POST /api/drawer/withdrawals            Manual withdrawal

  Sales:
    POST /api/sales                         Record a cash sale

  Reports:
    GET  /api/events?date=YYYY-MM-DD        Events on a day (default today)
    GET  /api/settlement?date=YYYY-MM-DD    Daily settlement report

  Day lifecycle:
    POST /api/day/open                      Opening balance snapshot
    POST /api/reset                         Bulk clear (dev/test only)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid amounts, malformed bodies, bad dates
  - 404: Unknown denomination
  - 409: Insufficient inventory (with shortfall details), duplicates
  - 500: Storage faults

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - till/service.go: The business rules behind every mutation
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/till-engine/cash"
	"github.com/warp/till-engine/till"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *till.Service
}

// NewHandler creates a handler backed by the given till service.
func NewHandler(service *till.Service) *Handler {
	return &Handler{Service: service}
}

// =============================================================================
// DRAWER
// =============================================================================

func (h *Handler) GetDrawer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.drawerDTO())
}

func (h *Handler) drawerDTO() DrawerDTO {
	drawer := h.Service.Drawer()
	kinds := make(map[int64]cash.DenominationKind)
	for _, d := range drawer.Currency().Denominations() {
		kinds[d.Value] = d.Kind
	}

	dto := DrawerDTO{TotalValue: drawer.TotalValue()}
	for _, line := range drawer.Lines() {
		dto.Lines = append(dto.Lines, DrawerLineDTO{
			Denomination: line.Denomination,
			Kind:         string(kinds[line.Denomination]),
			Quantity:     line.Quantity,
			Total:        line.Denomination * line.Quantity,
		})
	}
	return dto
}

func (h *Handler) GetDrawerLine(w http.ResponseWriter, r *http.Request) {
	denomination, err := strconv.ParseInt(chi.URLParam(r, "denomination"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid denomination", err)
		return
	}

	line, err := h.Service.Drawer().Line(denomination)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (h *Handler) CorrectCount(w http.ResponseWriter, r *http.Request) {
	var req CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "At least one drawer line is required", nil)
		return
	}

	event, err := h.Service.CorrectCount(r.Context(), req.Lines, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{"drawer": h.drawerDTO()}
	if event != nil {
		resp["adjustment"] = toEventDTO(*event)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SALES / DEPOSITS / WITHDRAWALS
// =============================================================================

func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Service.RecordSale(r.Context(), till.SaleInput{
		AmountDue:      req.AmountDue,
		AmountReceived: req.AmountReceived,
		Tendered:       req.Tendered,
		TransactionID:  req.TransactionID,
		Description:    req.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleResponse(result))
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	event, err := h.Service.Deposit(r.Context(), req.Amount, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(event))
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Service.Withdraw(r.Context(), req.Amount, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, WithdrawResponse{
		Event:     toEventDTO(result.Event),
		Requested: result.Requested,
		Paid:      result.Paid,
		Shortfall: result.Shortfall,
	})
}

// =============================================================================
// REPORTS
// =============================================================================

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	events, err := h.Service.Ledger().EventsOn(r.Context(), day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	settlement, err := h.Service.Ledger().DailySettlement(r.Context(), day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute settlement", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(settlement))
}

// =============================================================================
// DAY LIFECYCLE
// =============================================================================

func (h *Handler) OpenDay(w http.ResponseWriter, r *http.Request) {
	ob, err := h.Service.OpenDay(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store opening balance", err)
		return
	}
	writeJSON(w, http.StatusCreated, OpeningBalanceDTO{
		ID:      ob.ID,
		Day:     ob.Day.Format("2006-01-02"),
		Lines:   ob.Lines,
		Total:   ob.Total,
		TakenAt: ob.TakenAt.Format(time.RFC3339),
	})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

// dateParam reads the optional ?date=YYYY-MM-DD query, defaulting to today.
func dateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.ParseInLocation("2006-01-02", raw, time.Local)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses. Insufficient
// inventory carries the shortfall so the UI can warn the operator.
func writeDomainError(w http.ResponseWriter, err error) {
	var shortErr *cash.InsufficientInventoryError
	if errors.As(err, &shortErr) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: shortErr.Error(),
			Code:  "insufficient_inventory",
			Details: map[string]int64{
				"requested": shortErr.Requested,
				"covered":   shortErr.Covered,
				"shortfall": shortErr.Shortfall,
			},
		})
		return
	}

	switch {
	case errors.Is(err, cash.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, cash.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_amount"})
	case errors.Is(err, cash.ErrInvalidKind):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_kind"})
	case errors.Is(err, cash.ErrDuplicateEvent):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "duplicate_event"})
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
