package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/izposoja/internal/alloc"
	"github.com/erazemk/izposoja/internal/model"
)

// TransactionsHandler handles checkout, return and history endpoints.
type TransactionsHandler struct {
	Gateway *alloc.Gateway
}

type checkoutRequest struct {
	ItemID             string     `json:"item_id"`
	UserID             string     `json:"user_id"`
	Quantity           int        `json:"quantity"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
	Notes              string     `json:"notes"`
}

type returnRequest struct {
	ActualReturnDate *time.Time `json:"actual_return_date"`
	ReturnedQuantity *int       `json:"returned_quantity"`
	Notes            *string    `json:"notes"`
}

type markLostRequest struct {
	Notes *string `json:"notes"`
}

// Checkout handles POST /api/checkouts.
func (h *TransactionsHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID == "" {
		jsonError(w, http.StatusBadRequest, "item_id required")
		return
	}

	t, err := h.Gateway.Checkout(r.Context(), callerOf(r), alloc.CheckoutRequest{
		ItemID:             req.ItemID,
		UserID:             req.UserID,
		Quantity:           req.Quantity,
		ExpectedReturnDate: req.ExpectedReturnDate,
		Notes:              req.Notes,
	})
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("item checked out", "user", usernameOf(r), "item", t.ItemID, "quantity", t.Quantity, "for", t.UserID)
	jsonResponse(w, http.StatusCreated, t)
}

// Return handles POST /api/transactions/{id}/return.
func (h *TransactionsHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Gateway.ReturnItem(r.Context(), callerOf(r), alloc.ReturnRequest{
		TransactionID:    r.PathValue("id"),
		ActualReturnDate: req.ActualReturnDate,
		ReturnedQuantity: req.ReturnedQuantity,
		Notes:            req.Notes,
	})
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("item returned", "user", usernameOf(r), "item", t.ItemID, "transaction", t.ID)
	jsonResponse(w, http.StatusOK, t)
}

// MarkLost handles POST /api/transactions/{id}/lost.
func (h *TransactionsHandler) MarkLost(w http.ResponseWriter, r *http.Request) {
	var req markLostRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Gateway.MarkLost(r.Context(), callerOf(r), r.PathValue("id"), req.Notes)
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("checkout marked lost", "user", usernameOf(r), "item", t.ItemID, "quantity", t.Quantity)
	jsonResponse(w, http.StatusOK, t)
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseTimeParam(q.Get("from"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid from")
		return
	}
	to, err := parseTimeParam(q.Get("to"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid to")
		return
	}

	transactions, err := h.Gateway.ListTransactions(r.Context(), callerOf(r), alloc.TransactionQuery{
		UserID: q.Get("user_id"),
		ItemID: q.Get("item_id"),
		From:   from,
		To:     to,
	})
	if err != nil {
		allocError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, withDisplayStatus(transactions, h.Gateway.Now()))
}

// Overdue handles GET /api/transactions/overdue.
func (h *TransactionsHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.Gateway.GetOverdueTransactions(r.Context(), callerOf(r))
	if err != nil {
		allocError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, withDisplayStatus(transactions, h.Gateway.Now()))
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Gateway.GetTransaction(r.Context(), callerOf(r), r.PathValue("id"))
	if err != nil {
		allocError(w, r, err)
		return
	}
	t.Status = t.DisplayStatus(h.Gateway.Now())
	jsonResponse(w, http.StatusOK, t)
}

// withDisplayStatus reports active transactions past their expected return
// date as overdue.
func withDisplayStatus(transactions []model.Transaction, now time.Time) []model.Transaction {
	out := make([]model.Transaction, len(transactions))
	for i, t := range transactions {
		t.Status = t.DisplayStatus(now)
		out[i] = t
	}
	return out
}

// parseTimeParam accepts RFC 3339 timestamps and plain dates.
func parseTimeParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", v)
}
