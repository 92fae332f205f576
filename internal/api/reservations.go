package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/izposoja/internal/alloc"
	"github.com/erazemk/izposoja/internal/model"
)

// ReservationsHandler handles booking endpoints.
type ReservationsHandler struct {
	Gateway *alloc.Gateway
}

type reservationRequest struct {
	ResourceID string    `json:"resource_id"`
	UserID     string    `json:"user_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Purpose    string    `json:"purpose"`
}

// List handles GET /api/reservations.
func (h *ReservationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reservations, err := h.Gateway.ListReservations(r.Context(), callerOf(r), alloc.ReservationQuery{
		ResourceID: q.Get("resource_id"),
		UserID:     q.Get("user_id"),
		Status:     q.Get("status"),
	})
	if err != nil {
		allocError(w, r, err)
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	jsonResponse(w, http.StatusOK, reservations)
}

// Create handles POST /api/reservations.
func (h *ReservationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ResourceID == "" {
		jsonError(w, http.StatusBadRequest, "resource_id required")
		return
	}

	res, err := h.Gateway.CreateReservation(r.Context(), callerOf(r), alloc.ReservationRequest{
		ResourceID: req.ResourceID,
		UserID:     req.UserID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Purpose:    req.Purpose,
	})
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("reservation created", "user", usernameOf(r), "resource", res.ResourceID,
		"start", res.StartTime, "end", res.EndTime)
	jsonResponse(w, http.StatusCreated, res)
}

// UpdateStatus handles PUT /api/reservations/{id}/status.
func (h *ReservationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Gateway.UpdateReservationStatus(r.Context(), callerOf(r), r.PathValue("id"), req.Status)
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("reservation status changed", "user", usernameOf(r), "reservation", res.ID, "status", res.Status)
	jsonResponse(w, http.StatusOK, res)
}
