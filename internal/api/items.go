package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/izposoja/internal/alloc"
	"github.com/erazemk/izposoja/internal/model"
)

// ItemsHandler handles the item catalogue and maintenance endpoints.
type ItemsHandler struct {
	Gateway *alloc.Gateway
}

type itemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
}

func (req itemRequest) input() alloc.ItemInput {
	return alloc.ItemInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

type addStockRequest struct {
	Quantity int `json:"quantity"`
}

type maintenanceRequest struct {
	MaintenanceDate     time.Time  `json:"maintenance_date"`
	Description         string     `json:"description"`
	Cost                *float64   `json:"cost"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date"`
}

type completeMaintenanceRequest struct {
	Cost *float64 `json:"cost"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Gateway.ListItems(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		allocError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// LowStock handles GET /api/items/low-stock.
func (h *ItemsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.Gateway.GetLowStockItems(r.Context())
	if err != nil {
		allocError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Gateway.CreateItem(r.Context(), callerOf(r), req.input())
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("item created", "user", usernameOf(r), "item", item.Name, "quantity", item.Quantity)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Gateway.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		allocError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Gateway.UpdateItem(r.Context(), callerOf(r), r.PathValue("id"), req.input())
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("item updated", "user", usernameOf(r), "item", item.Name)
	jsonResponse(w, http.StatusOK, item)
}

// SetStatus handles PUT /api/items/{id}/status.
func (h *ItemsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Gateway.SetItemStatus(r.Context(), callerOf(r), r.PathValue("id"), req.Status)
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("item status changed", "user", usernameOf(r), "item", item.Name, "status", item.Status)
	jsonResponse(w, http.StatusOK, item)
}

// AddStock handles POST /api/items/{id}/stock.
func (h *ItemsHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req addStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Gateway.AddStock(r.Context(), callerOf(r), r.PathValue("id"), req.Quantity)
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("stock added", "user", usernameOf(r), "item", item.Name, "quantity", req.Quantity)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Gateway.DeleteItem(r.Context(), callerOf(r), id); err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("item deleted", "user", usernameOf(r), "item", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// ListMaintenance handles GET /api/items/{id}/maintenance.
func (h *ItemsHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	records, err := h.Gateway.ListMaintenance(r.Context(), r.PathValue("id"))
	if err != nil {
		allocError(w, r, err)
		return
	}
	if records == nil {
		records = []model.MaintenanceRecord{}
	}
	jsonResponse(w, http.StatusOK, records)
}

// ScheduleMaintenance handles POST /api/items/{id}/maintenance.
func (h *ItemsHandler) ScheduleMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.Gateway.ScheduleMaintenance(r.Context(), callerOf(r), alloc.MaintenanceRequest{
		ItemID:              r.PathValue("id"),
		MaintenanceDate:     req.MaintenanceDate,
		Description:         req.Description,
		Cost:                req.Cost,
		NextMaintenanceDate: req.NextMaintenanceDate,
	})
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("maintenance scheduled", "user", usernameOf(r), "item", m.ItemID, "date", m.MaintenanceDate)
	jsonResponse(w, http.StatusCreated, m)
}

// CompleteMaintenance handles POST /api/maintenance/{id}/complete.
func (h *ItemsHandler) CompleteMaintenance(w http.ResponseWriter, r *http.Request) {
	var req completeMaintenanceRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.Gateway.CompleteMaintenance(r.Context(), callerOf(r), r.PathValue("id"), req.Cost)
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("maintenance completed", "user", usernameOf(r), "item", m.ItemID)
	jsonResponse(w, http.StatusOK, m)
}
