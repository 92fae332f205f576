package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/izposoja/internal/alloc"
	"github.com/erazemk/izposoja/internal/model"
)

// ResourcesHandler handles the resource registry endpoints.
type ResourcesHandler struct {
	Gateway *alloc.Gateway
}

type resourceRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

func (req resourceRequest) input() alloc.ResourceInput {
	return alloc.ResourceInput{
		Name:        req.Name,
		Type:        req.Type,
		Location:    req.Location,
		Description: req.Description,
	}
}

// List handles GET /api/resources.
func (h *ResourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	resources, err := h.Gateway.ListResources(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		allocError(w, r, err)
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	jsonResponse(w, http.StatusOK, resources)
}

// Create handles POST /api/resources.
func (h *ResourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Gateway.CreateResource(r.Context(), callerOf(r), req.input())
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("resource created", "user", usernameOf(r), "resource", res.Name)
	jsonResponse(w, http.StatusCreated, res)
}

// Get handles GET /api/resources/{id}.
func (h *ResourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.Gateway.GetResource(r.Context(), r.PathValue("id"))
	if err != nil {
		allocError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// Update handles PUT /api/resources/{id}.
func (h *ResourcesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Gateway.UpdateResource(r.Context(), callerOf(r), r.PathValue("id"), req.input())
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("resource updated", "user", usernameOf(r), "resource", res.Name)
	jsonResponse(w, http.StatusOK, res)
}

// SetStatus handles PUT /api/resources/{id}/status.
func (h *ResourcesHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Gateway.SetResourceStatus(r.Context(), callerOf(r), r.PathValue("id"), req.Status)
	if err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("resource status changed", "user", usernameOf(r), "resource", res.Name, "status", res.Status)
	jsonResponse(w, http.StatusOK, res)
}

// Delete handles DELETE /api/resources/{id}.
func (h *ResourcesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Gateway.DeleteResource(r.Context(), callerOf(r), id); err != nil {
		allocError(w, r, err)
		return
	}

	slog.Info("resource deleted", "user", usernameOf(r), "resource", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "resource deleted"})
}
