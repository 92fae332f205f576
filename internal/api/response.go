package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/erazemk/izposoja/internal/alloc"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be
// omitted. An empty body, chunked or not, leaves target unchanged.
func decodeOptionalJSON(r *http.Request, target any) error {
	if err := decodeJSON(r, target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// allocError writes the response for an error returned by the gateway.
// Unexpected errors are logged and reported without detail.
func allocError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, status, "internal error")
		return
	}
	jsonError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, alloc.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, alloc.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, alloc.ErrInsufficientStock),
		errors.Is(err, alloc.ErrReservationConflict),
		errors.Is(err, alloc.ErrAlreadyFinalized),
		errors.Is(err, alloc.ErrInvalidTransition),
		errors.Is(err, alloc.ErrItemUnavailable),
		errors.Is(err, alloc.ErrResourceUnavailable):
		return http.StatusConflict
	case errors.Is(err, alloc.ErrInvalidInterval),
		errors.Is(err, alloc.ErrInvalidQuantity),
		errors.Is(err, alloc.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, alloc.ErrTransientStoreConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
