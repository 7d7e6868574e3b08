package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nikolayk812/bookstore/internal/domain"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResp{Error: msg})
}

// writeError maps domain outcomes to status codes; infrastructure details are logged, not returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var partial *domain.PartialCommitError

	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp{Error: "not found"})
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorResp{Error: err.Error()})
	case errors.As(err, &partial):
		slog.Error("partial commit", "method", r.Method, "path", r.URL.Path, "orderNumber", partial.OrderNumber, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "order state unknown", OrderNumber: partial.OrderNumber})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "internal error"})
	}
}
