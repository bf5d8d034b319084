package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qti/internal/delivery"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps delivery errors to status codes. Anything unexpected is
// logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var invalid *delivery.InvalidItemError
	switch {
	case errors.Is(err, delivery.ErrItemNotFound), errors.Is(err, delivery.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, delivery.ErrSessionClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    "invalid item",
			"problems": invalid.Problems,
		})
	default:
		log.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
