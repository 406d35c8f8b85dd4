package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MICGolf/backend/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the order core's failure taxonomy onto HTTP status codes:
// not-found 404, input 400, conflicts 409, verification 403, everything
// unexpected 503.
func writeError(w http.ResponseWriter, err error) {
	var (
		productNotFound   *orders.ProductNotFoundError
		optionNotFound    *orders.OptionNotFoundError
		priceMismatch     *orders.PriceMismatchError
		insufficientStock *orders.InsufficientStockError
		invalidTransition *orders.InvalidTransitionError
	)

	switch {
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.As(err, &productNotFound),
		errors.As(err, &optionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})

	case errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})

	case errors.Is(err, orders.ErrVerificationFailed):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})

	case errors.As(err, &priceMismatch),
		errors.As(err, &insufficientStock),
		errors.As(err, &invalidTransition),
		errors.Is(err, orders.ErrCannotCancelConfirmed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})

	default:
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "service unavailable"})
	}
}
