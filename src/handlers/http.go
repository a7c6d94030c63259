package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/username/financeflow/backend/src/services"
	"github.com/username/financeflow/backend/src/utils"
)

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// handleServiceError maps service sentinel errors to their HTTP status and
// stable error code. Anything unrecognized is an internal error.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPortfolioNotFound):
		utils.SendJSONError(w, err.Error(), "portfolio_not_found", http.StatusNotFound)
	case errors.Is(err, services.ErrAssetNotFound):
		utils.SendJSONError(w, err.Error(), "asset_not_found", http.StatusNotFound)
	case errors.Is(err, services.ErrTransactionNotFound):
		utils.SendJSONError(w, err.Error(), "transaction_not_found", http.StatusNotFound)
	case errors.Is(err, services.ErrPortfolioNameTaken):
		utils.SendJSONError(w, err.Error(), "portfolio_name_taken", http.StatusConflict)
	case errors.Is(err, services.ErrInsufficientQuantity):
		utils.SendJSONError(w, err.Error(), "insufficient_quantity", http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidTransactionType):
		utils.SendJSONError(w, err.Error(), "invalid_transaction_type", http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidQuantity):
		utils.SendJSONError(w, err.Error(), "invalid_quantity", http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidPrice):
		utils.SendJSONError(w, err.Error(), "invalid_price", http.StatusBadRequest)
	default:
		utils.SendJSONError(w, err.Error(), "internal_error", http.StatusInternalServerError)
	}
}

// parseDateParam accepts a plain date or a full RFC3339 timestamp.
func parseDateParam(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
