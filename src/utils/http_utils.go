package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/username/financeflow/backend/src/config"
	"github.com/username/financeflow/backend/src/logger"
)

// GenerateETag creates a SHA256 hash of the JSON representation of the data.
func GenerateETag(data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data for ETag generation: %w", err)
	}
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:]), nil
}

// SendJSONError writes a structured JSON error. Each response carries a
// stable machine-readable code and a correlation id that is also logged, so
// a client report can be matched to the server log line. In production,
// internal error detail is replaced by a generic message.
func SendJSONError(w http.ResponseWriter, message, code string, statusCode int) {
	correlationID := uuid.NewString()

	if logger.L != nil {
		logger.L.Warn("sending JSON error to client",
			"message", message, "code", code, "statusCode", statusCode, "correlationId", correlationID)
	}

	if statusCode >= http.StatusInternalServerError && config.Cfg != nil && config.Cfg.IsProduction() {
		message = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error":          message,
		"code":           code,
		"correlation_id": correlationID,
	})
}
