package handlers

import (
	"net/http"
	"strconv"

	"github.com/username/financeflow/backend/src/models"
	"github.com/username/financeflow/backend/src/services"
	"github.com/username/financeflow/backend/src/utils"
)

type TransactionHandler struct {
	transactionService *services.TransactionService
}

func NewTransactionHandler(transactionService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	filter := models.TransactionFilter{
		PortfolioID: q.Get("portfolio_id"),
		AssetID:     q.Get("asset_id"),
		Type:        models.TransactionType(q.Get("transaction_type")),
	}
	if v := q.Get("start_date"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			utils.SendJSONError(w, "Invalid start_date", "invalid_date", http.StatusBadRequest)
			return
		}
		filter.StartDate = t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			utils.SendJSONError(w, "Invalid end_date", "invalid_date", http.StatusBadRequest)
			return
		}
		filter.EndDate = t
	}
	if v := q.Get("page"); v != "" {
		filter.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}

	transactions, err := h.transactionService.ListTransactions(userID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	transaction, err := h.transactionService.GetTransaction(r.PathValue("id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req services.CreateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.SendJSONError(w, "Invalid request body", "invalid_body", http.StatusBadRequest)
		return
	}
	if req.AssetID == "" {
		utils.SendJSONError(w, "asset_id is required", "missing_fields", http.StatusBadRequest)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transaction)
}

func (h *TransactionHandler) HandleCreateBulk(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	var reqs []services.CreateTransactionRequest
	if err := decodeJSON(r, &reqs); err != nil {
		utils.SendJSONError(w, "Invalid request body", "invalid_body", http.StatusBadRequest)
		return
	}
	if len(reqs) == 0 {
		utils.SendJSONError(w, "At least one transaction is required", "missing_fields", http.StatusBadRequest)
		return
	}

	results := h.transactionService.CreateBulk(userID, reqs)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *TransactionHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	periodDays := 30
	if v := r.URL.Query().Get("period_days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			periodDays = parsed
		}
	}

	summary, err := h.transactionService.GetSummary(userID, r.URL.Query().Get("portfolio_id"), periodDays)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req services.UpdateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.SendJSONError(w, "Invalid request body", "invalid_body", http.StatusBadRequest)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(r.PathValue("id"), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	if err := h.transactionService.DeleteTransaction(r.PathValue("id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
