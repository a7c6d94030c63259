package handlers

import (
	"net/http"
	"strconv"

	"github.com/username/financeflow/backend/src/services"
	"github.com/username/financeflow/backend/src/utils"
)

type PortfolioHandler struct {
	portfolioService *services.PortfolioService
	priceService     services.PriceQuoter
}

func NewPortfolioHandler(portfolioService *services.PortfolioService, priceService services.PriceQuoter) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		priceService:     priceService,
	}
}

func (h *PortfolioHandler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	includeAssets := r.URL.Query().Get("include_assets") == "true"
	includePerformance := r.URL.Query().Get("include_performance") == "true"
	portfolios, err := h.portfolioService.GetPortfolios(userID, includeAssets, includePerformance)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if portfolios == nil {
		portfolios = []services.PortfolioSummary{}
	}
	writeJSON(w, http.StatusOK, portfolios)
}

func (h *PortfolioHandler) HandleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req services.CreatePortfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.SendJSONError(w, "Invalid request body", "invalid_body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		utils.SendJSONError(w, "Portfolio name is required", "missing_fields", http.StatusBadRequest)
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, portfolio)
}

func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	portfolio, err := h.portfolioService.GetPortfolio(r.PathValue("id"), userID, true)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if etag, err := utils.GenerateETag(portfolio); err == nil {
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	writeJSON(w, http.StatusOK, portfolio)
}

func (h *PortfolioHandler) HandleUpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req services.UpdatePortfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.SendJSONError(w, "Invalid request body", "invalid_body", http.StatusBadRequest)
		return
	}

	portfolio, err := h.portfolioService.UpdatePortfolio(r.PathValue("id"), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

func (h *PortfolioHandler) HandleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	if err := h.portfolioService.DeletePortfolio(r.PathValue("id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortfolioHandler) HandleAddAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req services.AddAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.SendJSONError(w, "Invalid request body", "invalid_body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		utils.SendJSONError(w, "Asset symbol is required", "missing_fields", http.StatusBadRequest)
		return
	}

	asset, err := h.portfolioService.AddAsset(r.PathValue("id"), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (h *PortfolioHandler) HandleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req services.UpdateAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.SendJSONError(w, "Invalid request body", "invalid_body", http.StatusBadRequest)
		return
	}

	asset, err := h.portfolioService.UpdateAsset(r.PathValue("id"), r.PathValue("assetId"), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *PortfolioHandler) HandleRemoveAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	if err := h.portfolioService.RemoveAsset(r.PathValue("id"), r.PathValue("assetId"), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortfolioHandler) HandleGetAllocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	allocations, err := h.portfolioService.GetAllocation(r.PathValue("id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, allocations)
}

func (h *PortfolioHandler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	performance, err := h.portfolioService.GetPerformance(r.PathValue("id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, performance)
}

func (h *PortfolioHandler) HandleRecalculateTotals(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	portfolio, err := h.portfolioService.RecalculateTotals(r.PathValue("id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

func (h *PortfolioHandler) HandleRecalculateGains(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	portfolio, err := h.portfolioService.RecalculateGains(r.PathValue("id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

func (h *PortfolioHandler) HandleFixAssetTypes(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	fixed, err := h.portfolioService.FixAssetTypes(r.PathValue("id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Asset types fixed",
		"assets_fixed": fixed,
	})
}

func (h *PortfolioHandler) HandleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	portfolio, err := h.portfolioService.RefreshPrices(r.PathValue("id"), userID, h.priceService)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

func (h *PortfolioHandler) HandleRecentActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", "unauthenticated", http.StatusUnauthorized)
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	activities, err := h.portfolioService.GetRecentActivities(userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if activities == nil {
		activities = []services.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}
