package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/financeflow/backend/src/logger"
	"github.com/username/financeflow/backend/src/models"
)

// PortfolioService owns every mutation of portfolios and their assets. Each
// mutating method runs read, compute and write inside a single database
// transaction so derived numbers are never observable mid-update.
type PortfolioService struct {
	db             *sql.DB
	oversellPolicy OversellPolicy
}

func NewPortfolioService(db *sql.DB, policy OversellPolicy) *PortfolioService {
	return &PortfolioService{db: db, oversellPolicy: policy}
}

// GetPortfolios lists the user's portfolios, optionally with their assets and
// performance data.
func (s *PortfolioService) GetPortfolios(userID int64, includeAssets, includePerformance bool) ([]PortfolioSummary, error) {
	portfolios, err := models.GetPortfoliosByUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]PortfolioSummary, 0, len(portfolios))
	for i := range portfolios {
		if includeAssets {
			assets, err := models.GetAssetsByPortfolio(s.db, portfolios[i].ID)
			if err != nil {
				return nil, err
			}
			portfolios[i].Assets = assets
		}
		summary := PortfolioSummary{Portfolio: portfolios[i]}
		if includePerformance {
			summary.Performance = performanceFromAggregates(&portfolios[i])
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetPortfolio fetches one portfolio owned by the user.
func (s *PortfolioService) GetPortfolio(portfolioID string, userID int64, includeAssets bool) (*models.Portfolio, error) {
	p, err := models.GetPortfolioByID(s.db, portfolioID, userID)
	if err != nil {
		return nil, asPortfolioErr(err)
	}
	if includeAssets {
		assets, err := models.GetAssetsByPortfolio(s.db, p.ID)
		if err != nil {
			return nil, err
		}
		p.Assets = assets
	}
	return p, nil
}

// CreatePortfolio creates an empty portfolio. The name must be unique among
// the user's portfolios.
func (s *PortfolioService) CreatePortfolio(userID int64, req CreatePortfolioRequest) (*models.Portfolio, error) {
	taken, err := models.PortfolioNameExists(s.db, userID, req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrPortfolioNameTaken
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	p := &models.Portfolio{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Currency:    currency,
	}
	if err := models.CreatePortfolio(s.db, p); err != nil {
		return nil, err
	}
	logger.L.Info("portfolio created", "portfolio_id", p.ID, "user_id", userID)
	return p, nil
}

// UpdatePortfolio changes the descriptive fields. Renaming to a name the user
// already uses elsewhere is rejected.
func (s *PortfolioService) UpdatePortfolio(portfolioID string, userID int64, req UpdatePortfolioRequest) (*models.Portfolio, error) {
	p, err := models.GetPortfolioByID(s.db, portfolioID, userID)
	if err != nil {
		return nil, asPortfolioErr(err)
	}

	if req.Name != nil && *req.Name != p.Name {
		taken, err := models.PortfolioNameExists(s.db, userID, *req.Name, p.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrPortfolioNameTaken
		}
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Currency != nil {
		p.Currency = *req.Currency
	}

	if err := models.UpdatePortfolio(s.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePortfolio removes the portfolio, its assets and their transactions.
func (s *PortfolioService) DeletePortfolio(portfolioID string, userID int64) error {
	p, err := models.GetPortfolioByID(s.db, portfolioID, userID)
	if err != nil {
		return asPortfolioErr(err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := models.DeletePortfolioCascade(tx, p.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L.Info("portfolio deleted", "portfolio_id", p.ID, "user_id", userID)
	return nil
}

// AddAsset records a purchase. A new symbol creates an asset seeded from the
// purchase; a symbol already held in the portfolio merges into the existing
// position instead of failing. Either way a BUY ledger event is written, the
// position is replayed from its full ledger, and the portfolio totals are
// recomputed, all in one database transaction.
func (s *PortfolioService) AddAsset(portfolioID string, userID int64, req AddAssetRequest) (*models.Asset, error) {
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	if _, err := models.GetPortfolioByID(s.db, portfolioID, userID); err != nil {
		return nil, asPortfolioErr(err)
	}

	symbol := strings.ToUpper(req.Symbol)
	transactionDate := time.Now().UTC()
	if req.TransactionDate != nil {
		transactionDate = *req.TransactionDate
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	asset, err := models.GetAssetBySymbol(tx, portfolioID, symbol)
	switch {
	case err == nil:
		// Merge into the existing position. The latest purchase price
		// becomes the asset's current price.
		asset.CurrentPrice = req.Price
	case errors.Is(err, sql.ErrNoRows):
		name := req.Name
		if name == "" {
			name = symbol
		}
		asset = &models.Asset{
			ID:           uuid.NewString(),
			PortfolioID:  portfolioID,
			Symbol:       symbol,
			Name:         name,
			AssetType:    ClassifySymbol(symbol),
			CurrentPrice: req.Price,
		}
		if err := models.CreateAsset(tx, asset); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	purchase := &models.Transaction{
		ID:              uuid.NewString(),
		PortfolioID:     portfolioID,
		AssetID:         asset.ID,
		Type:            models.TransactionTypeBuy,
		Symbol:          symbol,
		Quantity:        req.Quantity,
		Price:           req.Price,
		TotalAmount:     req.Quantity.Mul(req.Price),
		TransactionDate: transactionDate,
		Notes:           req.Notes,
	}
	if err := models.CreateTransaction(tx, purchase); err != nil {
		return nil, err
	}

	if err := replayAsset(tx, asset, s.oversellPolicy); err != nil {
		return nil, err
	}
	if err := recomputePortfolioTotals(tx, portfolioID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.L.Info("asset purchase recorded",
		"portfolio_id", portfolioID, "symbol", symbol, "quantity", req.Quantity.String())
	return models.GetAssetByID(s.db, asset.ID, portfolioID)
}

// UpdateAsset edits an asset in place. A direct quantity edit does not bypass
// the ledger: the delta is written as a synthesized BUY or SELL at the current
// price and the position is replayed from its full history.
func (s *PortfolioService) UpdateAsset(portfolioID, assetID string, userID int64, req UpdateAssetRequest) (*models.Asset, error) {
	if _, err := models.GetPortfolioByID(s.db, portfolioID, userID); err != nil {
		return nil, asPortfolioErr(err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	asset, err := models.GetAssetByID(tx, assetID, portfolioID)
	if err != nil {
		return nil, asAssetErr(err)
	}

	if req.Name != nil {
		asset.Name = *req.Name
	}
	if req.CurrentPrice != nil {
		asset.CurrentPrice = *req.CurrentPrice
	}

	if req.Quantity != nil && !req.Quantity.Equal(asset.Quantity) {
		if req.Quantity.IsNegative() {
			return nil, ErrInvalidQuantity
		}
		if err := s.recordQuantityChange(tx, asset, *req.Quantity); err != nil {
			return nil, err
		}
	}

	if err := replayAsset(tx, asset, s.oversellPolicy); err != nil {
		return nil, err
	}
	if err := recomputePortfolioTotals(tx, portfolioID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return models.GetAssetByID(s.db, assetID, portfolioID)
}

// recordQuantityChange writes the ledger event implied by a direct quantity
// edit, priced at the asset's current price.
func (s *PortfolioService) recordQuantityChange(tx models.DBTX, asset *models.Asset, newQuantity decimal.Decimal) error {
	diff := newQuantity.Sub(asset.Quantity)
	txType := models.TransactionTypeBuy
	if diff.IsNegative() {
		txType = models.TransactionTypeSell
		diff = diff.Abs()
	}

	event := &models.Transaction{
		ID:              uuid.NewString(),
		PortfolioID:     asset.PortfolioID,
		AssetID:         asset.ID,
		Type:            txType,
		Symbol:          asset.Symbol,
		Quantity:        diff,
		Price:           asset.CurrentPrice,
		TotalAmount:     diff.Mul(asset.CurrentPrice),
		TransactionDate: time.Now().UTC(),
		Notes:           "Auto-generated from asset quantity change",
	}
	return models.CreateTransaction(tx, event)
}

// RemoveAsset deletes the asset and its transactions and recomputes the
// portfolio totals.
func (s *PortfolioService) RemoveAsset(portfolioID, assetID string, userID int64) error {
	if _, err := models.GetPortfolioByID(s.db, portfolioID, userID); err != nil {
		return asPortfolioErr(err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := models.GetAssetByID(tx, assetID, portfolioID); err != nil {
		return asAssetErr(err)
	}
	if err := models.DeleteAssetCascade(tx, assetID); err != nil {
		return err
	}
	if err := recomputePortfolioTotals(tx, portfolioID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetAllocation groups the portfolio value by asset type.
func (s *PortfolioService) GetAllocation(portfolioID string, userID int64) ([]AssetAllocation, error) {
	p, err := s.GetPortfolio(portfolioID, userID, true)
	if err != nil {
		return nil, err
	}

	valueByType := make(map[models.AssetType]decimal.Decimal)
	var order []models.AssetType
	for _, a := range p.Assets {
		if _, seen := valueByType[a.AssetType]; !seen {
			order = append(order, a.AssetType)
		}
		valueByType[a.AssetType] = valueByType[a.AssetType].Add(a.MarketValue)
	}

	hundred := decimal.NewFromInt(100)
	allocations := make([]AssetAllocation, 0, len(order))
	for _, t := range order {
		value := valueByType[t]
		percentage := decimal.Zero
		if p.TotalValue.IsPositive() {
			percentage = value.Div(p.TotalValue).Mul(hundred)
		}
		allocations = append(allocations, AssetAllocation{
			AssetType:  t,
			Value:      value,
			Percentage: percentage,
		})
	}
	return allocations, nil
}

// GetPerformance reports portfolio returns from the stored aggregates.
func (s *PortfolioService) GetPerformance(portfolioID string, userID int64) (*PerformanceData, error) {
	p, err := s.GetPortfolio(portfolioID, userID, false)
	if err != nil {
		return nil, err
	}
	return performanceFromAggregates(p), nil
}

// performanceFromAggregates derives return figures from the stored totals. The
// ratio metrics need a price history feed and stay zero until one exists.
func performanceFromAggregates(p *models.Portfolio) *PerformanceData {
	totalReturn := p.TotalValue.Sub(p.TotalCost)
	totalReturnPercent := decimal.Zero
	if p.TotalCost.IsPositive() {
		totalReturnPercent = totalReturn.Div(p.TotalCost).Mul(decimal.NewFromInt(100))
	}

	return &PerformanceData{
		TotalReturn:        totalReturn,
		TotalReturnPercent: totalReturnPercent,
		AnnualizedReturn:   decimal.Zero,
		Volatility:         decimal.Zero,
		SharpeRatio:        decimal.Zero,
		MaxDrawdown:        decimal.Zero,
	}
}

// RecalculateTotals re-derives the portfolio aggregates from its assets.
// Maintenance endpoint for rows written before derived fields existed.
func (s *PortfolioService) RecalculateTotals(portfolioID string, userID int64) (*models.Portfolio, error) {
	if _, err := models.GetPortfolioByID(s.db, portfolioID, userID); err != nil {
		return nil, asPortfolioErr(err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := recomputePortfolioTotals(tx, portfolioID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return models.GetPortfolioByID(s.db, portfolioID, userID)
}

// RecalculateGains replays every asset in the portfolio from its full ledger
// and recomputes the totals. Repairs any drift the incremental path may have
// accumulated.
func (s *PortfolioService) RecalculateGains(portfolioID string, userID int64) (*models.Portfolio, error) {
	if _, err := models.GetPortfolioByID(s.db, portfolioID, userID); err != nil {
		return nil, asPortfolioErr(err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	assets, err := models.GetAssetsByPortfolio(tx, portfolioID)
	if err != nil {
		return nil, err
	}
	for i := range assets {
		if err := replayAsset(tx, &assets[i], s.oversellPolicy); err != nil {
			return nil, fmt.Errorf("replaying %s: %w", assets[i].Symbol, err)
		}
	}
	if err := recomputePortfolioTotals(tx, portfolioID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.L.Info("portfolio gains recalculated", "portfolio_id", portfolioID, "assets", len(assets))
	return models.GetPortfolioByID(s.db, portfolioID, userID)
}

// FixAssetTypes reclassifies every asset in the portfolio with the current
// symbol rules and returns the number of rows changed.
func (s *PortfolioService) FixAssetTypes(portfolioID string, userID int64) (int, error) {
	if _, err := models.GetPortfolioByID(s.db, portfolioID, userID); err != nil {
		return 0, asPortfolioErr(err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	assets, err := models.GetAssetsByPortfolio(tx, portfolioID)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for i := range assets {
		want := ClassifySymbol(assets[i].Symbol)
		if assets[i].AssetType == want {
			continue
		}
		assets[i].AssetType = want
		if err := models.UpdateAsset(tx, &assets[i]); err != nil {
			return 0, err
		}
		fixed++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return fixed, nil
}

// RefreshPrices updates the current price of every asset in the portfolio
// from the quoter and recomputes the derived numbers. Symbols the quoter
// cannot resolve keep their stored price.
func (s *PortfolioService) RefreshPrices(portfolioID string, userID int64, quoter PriceQuoter) (*models.Portfolio, error) {
	if _, err := models.GetPortfolioByID(s.db, portfolioID, userID); err != nil {
		return nil, asPortfolioErr(err)
	}

	assets, err := models.GetAssetsByPortfolio(s.db, portfolioID)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]decimal.Decimal, len(assets))
	for _, a := range assets {
		price, err := quoter.GetQuote(a.Symbol)
		if err != nil {
			logger.L.Warn("quote unavailable, keeping stored price", "symbol", a.Symbol, "error", err)
			continue
		}
		prices[a.ID] = price
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for i := range assets {
		price, ok := prices[assets[i].ID]
		if !ok {
			continue
		}
		assets[i].CurrentPrice = price
		assets[i].MarketValue = assets[i].Quantity.Mul(price)
		if err := models.UpdateAsset(tx, &assets[i]); err != nil {
			return nil, err
		}
	}
	if err := recomputePortfolioTotals(tx, portfolioID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return models.GetPortfolioByID(s.db, portfolioID, userID)
}

// GetRecentActivities builds the activity feed from the user's transactions
// over the last 30 days.
func (s *PortfolioService) GetRecentActivities(userID int64, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	since := time.Now().UTC().AddDate(0, 0, -30)
	transactions, err := models.GetRecentTransactions(s.db, userID, since, limit)
	if err != nil {
		return nil, err
	}

	portfolioNames := make(map[string]string)
	activities := make([]Activity, 0, len(transactions))
	for _, t := range transactions {
		name, ok := portfolioNames[t.PortfolioID]
		if !ok {
			p, err := models.GetPortfolioByID(s.db, t.PortfolioID, userID)
			if err != nil {
				return nil, err
			}
			name = p.Name
			portfolioNames[t.PortfolioID] = name
		}
		activities = append(activities, Activity{
			ID:            t.ID,
			Type:          string(t.Type),
			Symbol:        t.Symbol,
			Quantity:      t.Quantity,
			Price:         t.Price,
			TotalAmount:   t.TotalAmount,
			PortfolioName: name,
			Timestamp:     t.TransactionDate,
			Description:   activityDescription(&t),
		})
	}
	return activities, nil
}

func activityDescription(t *models.Transaction) string {
	quantity := t.Quantity.String()
	switch t.Type {
	case models.TransactionTypeBuy:
		return fmt.Sprintf("Purchased %s shares of %s", quantity, t.Symbol)
	case models.TransactionTypeSell:
		return fmt.Sprintf("Sold %s shares of %s", quantity, t.Symbol)
	case models.TransactionTypeDividend:
		return fmt.Sprintf("Dividend received from %s", t.Symbol)
	case models.TransactionTypeSplit:
		return fmt.Sprintf("Stock split for %s", t.Symbol)
	default:
		return fmt.Sprintf("Transaction for %s", t.Symbol)
	}
}

func asPortfolioErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPortfolioNotFound
	}
	return err
}

func asAssetErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAssetNotFound
	}
	return err
}
