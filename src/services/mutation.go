package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/financeflow/backend/src/models"
)

// applyTransactionToAsset updates the asset's position state from a single
// new transaction without rereading the ledger. This is the fast path used
// when a transaction is created through the validated endpoint; a SELL beyond
// the held quantity is rejected before anything is written.
func applyTransactionToAsset(asset *models.Asset, t *models.Transaction) error {
	switch t.Type {
	case models.TransactionTypeBuy:
		oldCost := asset.Quantity.Mul(asset.AverageCost)
		newCost := t.Quantity.Mul(t.Price)
		asset.Quantity = asset.Quantity.Add(t.Quantity)
		asset.TotalCost = oldCost.Add(newCost)
		if asset.Quantity.IsPositive() {
			asset.AverageCost = asset.TotalCost.Div(asset.Quantity)
		} else {
			asset.AverageCost = decimal.Zero
		}

	case models.TransactionTypeSell:
		if t.Quantity.GreaterThan(asset.Quantity) {
			return fmt.Errorf("sell %s of %s, held %s: %w",
				t.Quantity, asset.Symbol, asset.Quantity, ErrInsufficientQuantity)
		}
		soldCost := t.Quantity.Mul(asset.AverageCost)
		asset.Quantity = asset.Quantity.Sub(t.Quantity)
		asset.TotalCost = asset.TotalCost.Sub(soldCost)

	case models.TransactionTypeDividend, models.TransactionTypeSplit, models.TransactionTypeTransfer:
		// No effect on quantity or cost basis.
	}

	asset.MarketValue = asset.Quantity.Mul(asset.CurrentPrice)
	return nil
}

// replayAsset rebuilds the asset's position state from its full ledger and
// persists it. This is the correctness backstop after structural edits
// (transaction update/delete, direct quantity edits): whatever the
// incremental path left on the row is overwritten by the replayed state.
func replayAsset(db models.DBTX, asset *models.Asset, policy OversellPolicy) error {
	ledger, err := models.GetTransactionsByAsset(db, asset.ID)
	if err != nil {
		return err
	}

	state, err := ReplayLedger(ledger, asset.CurrentPrice, policy)
	if err != nil {
		return err
	}

	asset.Quantity = state.Quantity
	asset.TotalCost = state.TotalCost
	asset.AverageCost = state.AverageCost
	asset.MarketValue = state.MarketValue
	return models.UpdateAsset(db, asset)
}

// recomputePortfolioTotals derives the portfolio aggregates and per-asset
// weights from the current set of assets and persists them. It runs inside
// the same unit of work as the mutation that triggered it and is the single
// place portfolio-level numbers are written; they are never adjusted
// incrementally.
func recomputePortfolioTotals(db models.DBTX, portfolioID string) error {
	assets, err := models.GetAssetsByPortfolio(db, portfolioID)
	if err != nil {
		return err
	}

	totalValue := decimal.Zero
	totalCost := decimal.Zero
	for _, a := range assets {
		totalValue = totalValue.Add(a.MarketValue)
		totalCost = totalCost.Add(a.TotalCost)
	}

	hundred := decimal.NewFromInt(100)
	for i := range assets {
		a := &assets[i]
		if totalValue.IsPositive() {
			a.Weight = a.MarketValue.Div(totalValue).Mul(hundred)
		} else {
			a.Weight = decimal.Zero
		}
		a.UnrealizedGainLoss = a.MarketValue.Sub(a.TotalCost)
		// True daily price history is out of scope; day change tracks the
		// unrealized gain/loss.
		a.DayChange = a.UnrealizedGainLoss
		if a.TotalCost.IsPositive() {
			a.DayChangePercent = a.UnrealizedGainLoss.Div(a.TotalCost).Mul(hundred)
		} else {
			a.DayChangePercent = decimal.Zero
		}
		if err := models.UpdateAsset(db, a); err != nil {
			return err
		}
	}

	p := &models.Portfolio{ID: portfolioID}
	p.TotalValue = totalValue
	p.TotalCost = totalCost
	p.DayChange = totalValue.Sub(totalCost)
	if totalCost.IsPositive() {
		p.DayChangePercent = p.DayChange.Div(totalCost).Mul(hundred)
	} else {
		p.DayChangePercent = decimal.Zero
	}
	return models.UpdatePortfolioTotals(db, p)
}
