package models

import (
	"fmt"
	"strings"
	"time"
)

const assetColumns = `id, portfolio_id, symbol, name, asset_type, quantity,
	average_cost, current_price, market_value, total_cost, unrealized_gain_loss,
	day_change, day_change_percent, weight, created_at, updated_at`

func scanAsset(row rowScanner) (*Asset, error) {
	var a Asset
	err := row.Scan(
		&a.ID, &a.PortfolioID, &a.Symbol, &a.Name, &a.AssetType, &a.Quantity,
		&a.AverageCost, &a.CurrentPrice, &a.MarketValue, &a.TotalCost, &a.UnrealizedGainLoss,
		&a.DayChange, &a.DayChangePercent, &a.Weight, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAsset inserts a new asset row.
func CreateAsset(db DBTX, a *Asset) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := db.Exec(`
		INSERT INTO assets (id, portfolio_id, symbol, name, asset_type, quantity,
			average_cost, current_price, market_value, total_cost, unrealized_gain_loss,
			day_change, day_change_percent, weight, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PortfolioID, a.Symbol, a.Name, a.AssetType, a.Quantity,
		a.AverageCost, a.CurrentPrice, a.MarketValue, a.TotalCost, a.UnrealizedGainLoss,
		a.DayChange, a.DayChangePercent, a.Weight, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting asset: %w", err)
	}
	return nil
}

// GetAssetByID fetches one asset within a portfolio. Returns sql.ErrNoRows
// when absent.
func GetAssetByID(db DBTX, id, portfolioID string) (*Asset, error) {
	row := db.QueryRow(`SELECT `+assetColumns+` FROM assets WHERE id = ? AND portfolio_id = ?`,
		id, portfolioID)
	return scanAsset(row)
}

// GetAssetForUser fetches an asset by id, verifying through the owning
// portfolio that it belongs to the user.
func GetAssetForUser(db DBTX, id string, userID int64) (*Asset, error) {
	row := db.QueryRow(`
		SELECT `+prefixColumns(assetColumns, "a.")+`
		FROM assets a JOIN portfolios p ON p.id = a.portfolio_id
		WHERE a.id = ? AND p.user_id = ?`, id, userID)
	return scanAsset(row)
}

// GetAssetBySymbol finds the asset holding this symbol in a portfolio, if any.
func GetAssetBySymbol(db DBTX, portfolioID, symbol string) (*Asset, error) {
	row := db.QueryRow(`SELECT `+assetColumns+` FROM assets WHERE portfolio_id = ? AND symbol = ?`,
		portfolioID, symbol)
	return scanAsset(row)
}

// GetAssetsByPortfolio returns every asset of a portfolio in stable order.
func GetAssetsByPortfolio(db DBTX, portfolioID string) ([]Asset, error) {
	rows, err := db.Query(`SELECT `+assetColumns+` FROM assets WHERE portfolio_id = ? ORDER BY created_at, id`,
		portfolioID)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// UpdateAsset persists every mutable field of the asset. Used by the mutation
// engine after the position state has been recomputed.
func UpdateAsset(db DBTX, a *Asset) error {
	a.UpdatedAt = time.Now().UTC()
	_, err := db.Exec(`
		UPDATE assets SET symbol = ?, name = ?, asset_type = ?, quantity = ?,
			average_cost = ?, current_price = ?, market_value = ?, total_cost = ?,
			unrealized_gain_loss = ?, day_change = ?, day_change_percent = ?,
			weight = ?, updated_at = ?
		WHERE id = ?`,
		a.Symbol, a.Name, a.AssetType, a.Quantity,
		a.AverageCost, a.CurrentPrice, a.MarketValue, a.TotalCost,
		a.UnrealizedGainLoss, a.DayChange, a.DayChangePercent,
		a.Weight, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	return nil
}

// DeleteAssetCascade removes the asset and its transactions.
func DeleteAssetCascade(db DBTX, id string) error {
	if _, err := db.Exec(`DELETE FROM transactions WHERE asset_id = ?`, id); err != nil {
		return fmt.Errorf("deleting asset transactions: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM assets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	return nil
}

// prefixColumns qualifies a comma separated column list with a table alias.
func prefixColumns(columns, prefix string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

