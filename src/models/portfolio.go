package models

import (
	"fmt"
	"time"
)

const portfolioColumns = `id, user_id, name, description, currency,
	total_value, total_cost, day_change, day_change_percent, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(row rowScanner) (*Portfolio, error) {
	var p Portfolio
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.Currency,
		&p.TotalValue, &p.TotalCost, &p.DayChange, &p.DayChangePercent,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePortfolio inserts a new portfolio.
func CreatePortfolio(db DBTX, p *Portfolio) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := db.Exec(`
		INSERT INTO portfolios (id, user_id, name, description, currency,
			total_value, total_cost, day_change, day_change_percent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Description, p.Currency,
		p.TotalValue, p.TotalCost, p.DayChange, p.DayChangePercent,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting portfolio: %w", err)
	}
	return nil
}

// GetPortfolioByID fetches a portfolio by id scoped to its owner. Returns
// sql.ErrNoRows when the portfolio does not exist or belongs to another user.
func GetPortfolioByID(db DBTX, id string, userID int64) (*Portfolio, error) {
	row := db.QueryRow(`SELECT `+portfolioColumns+` FROM portfolios WHERE id = ? AND user_id = ?`,
		id, userID)
	return scanPortfolio(row)
}

// GetPortfoliosByUser returns all portfolios owned by the user.
func GetPortfoliosByUser(db DBTX, userID int64) ([]Portfolio, error) {
	rows, err := db.Query(`SELECT `+portfolioColumns+` FROM portfolios WHERE user_id = ? ORDER BY created_at, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning portfolio: %w", err)
		}
		portfolios = append(portfolios, *p)
	}
	return portfolios, rows.Err()
}

// PortfolioNameExists reports whether the user already has a portfolio with
// this name, excluding excludeID (pass "" on create).
func PortfolioNameExists(db DBTX, userID int64, name, excludeID string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(1) FROM portfolios WHERE user_id = ? AND name = ? AND id != ?`,
		userID, name, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking portfolio name: %w", err)
	}
	return count > 0, nil
}

// UpdatePortfolio persists the mutable descriptive fields.
func UpdatePortfolio(db DBTX, p *Portfolio) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := db.Exec(`UPDATE portfolios SET name = ?, description = ?, currency = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, p.Currency, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("updating portfolio: %w", err)
	}
	return nil
}

// UpdatePortfolioTotals persists the derived aggregate fields.
func UpdatePortfolioTotals(db DBTX, p *Portfolio) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := db.Exec(`UPDATE portfolios SET total_value = ?, total_cost = ?, day_change = ?, day_change_percent = ?, updated_at = ? WHERE id = ?`,
		p.TotalValue, p.TotalCost, p.DayChange, p.DayChangePercent, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("updating portfolio totals: %w", err)
	}
	return nil
}

// DeletePortfolioCascade removes the portfolio and everything it owns.
func DeletePortfolioCascade(db DBTX, id string) error {
	if _, err := db.Exec(`DELETE FROM transactions WHERE portfolio_id = ?`, id); err != nil {
		return fmt.Errorf("deleting portfolio transactions: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM assets WHERE portfolio_id = ?`, id); err != nil {
		return fmt.Errorf("deleting portfolio assets: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM portfolios WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting portfolio: %w", err)
	}
	return nil
}
