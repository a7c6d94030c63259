package models

import (
	"database/sql"
	"fmt"
	"time"
)

const transactionColumns = `id, portfolio_id, asset_id, transaction_type, symbol,
	quantity, price, fees, total_amount, transaction_date, notes, created_at`

func scanTransaction(row rowScanner) (*Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.PortfolioID, &t.AssetID, &t.Type, &t.Symbol,
		&t.Quantity, &t.Price, &t.Fees, &t.TotalAmount, &t.TransactionDate,
		&t.Notes, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTransaction inserts one ledger event.
func CreateTransaction(db DBTX, t *Transaction) error {
	t.CreatedAt = time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO transactions (id, portfolio_id, asset_id, transaction_type, symbol,
			quantity, price, fees, total_amount, transaction_date, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.PortfolioID, t.AssetID, t.Type, t.Symbol,
		t.Quantity, t.Price, t.Fees, t.TotalAmount, t.TransactionDate, t.Notes, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

// GetTransactionForUser fetches a transaction by id, verifying ownership
// through the owning portfolio. Returns sql.ErrNoRows when absent.
func GetTransactionForUser(db DBTX, id string, userID int64) (*Transaction, error) {
	row := db.QueryRow(`
		SELECT `+prefixColumns(transactionColumns, "t.")+`
		FROM transactions t JOIN portfolios p ON p.id = t.portfolio_id
		WHERE t.id = ? AND p.user_id = ?`, id, userID)
	return scanTransaction(row)
}

// GetTransactionsByAsset returns the full ledger of one asset in replay
// order: transaction date ascending, insertion order breaking ties.
func GetTransactionsByAsset(db DBTX, assetID string) ([]Transaction, error) {
	rows, err := db.Query(`
		SELECT `+transactionColumns+`
		FROM transactions WHERE asset_id = ?
		ORDER BY transaction_date, created_at, id`, assetID)
	if err != nil {
		return nil, fmt.Errorf("querying asset ledger: %w", err)
	}
	return collectTransactions(rows)
}

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	PortfolioID string
	AssetID     string
	Type        TransactionType
	StartDate   time.Time
	EndDate     time.Time
	Page        int
	Limit       int
}

// ListTransactions returns the user's transactions, newest first, honoring
// the filter and offset/limit pagination.
func ListTransactions(db DBTX, userID int64, f TransactionFilter) ([]Transaction, error) {
	query := `
		SELECT ` + prefixColumns(transactionColumns, "t.") + `
		FROM transactions t JOIN portfolios p ON p.id = t.portfolio_id
		WHERE p.user_id = ?`
	args := []any{userID}

	if f.PortfolioID != "" {
		query += ` AND t.portfolio_id = ?`
		args = append(args, f.PortfolioID)
	}
	if f.AssetID != "" {
		query += ` AND t.asset_id = ?`
		args = append(args, f.AssetID)
	}
	if f.Type != "" {
		query += ` AND t.transaction_type = ?`
		args = append(args, f.Type)
	}
	if !f.StartDate.IsZero() {
		query += ` AND t.transaction_date >= ?`
		args = append(args, f.StartDate)
	}
	if !f.EndDate.IsZero() {
		query += ` AND t.transaction_date <= ?`
		args = append(args, f.EndDate)
	}

	query += ` ORDER BY t.transaction_date DESC, t.created_at DESC, t.id DESC`

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	return collectTransactions(rows)
}

// GetRecentTransactions returns the user's transactions dated after since,
// newest first, for the activity feed.
func GetRecentTransactions(db DBTX, userID int64, since time.Time, limit int) ([]Transaction, error) {
	rows, err := db.Query(`
		SELECT `+prefixColumns(transactionColumns, "t.")+`
		FROM transactions t JOIN portfolios p ON p.id = t.portfolio_id
		WHERE p.user_id = ? AND t.transaction_date >= ?
		ORDER BY t.transaction_date DESC, t.created_at DESC, t.id DESC
		LIMIT ?`, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent transactions: %w", err)
	}
	return collectTransactions(rows)
}

// UpdateTransaction persists the mutable fields of a ledger event.
func UpdateTransaction(db DBTX, t *Transaction) error {
	_, err := db.Exec(`
		UPDATE transactions SET transaction_type = ?, symbol = ?, quantity = ?,
			price = ?, fees = ?, total_amount = ?, transaction_date = ?, notes = ?
		WHERE id = ?`,
		t.Type, t.Symbol, t.Quantity, t.Price, t.Fees, t.TotalAmount,
		t.TransactionDate, t.Notes, t.ID)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}
	return nil
}

// DeleteTransaction removes one ledger event.
func DeleteTransaction(db DBTX, id string) error {
	if _, err := db.Exec(`DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	return nil
}

func collectTransactions(rows *sql.Rows) ([]Transaction, error) {
	defer rows.Close()
	var transactions []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}
