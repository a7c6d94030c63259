package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/username/financeflow/backend/src/database"
	"github.com/username/financeflow/backend/src/logger"
	"github.com/username/financeflow/backend/src/model"
	"github.com/username/financeflow/backend/src/models"
)

func init() {
	logger.InitLogger("error")
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.CreateSchema(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
	}
	require.NoError(t, user.HashPassword("test-password"))
	require.NoError(t, user.CreateUser(db))
	return user.ID
}

func seedPortfolio(t *testing.T, svc *PortfolioService, userID int64, name string) *models.Portfolio {
	t.Helper()
	p, err := svc.CreatePortfolio(userID, CreatePortfolioRequest{Name: name, Currency: "USD"})
	require.NoError(t, err)
	return p
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func buyTx(symbol, quantity, price string, date time.Time) models.Transaction {
	return models.Transaction{
		Type:            models.TransactionTypeBuy,
		Symbol:          symbol,
		Quantity:        decimal.RequireFromString(quantity),
		Price:           decimal.RequireFromString(price),
		TransactionDate: date,
	}
}

func sellTx(symbol, quantity, price string, date time.Time) models.Transaction {
	return models.Transaction{
		Type:            models.TransactionTypeSell,
		Symbol:          symbol,
		Quantity:        decimal.RequireFromString(quantity),
		Price:           decimal.RequireFromString(price),
		TransactionDate: date,
	}
}

func countTransactions(t *testing.T, db *sql.DB, assetID string) int {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM transactions WHERE asset_id = ?`, assetID).Scan(&count))
	return count
}
