package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/financeflow/backend/src/database"
)

func newStoreDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.CreateSchema(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func seedPosition(t *testing.T, db *sql.DB) (*Portfolio, *Asset) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (username, password, email) VALUES ('alice', 'x', 'alice@example.com')`)
	require.NoError(t, err)

	p := &Portfolio{ID: uuid.NewString(), UserID: 1, Name: "Main", Currency: "USD"}
	require.NoError(t, CreatePortfolio(db, p))

	a := &Asset{
		ID:          uuid.NewString(),
		PortfolioID: p.ID,
		Symbol:      "AAPL",
		Name:        "AAPL",
		AssetType:   AssetTypeStock,
	}
	require.NoError(t, CreateAsset(db, a))
	return p, a
}

func insertEvent(t *testing.T, db *sql.DB, p *Portfolio, a *Asset, txType TransactionType, quantity string, date time.Time) *Transaction {
	t.Helper()
	event := &Transaction{
		ID:              uuid.NewString(),
		PortfolioID:     p.ID,
		AssetID:         a.ID,
		Type:            txType,
		Symbol:          a.Symbol,
		Quantity:        decimal.RequireFromString(quantity),
		Price:           decimal.RequireFromString("100"),
		TotalAmount:     decimal.RequireFromString(quantity).Mul(decimal.RequireFromString("100")),
		TransactionDate: date,
	}
	require.NoError(t, CreateTransaction(db, event))
	return event
}

func TestGetTransactionsByAssetReturnsReplayOrder(t *testing.T) {
	db := newStoreDB(t)
	p, a := seedPosition(t, db)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	// Inserted newest first; the ledger must still come back date ascending.
	insertEvent(t, db, p, a, TransactionTypeSell, "3", base.AddDate(0, 0, 2))
	insertEvent(t, db, p, a, TransactionTypeBuy, "10", base)
	insertEvent(t, db, p, a, TransactionTypeBuy, "5", base.AddDate(0, 0, 1))

	ledger, err := GetTransactionsByAsset(db, a.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 3)

	assert.Equal(t, TransactionTypeBuy, ledger[0].Type)
	assert.True(t, ledger[0].Quantity.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, TransactionTypeBuy, ledger[1].Type)
	assert.Equal(t, TransactionTypeSell, ledger[2].Type)
}

func TestListTransactionsFiltersAndPaginates(t *testing.T) {
	db := newStoreDB(t)
	p, a := seedPosition(t, db)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertEvent(t, db, p, a, TransactionTypeBuy, "1", base.AddDate(0, 0, i))
	}
	insertEvent(t, db, p, a, TransactionTypeSell, "2", base.AddDate(0, 0, 10))

	all, err := ListTransactions(db, 1, TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, TransactionTypeSell, all[0].Type, "newest first")

	sells, err := ListTransactions(db, 1, TransactionFilter{Type: TransactionTypeSell})
	require.NoError(t, err)
	assert.Len(t, sells, 1)

	windowed, err := ListTransactions(db, 1, TransactionFilter{
		StartDate: base.AddDate(0, 0, 1),
		EndDate:   base.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	assert.Len(t, windowed, 3)

	page1, err := ListTransactions(db, 1, TransactionFilter{Limit: 4, Page: 1})
	require.NoError(t, err)
	assert.Len(t, page1, 4)
	page2, err := ListTransactions(db, 1, TransactionFilter{Limit: 4, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	other, err := ListTransactions(db, 999, TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, other, "scoped to the owning user")
}

func TestGetTransactionForUserEnforcesOwnership(t *testing.T) {
	db := newStoreDB(t)
	p, a := seedPosition(t, db)
	event := insertEvent(t, db, p, a, TransactionTypeBuy, "1", time.Now().UTC())

	got, err := GetTransactionForUser(db, event.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	_, err = GetTransactionForUser(db, event.ID, 2)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteAssetCascadeRemovesLedger(t *testing.T) {
	db := newStoreDB(t)
	p, a := seedPosition(t, db)
	insertEvent(t, db, p, a, TransactionTypeBuy, "1", time.Now().UTC())

	require.NoError(t, DeleteAssetCascade(db, a.ID))

	ledger, err := GetTransactionsByAsset(db, a.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
	_, err = GetAssetByID(db, a.ID, p.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPortfolioNameExistsExcludesSelf(t *testing.T) {
	db := newStoreDB(t)
	p, _ := seedPosition(t, db)

	taken, err := PortfolioNameExists(db, 1, "Main", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = PortfolioNameExists(db, 1, "Main", p.ID)
	require.NoError(t, err)
	assert.False(t, taken, "renaming to its own name is allowed")
}
