package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/financeflow/backend/src/models"
)

func seedAsset(t *testing.T, svc *PortfolioService, portfolioID string, userID int64, symbol, quantity, price string) *models.Asset {
	t.Helper()
	asset, err := svc.AddAsset(portfolioID, userID, AddAssetRequest{
		Symbol:   symbol,
		Quantity: dec(t, quantity),
		Price:    dec(t, price),
	})
	require.NoError(t, err)
	return asset
}

func TestCreateTransactionIncrementalBuy(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioService(db, OversellReject)
	transactions := NewTransactionService(db, OversellReject)
	userID := seedUser(t, db, "alice")
	p := seedPortfolio(t, portfolios, userID, "Main")
	asset := seedAsset(t, portfolios, p.ID, userID, "BTC", "100", "2000")

	created, err := transactions.CreateTransaction(userID, CreateTransactionRequest{
		AssetID:         asset.ID,
		Type:            models.TransactionTypeBuy,
		Quantity:        dec(t, "20"),
		Price:           dec(t, "2040"),
		Fees:            dec(t, "10"),
		TransactionDate: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.Equal(t, "BTC", created.Symbol, "symbol inherited from the asset")
	assert.True(t, created.TotalAmount.Equal(dec(t, "40810")), "quantity*price plus fees on a buy")

	updated, err := models.GetAssetByID(db, asset.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(dec(t, "120")))
	assert.True(t, updated.TotalCost.Equal(dec(t, "240800")), "fees stay out of the cost basis")
	assert.Equal(t, "2006.67", updated.AverageCost.StringFixed(2))
}

func TestCreateTransactionSellAtAverageCost(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioService(db, OversellReject)
	transactions := NewTransactionService(db, OversellReject)
	userID := seedUser(t, db, "alice")
	p := seedPortfolio(t, portfolios, userID, "Main")
	asset := seedAsset(t, portfolios, p.ID, userID, "AAPL", "100", "150")

	created, err := transactions.CreateTransaction(userID, CreateTransactionRequest{
		AssetID:  asset.ID,
		Type:     models.TransactionTypeSell,
		Quantity: dec(t, "60"),
		Price:    dec(t, "500"),
		Fees:     dec(t, "5"),
	})
	require.NoError(t, err)
	assert.True(t, created.TotalAmount.Equal(dec(t, "29995")), "quantity*price minus fees on a sell")

	updated, err := models.GetAssetByID(db, asset.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(dec(t, "40")))
	assert.True(t, updated.TotalCost.Equal(dec(t, "6000")), "removed at average cost, sale price irrelevant")
	assert.True(t, updated.AverageCost.Equal(dec(t, "150")))
}

func TestCreateTransactionOversellRejectedAtomically(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioService(db, OversellReject)
	transactions := NewTransactionService(db, OversellReject)
	userID := seedUser(t, db, "alice")
	p := seedPortfolio(t, portfolios, userID, "Main")
	asset := seedAsset(t, portfolios, p.ID, userID, "AAPL", "5", "100")

	_, err := transactions.CreateTransaction(userID, CreateTransactionRequest{
		AssetID:  asset.ID,
		Type:     models.TransactionTypeSell,
		Quantity: dec(t, "10"),
		Price:    dec(t, "100"),
	})
	assert.ErrorIs(t, err, ErrInsufficientQuantity)

	// Nothing was written: the seed buy is still the only ledger event and
	// the position is untouched.
	assert.Equal(t, 1, countTransactions(t, db, asset.ID))
	unchanged, err := models.GetAssetByID(db, asset.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, unchanged.Quantity.Equal(dec(t, "5")))
	assert.True(t, unchanged.TotalCost.Equal(dec(t, "500")))
}

func TestCreateTransactionValidation(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioService(db, OversellReject)
	transactions := NewTransactionService(db, OversellReject)
	userID := seedUser(t, db, "alice")
	p := seedPortfolio(t, portfolios, userID, "Main")
	asset := seedAsset(t, portfolios, p.ID, userID, "AAPL", "5", "100")

	_, err := transactions.CreateTransaction(userID, CreateTransactionRequest{
		AssetID: asset.ID, Type: "gift", Quantity: dec(t, "1"), Price: dec(t, "1"),
	})
	assert.ErrorIs(t, err, ErrInvalidTransactionType)

	_, err = transactions.CreateTransaction(userID, CreateTransactionRequest{
		AssetID: asset.ID, Type: models.TransactionTypeBuy, Quantity: dec(t, "-1"), Price: dec(t, "1"),
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = transactions.CreateTransaction(userID, CreateTransactionRequest{
		AssetID: "missing", Type: models.TransactionTypeBuy, Quantity: dec(t, "1"), Price: dec(t, "1"),
	})
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestDividendDoesNotChangePosition(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioService(db, OversellReject)
	transactions := NewTransactionService(db, OversellReject)
	userID := seedUser(t, db, "alice")
	p := seedPortfolio(t, portfolios, userID, "Main")
	asset := seedAsset(t, portfolios, p.ID, userID, "AAPL", "10", "150")

	_, err := transactions.CreateTransaction(userID, CreateTransactionRequest{
		AssetID:  asset.ID,
		Type:     models.TransactionTypeDividend,
		Quantity: dec(t, "10"),
		Price:    dec(t, "0.24"),
	})
	require.NoError(t, err)

	updated, err := models.GetAssetByID(db, asset.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(dec(t, "10")))
	assert.True(t, updated.TotalCost.Equal(dec(t, "1500")))
	assert.Equal(t, 2, countTransactions(t, db, asset.ID), "dividend still recorded in the ledger")
}

func TestUpdateTransactionReplaysAsset(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioService(db, OversellReject)
	transactions := NewTransactionService(db, OversellReject)
	userID := seedUser(t, db, "alice")
	p := seedPortfolio(t, portfolios, userID, "Main")
	asset := seedAsset(t, portfolios, p.ID, userID, "AAPL", "10", "150")

	ledger, err := models.GetTransactionsByAsset(db, asset.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)

	newPrice := dec(t, "200")
	_, err = transactions.UpdateTransaction(ledger[0].ID, userID, UpdateTransactionRequest{Price: &newPrice})
	require.NoError(t, err)

	updated, err := models.GetAssetByID(db, asset.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, updated.TotalCost.Equal(dec(t, "2000")), "replay reflects the edited purchase price")
	assert.True(t, updated.AverageCost.Equal(dec(t, "200")))
}

func TestDeleteTransactionReplaysAsset(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioService(db, OversellReject)
	transactions := NewTransactionService(db, OversellReject)
	userID := seedUser(t, db, "alice")
	p := seedPortfolio(t, portfolios, userID, "Main")
	asset := seedAsset(t, portfolios, p.ID, userID, "AAPL", "10", "150")

	second, err := transactions.CreateTransaction(userID, CreateTransactionRequest{
		AssetID:  asset.ID,
		Type:     models.TransactionTypeBuy,
		Quantity: dec(t, "5"),
		Price:    dec(t, "160"),
	})
	require.NoError(t, err)

	require.NoError(t, transactions.DeleteTransaction(second.ID, userID))

	updated, err := models.GetAssetByID(db, asset.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(dec(t, "10")))
	assert.True(t, updated.TotalCost.Equal(dec(t, "1500")))

	err = transactions.DeleteTransaction(second.ID, userID)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestCreateBulkReportsPerItemStatus(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioService(db, OversellReject)
	transactions := NewTransactionService(db, OversellReject)
	userID := seedUser(t, db, "alice")
	p := seedPortfolio(t, portfolios, userID, "Main")
	asset := seedAsset(t, portfolios, p.ID, userID, "AAPL", "10", "150")

	results := transactions.CreateBulk(userID, []CreateTransactionRequest{
		{AssetID: asset.ID, Type: models.TransactionTypeBuy, Quantity: dec(t, "5"), Price: dec(t, "160")},
		{AssetID: asset.ID, Type: models.TransactionTypeSell, Quantity: dec(t, "1000"), Price: dec(t, "160")},
		{AssetID: asset.ID, Type: models.TransactionTypeSell, Quantity: dec(t, "3"), Price: dec(t, "170")},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "created", results[0].Status)
	require.NotNil(t, results[0].Transaction)
	assert.Equal(t, "failed", results[1].Status)
	assert.Contains(t, results[1].Error, "cannot sell more shares than owned")
	assert.Equal(t, "created", results[2].Status, "a failed item does not abort later items")

	updated, err := models.GetAssetByID(db, asset.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(dec(t, "12")))
}

func TestListTransactionsFilters(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioService(db, OversellReject)
	transactions := NewTransactionService(db, OversellReject)
	userID := seedUser(t, db, "alice")
	p := seedPortfolio(t, portfolios, userID, "Main")
	asset := seedAsset(t, portfolios, p.ID, userID, "AAPL", "10", "150")

	_, err := transactions.CreateTransaction(userID, CreateTransactionRequest{
		AssetID: asset.ID, Type: models.TransactionTypeSell, Quantity: dec(t, "2"), Price: dec(t, "170"),
	})
	require.NoError(t, err)

	all, err := transactions.ListTransactions(userID, models.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	sells, err := transactions.ListTransactions(userID, models.TransactionFilter{Type: models.TransactionTypeSell})
	require.NoError(t, err)
	require.Len(t, sells, 1)
	assert.Equal(t, models.TransactionTypeSell, sells[0].Type)

	none, err := transactions.ListTransactions(userID, models.TransactionFilter{PortfolioID: "other"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetSummaryAggregatesTradeFlow(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioService(db, OversellReject)
	transactions := NewTransactionService(db, OversellReject)
	userID := seedUser(t, db, "alice")
	p := seedPortfolio(t, portfolios, userID, "Main")
	asset := seedAsset(t, portfolios, p.ID, userID, "AAPL", "10", "100")

	_, err := transactions.CreateTransaction(userID, CreateTransactionRequest{
		AssetID: asset.ID, Type: models.TransactionTypeSell,
		Quantity: dec(t, "4"), Price: dec(t, "150"), Fees: dec(t, "2"),
	})
	require.NoError(t, err)

	summary, err := transactions.GetSummary(userID, p.ID, 30)
	require.NoError(t, err)

	assert.Equal(t, 30, summary.PeriodDays)
	assert.Equal(t, 2, summary.TotalTransactions)
	assert.Equal(t, 1, summary.BuyTransactions)
	assert.Equal(t, 1, summary.SellTransactions)
	assert.True(t, summary.TotalBuys.Equal(dec(t, "1000")), "seed purchase")
	assert.True(t, summary.TotalSells.Equal(dec(t, "598")), "4*150 minus fees")
	assert.True(t, summary.NetFlow.Equal(dec(t, "402")))
	assert.True(t, summary.TotalFees.Equal(dec(t, "2")))
}
