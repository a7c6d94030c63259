package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/financeflow/backend/src/models"
)

// Request and response shapes exchanged between handlers and services.
// Pointer fields on update requests distinguish "not provided" from zero.

type CreatePortfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

type UpdatePortfolioRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Currency    *string `json:"currency"`
}

// AddAssetRequest records a purchase. TransactionDate is optional and
// defaults to now.
type AddAssetRequest struct {
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"purchase_price"`
	TransactionDate *time.Time      `json:"transaction_date"`
	Notes           string          `json:"notes"`
}

// UpdateAssetRequest edits an asset in place. A quantity change is not a
// silent overwrite: it synthesizes a ledger event for the delta so the
// transaction history stays authoritative.
type UpdateAssetRequest struct {
	Name         *string          `json:"name"`
	Quantity     *decimal.Decimal `json:"quantity"`
	CurrentPrice *decimal.Decimal `json:"current_price"`
}

type CreateTransactionRequest struct {
	AssetID         string                 `json:"asset_id"`
	Type            models.TransactionType `json:"transaction_type"`
	Symbol          string                 `json:"symbol"`
	Quantity        decimal.Decimal        `json:"quantity"`
	Price           decimal.Decimal        `json:"price"`
	Fees            decimal.Decimal        `json:"fees"`
	TransactionDate time.Time              `json:"transaction_date"`
	Notes           string                 `json:"notes"`
}

type UpdateTransactionRequest struct {
	Type            *models.TransactionType `json:"transaction_type"`
	Quantity        *decimal.Decimal        `json:"quantity"`
	Price           *decimal.Decimal        `json:"price"`
	Fees            *decimal.Decimal        `json:"fees"`
	TransactionDate *time.Time              `json:"transaction_date"`
	Notes           *string                 `json:"notes"`
}

// BulkItemResult reports the outcome of one item of a bulk create. A failed
// item never aborts the batch; each entry carries its own status.
type BulkItemResult struct {
	Index       int                 `json:"index"`
	Status      string              `json:"status"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// PortfolioSummary is a portfolio list entry, optionally enriched with
// performance data.
type PortfolioSummary struct {
	models.Portfolio
	Performance *PerformanceData `json:"performance,omitempty"`
}

// AssetAllocation is one slice of the portfolio value grouped by asset type.
type AssetAllocation struct {
	AssetType  models.AssetType `json:"asset_type"`
	Value      decimal.Decimal  `json:"value"`
	Percentage decimal.Decimal  `json:"percentage"`
}

// PerformanceData reports portfolio returns. The ratio metrics need a price
// history feed and are reported as zero until one exists.
type PerformanceData struct {
	TotalReturn        decimal.Decimal `json:"total_return"`
	TotalReturnPercent decimal.Decimal `json:"total_return_percent"`
	AnnualizedReturn   decimal.Decimal `json:"annualized_return"`
	Volatility         decimal.Decimal `json:"volatility"`
	SharpeRatio        decimal.Decimal `json:"sharpe_ratio"`
	MaxDrawdown        decimal.Decimal `json:"max_drawdown"`
}

// TransactionSummary aggregates a user's trade flow over a trailing window.
type TransactionSummary struct {
	PeriodDays        int             `json:"period_days"`
	TotalTransactions int             `json:"total_transactions"`
	TotalBuys         decimal.Decimal `json:"total_buys"`
	TotalSells        decimal.Decimal `json:"total_sells"`
	NetFlow           decimal.Decimal `json:"net_flow"`
	TotalFees         decimal.Decimal `json:"total_fees"`
	BuyTransactions   int             `json:"buy_transactions"`
	SellTransactions  int             `json:"sell_transactions"`
}

// Activity is a feed entry derived from a recent transaction.
type Activity struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PortfolioName string          `json:"portfolio_name"`
	Timestamp     time.Time       `json:"timestamp"`
	Description   string          `json:"description"`
}
