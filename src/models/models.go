package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so store queries can run
// inside or outside an explicit transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type AssetType string

const (
	AssetTypeStock      AssetType = "stock"
	AssetTypeETF        AssetType = "etf"
	AssetTypeBond       AssetType = "bond"
	AssetTypeCrypto     AssetType = "crypto"
	AssetTypeCommodity  AssetType = "commodity"
	AssetTypeRealEstate AssetType = "real_estate"
	AssetTypeCash       AssetType = "cash"
)

type TransactionType string

const (
	TransactionTypeBuy      TransactionType = "buy"
	TransactionTypeSell     TransactionType = "sell"
	TransactionTypeDividend TransactionType = "dividend"
	TransactionTypeSplit    TransactionType = "split"
	TransactionTypeTransfer TransactionType = "transfer"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeBuy, TransactionTypeSell, TransactionTypeDividend,
		TransactionTypeSplit, TransactionTypeTransfer:
		return true
	}
	return false
}

// Portfolio is a container of positions owned by exactly one user.
// TotalValue, TotalCost, DayChange and DayChangePercent are derived from the
// portfolio's assets and recomputed after every mutation; they are never
// written independently of their source ledger.
type Portfolio struct {
	ID               string          `json:"id"`
	UserID           int64           `json:"user_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Currency         string          `json:"currency"`
	TotalValue       decimal.Decimal `json:"total_value"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	DayChange        decimal.Decimal `json:"day_change"`
	DayChangePercent decimal.Decimal `json:"day_change_percent"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Populated on demand, not stored.
	Assets []Asset `json:"assets,omitempty"`
}

// Asset is a position in one symbol within one portfolio. The symbol is
// unique per portfolio. Quantity never goes negative.
type Asset struct {
	ID                 string          `json:"id"`
	PortfolioID        string          `json:"portfolio_id"`
	Symbol             string          `json:"symbol"`
	Name               string          `json:"name"`
	AssetType          AssetType       `json:"asset_type"`
	Quantity           decimal.Decimal `json:"quantity"`
	AverageCost        decimal.Decimal `json:"average_cost"`
	CurrentPrice       decimal.Decimal `json:"current_price"`
	MarketValue        decimal.Decimal `json:"market_value"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	UnrealizedGainLoss decimal.Decimal `json:"unrealized_gain_loss"`
	DayChange          decimal.Decimal `json:"day_change"`
	DayChangePercent   decimal.Decimal `json:"day_change_percent"`
	Weight             decimal.Decimal `json:"weight"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Transaction is one immutable ledger event. portfolio_id always matches the
// owning asset's portfolio; the store enforces this at creation time.
type Transaction struct {
	ID              string          `json:"id"`
	PortfolioID     string          `json:"portfolio_id"`
	AssetID         string          `json:"asset_id"`
	Type            TransactionType `json:"transaction_type"`
	Symbol          string          `json:"symbol"`
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Fees            decimal.Decimal `json:"fees"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TransactionDate time.Time       `json:"transaction_date"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
