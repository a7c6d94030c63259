package services

import "errors"

// Sentinel errors surfaced to handlers. Each maps to a stable error code and
// an HTTP status; anything else is treated as an internal error.
var (
	ErrPortfolioNotFound   = errors.New("portfolio not found")
	ErrAssetNotFound       = errors.New("asset not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrPortfolioNameTaken is returned before any write when the user
	// already has a portfolio with the requested name.
	ErrPortfolioNameTaken = errors.New("portfolio with this name already exists")

	// ErrInsufficientQuantity rejects a SELL exceeding the currently held
	// quantity. No partial state is written.
	ErrInsufficientQuantity = errors.New("cannot sell more shares than owned")

	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidQuantity        = errors.New("quantity must be greater than zero")
	ErrInvalidPrice           = errors.New("price must not be negative")
)
