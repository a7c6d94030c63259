package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/financeflow/backend/src/models"
)

// OversellPolicy controls how a SELL exceeding the running quantity is
// treated during a full ledger replay. Incremental application of a new SELL
// always rejects; the policy only matters when folding historical ledgers
// that may have been edited out of order.
type OversellPolicy string

const (
	// OversellReject fails the replay. Safe default: the surrounding unit
	// of work rolls back and the caller sees ErrInsufficientQuantity.
	OversellReject OversellPolicy = "reject"
	// OversellSkip drops the offending SELL and keeps folding. Matches the
	// historical behavior; kept for migrating ledgers that relied on it.
	OversellSkip OversellPolicy = "skip"
	// OversellClamp sells whatever is held and continues.
	OversellClamp OversellPolicy = "clamp"
)

// PositionState is the derivable cost-basis state of one asset.
type PositionState struct {
	Quantity    decimal.Decimal
	TotalCost   decimal.Decimal
	AverageCost decimal.Decimal
	MarketValue decimal.Decimal
}

// ReplayLedger folds an asset's full transaction history from empty state
// into its weighted-average position state. It is the authoritative
// reconciliation path: replaying the same ledger any number of times yields
// the same state, regardless of drift the incremental path may have left on
// the stored asset.
//
// Transactions are folded in transaction-date order; ties keep insertion
// order. BUY adds quantity and quantity*price to cost (fees stay out of the
// cost basis). SELL removes quantity at the running average cost, so the sale
// price never changes the remaining basis. DIVIDEND, SPLIT and TRANSFER do
// not affect quantity or cost.
func ReplayLedger(transactions []models.Transaction, currentPrice decimal.Decimal, policy OversellPolicy) (PositionState, error) {
	ordered := make([]models.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TransactionDate.Before(ordered[j].TransactionDate)
	})

	quantity := decimal.Zero
	totalCost := decimal.Zero

	for _, tx := range ordered {
		switch tx.Type {
		case models.TransactionTypeBuy:
			quantity = quantity.Add(tx.Quantity)
			totalCost = totalCost.Add(tx.Quantity.Mul(tx.Price))

		case models.TransactionTypeSell:
			sellQty := tx.Quantity
			if sellQty.GreaterThan(quantity) {
				switch policy {
				case OversellSkip:
					continue
				case OversellClamp:
					sellQty = quantity
				default:
					return PositionState{}, fmt.Errorf("replaying transaction %s (sell %s of %s, held %s): %w",
						tx.ID, tx.Quantity, tx.Symbol, quantity, ErrInsufficientQuantity)
				}
			}
			avgCost := decimal.Zero
			if quantity.IsPositive() {
				avgCost = totalCost.Div(quantity)
			}
			quantity = quantity.Sub(sellQty)
			totalCost = totalCost.Sub(sellQty.Mul(avgCost))

		case models.TransactionTypeDividend, models.TransactionTypeSplit, models.TransactionTypeTransfer:
			// No effect on quantity or cost basis.
		}
	}

	state := PositionState{
		Quantity:    quantity,
		TotalCost:   totalCost,
		MarketValue: quantity.Mul(currentPrice),
	}
	if quantity.IsPositive() {
		state.AverageCost = totalCost.Div(quantity)
	} else {
		state.AverageCost = decimal.Zero
	}
	return state, nil
}

// ParseOversellPolicy maps a config string to a policy, defaulting to reject.
func ParseOversellPolicy(s string) OversellPolicy {
	switch OversellPolicy(s) {
	case OversellSkip, OversellClamp, OversellReject:
		return OversellPolicy(s)
	}
	return OversellReject
}
