package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/financeflow/backend/src/models"
)

func TestClassifySymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   models.AssetType
	}{
		{"VOO", models.AssetTypeETF},
		{"VTI", models.AssetTypeETF},
		{"ARKETF", models.AssetTypeETF},
		{"TLT", models.AssetTypeBond},
		{"AGG", models.AssetTypeBond},
		{"GLD", models.AssetTypeCommodity},
		{"SILVER", models.AssetTypeCommodity},
		{"VNQ", models.AssetTypeRealEstate},
		{"USD", models.AssetTypeCash},
		{"BTC", models.AssetTypeCrypto},
		{"DOGE", models.AssetTypeCrypto},
		{"AAPL", models.AssetTypeStock},
		{"MSFT", models.AssetTypeStock},
		{"voo", models.AssetTypeETF},
		{"btc", models.AssetTypeCrypto},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySymbol(tt.symbol), "symbol %s", tt.symbol)
	}
}

func TestClassifySymbolPrecedence(t *testing.T) {
	// GOLDETF ends with an ETF suffix, which wins over the commodity pattern.
	assert.Equal(t, models.AssetTypeETF, ClassifySymbol("GOLDETF"))
	// GOLDX matches the commodity pattern before any later rule.
	assert.Equal(t, models.AssetTypeCommodity, ClassifySymbol("GOLDX"))
}
