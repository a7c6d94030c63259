package services

import (
	"strings"

	"github.com/username/financeflow/backend/src/models"
)

var etfSuffixes = []string{"ETF", "SPDR", "IVV", "VOO", "VTI", "QQQ"}

var bondPatterns = []string{"BOND", "TLT", "IEF", "SHY", "AGG"}

var commodityPatterns = []string{"GLD", "SLV", "OIL", "GAS", "GOLD", "SILVER"}

var realEstatePatterns = []string{"REIT", "VNQ", "SCHH", "IYR"}

var cashPatterns = []string{"CASH", "USD", "EUR", "GBP", "JPY"}

var cryptoSymbols = map[string]bool{
	"BTC": true, "ETH": true, "ADA": true, "DOT": true, "SOL": true,
	"AVAX": true, "MATIC": true, "LINK": true, "UNI": true, "ATOM": true,
	"XRP": true, "LTC": true, "BCH": true, "EOS": true, "TRX": true,
	"XLM": true, "ALGO": true, "VET": true, "FIL": true, "THETA": true,
	"AAVE": true, "MKR": true, "COMP": true, "YFI": true, "SNX": true,
	"CRV": true, "BAL": true, "SUSHI": true, "1INCH": true, "ENJ": true,
	"MANA": true, "SAND": true, "AXS": true, "SHIB": true, "DOGE": true,
	"ICP": true, "NEAR": true, "FTT": true, "LUNA": true, "UST": true,
}

// ClassifySymbol maps a ticker to an asset type with deterministic pattern
// rules. Precedence: ETF suffixes, then bond, commodity, real estate and
// cash patterns, then the known crypto set, defaulting to stock. Applied both
// at asset creation and by the bulk fix-asset-types maintenance operation, so
// the two can never disagree.
func ClassifySymbol(symbol string) models.AssetType {
	symbol = strings.ToUpper(symbol)

	for _, suffix := range etfSuffixes {
		if strings.HasSuffix(symbol, suffix) {
			return models.AssetTypeETF
		}
	}
	for _, pattern := range bondPatterns {
		if strings.Contains(symbol, pattern) {
			return models.AssetTypeBond
		}
	}
	for _, pattern := range commodityPatterns {
		if strings.Contains(symbol, pattern) {
			return models.AssetTypeCommodity
		}
	}
	for _, pattern := range realEstatePatterns {
		if strings.Contains(symbol, pattern) {
			return models.AssetTypeRealEstate
		}
	}
	for _, pattern := range cashPatterns {
		if strings.Contains(symbol, pattern) {
			return models.AssetTypeCash
		}
	}
	if cryptoSymbols[symbol] {
		return models.AssetTypeCrypto
	}
	return models.AssetTypeStock
}
