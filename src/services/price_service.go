package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/financeflow/backend/src/logger"
	"golang.org/x/net/publicsuffix"
)

// PriceQuoter resolves the current market price of a ticker symbol.
type PriceQuoter interface {
	GetQuote(symbol string) (decimal.Decimal, error)
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
			Currency           string  `json:"currency"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"quoteResponse"`
}

// yahooPriceService fetches quotes from Yahoo Finance. Quotes are cached so a
// portfolio refresh does not hammer the upstream; the v7 quote endpoint needs
// session cookies and a crumb, obtained lazily on first use.
type yahooPriceService struct {
	httpClient http.Client
	crumb      string
	quotes     *cache.Cache
}

const yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

// NewPriceService creates a Yahoo Finance backed quoter caching quotes for ttl.
func NewPriceService(ttl time.Duration) PriceQuoter {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("failed to create cookie jar", "error", err)
	}

	s := &yahooPriceService{
		httpClient: http.Client{
			Jar:     jar,
			Timeout: 20 * time.Second,
		},
		quotes: cache.New(ttl, 2*ttl),
	}

	if err := s.initSession(); err != nil {
		logger.L.Warn("could not initialize Yahoo Finance session, quotes may fail", "error", err)
	}
	return s
}

// initSession visits a quote page to collect cookies and scrape the crumb the
// quote API requires.
func (s *yahooPriceService) initSession() error {
	req, err := http.NewRequest(http.MethodGet, "https://finance.yahoo.com/quote/VHYL.L", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("initial request to Yahoo failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading Yahoo response: %w", err)
	}

	re := regexp.MustCompile(`"CrumbStore":{"crumb":"(.*?)"}`)
	matches := re.FindStringSubmatch(string(body))
	if len(matches) < 2 {
		return fmt.Errorf("crumb not found in Yahoo Finance response")
	}

	s.crumb = matches[1]
	logger.L.Info("Yahoo Finance session initialized")
	return nil
}

// GetQuote returns the current market price for a symbol, served from cache
// within the TTL.
func (s *yahooPriceService) GetQuote(symbol string) (decimal.Decimal, error) {
	if cached, ok := s.quotes.Get(symbol); ok {
		return cached.(decimal.Decimal), nil
	}

	if s.crumb == "" {
		if err := s.initSession(); err != nil {
			return decimal.Zero, fmt.Errorf("re-initializing Yahoo session: %w", err)
		}
	}

	quoteURL := fmt.Sprintf("https://query2.finance.yahoo.com/v7/finance/quote?symbols=%s&crumb=%s", symbol, s.crumb)
	req, err := http.NewRequest(http.MethodGet, quoteURL, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("calling Yahoo quote API for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("yahoo quote API returned status %d for %s", resp.StatusCode, symbol)
	}

	var quoteData yahooQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteData); err != nil {
		return decimal.Zero, fmt.Errorf("decoding Yahoo quote response for %s: %w", symbol, err)
	}
	if quoteData.QuoteResponse.Error != nil || len(quoteData.QuoteResponse.Result) == 0 {
		return decimal.Zero, fmt.Errorf("no quote result for %s", symbol)
	}

	price := decimal.NewFromFloat(quoteData.QuoteResponse.Result[0].RegularMarketPrice)
	s.quotes.Set(symbol, price, cache.DefaultExpiration)
	return price, nil
}
