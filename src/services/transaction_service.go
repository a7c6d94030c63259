package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/financeflow/backend/src/logger"
	"github.com/username/financeflow/backend/src/models"
)

// TransactionService owns the transaction ledger. Creation uses the
// incremental position update; editing or deleting history triggers a full
// replay of the affected asset.
type TransactionService struct {
	db             *sql.DB
	oversellPolicy OversellPolicy
}

func NewTransactionService(db *sql.DB, policy OversellPolicy) *TransactionService {
	return &TransactionService{db: db, oversellPolicy: policy}
}

// ListTransactions returns the user's transactions, newest first.
func (s *TransactionService) ListTransactions(userID int64, f models.TransactionFilter) ([]models.Transaction, error) {
	return models.ListTransactions(s.db, userID, f)
}

// GetTransaction fetches one transaction owned by the user.
func (s *TransactionService) GetTransaction(transactionID string, userID int64) (*models.Transaction, error) {
	t, err := models.GetTransactionForUser(s.db, transactionID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	return t, err
}

// CreateTransaction appends a ledger event to an asset the user owns and
// applies it to the position incrementally. A SELL beyond the held quantity
// is rejected and nothing is written.
func (s *TransactionService) CreateTransaction(userID int64, req CreateTransactionRequest) (*models.Transaction, error) {
	t, err := s.buildTransaction(userID, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.applyCreate(tx, userID, t); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.L.Info("transaction created",
		"transaction_id", t.ID, "type", t.Type, "symbol", t.Symbol)
	return t, nil
}

// CreateBulk creates many transactions in one call. Items succeed or fail
// independently; the response reports a status per item instead of aborting
// the batch on the first bad entry.
func (s *TransactionService) CreateBulk(userID int64, reqs []CreateTransactionRequest) []BulkItemResult {
	results := make([]BulkItemResult, len(reqs))
	for i, req := range reqs {
		results[i].Index = i
		t, err := s.createOne(userID, req)
		if err != nil {
			results[i].Status = "failed"
			results[i].Error = err.Error()
			continue
		}
		results[i].Status = "created"
		results[i].Transaction = t
	}
	return results
}

func (s *TransactionService) createOne(userID int64, req CreateTransactionRequest) (*models.Transaction, error) {
	t, err := s.buildTransaction(userID, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.applyCreate(tx, userID, t); err != nil {
		return nil, err
	}
	return t, tx.Commit()
}

// buildTransaction validates the request and derives the stored fields.
func (s *TransactionService) buildTransaction(userID int64, req CreateTransactionRequest) (*models.Transaction, error) {
	if !req.Type.Valid() {
		return nil, ErrInvalidTransactionType
	}
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	asset, err := models.GetAssetForUser(s.db, req.AssetID, userID)
	if err != nil {
		return nil, asAssetErr(err)
	}

	symbol := strings.ToUpper(req.Symbol)
	if symbol == "" {
		symbol = asset.Symbol
	}
	transactionDate := req.TransactionDate
	if transactionDate.IsZero() {
		transactionDate = time.Now().UTC()
	}

	totalAmount := req.Quantity.Mul(req.Price)
	switch req.Type {
	case models.TransactionTypeBuy:
		totalAmount = totalAmount.Add(req.Fees)
	case models.TransactionTypeSell:
		totalAmount = totalAmount.Sub(req.Fees)
	}

	return &models.Transaction{
		ID:              uuid.NewString(),
		PortfolioID:     asset.PortfolioID,
		AssetID:         asset.ID,
		Type:            req.Type,
		Symbol:          symbol,
		Quantity:        req.Quantity,
		Price:           req.Price,
		Fees:            req.Fees,
		TotalAmount:     totalAmount,
		TransactionDate: transactionDate,
		Notes:           req.Notes,
	}, nil
}

// applyCreate writes the event, updates the asset position incrementally and
// recomputes the portfolio totals, all on the supplied transaction.
func (s *TransactionService) applyCreate(tx models.DBTX, userID int64, t *models.Transaction) error {
	asset, err := models.GetAssetByID(tx, t.AssetID, t.PortfolioID)
	if err != nil {
		return asAssetErr(err)
	}

	if err := applyTransactionToAsset(asset, t); err != nil {
		return err
	}
	if err := models.CreateTransaction(tx, t); err != nil {
		return err
	}
	if err := models.UpdateAsset(tx, asset); err != nil {
		return err
	}
	return recomputePortfolioTotals(tx, t.PortfolioID)
}

// UpdateTransaction edits a historical ledger event and replays the affected
// asset so the stored position matches the rewritten history.
func (s *TransactionService) UpdateTransaction(transactionID string, userID int64, req UpdateTransactionRequest) (*models.Transaction, error) {
	t, err := s.GetTransaction(transactionID, userID)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, ErrInvalidTransactionType
		}
		t.Type = *req.Type
	}
	if req.Quantity != nil {
		if !req.Quantity.IsPositive() {
			return nil, ErrInvalidQuantity
		}
		t.Quantity = *req.Quantity
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		t.Price = *req.Price
	}
	if req.Fees != nil {
		t.Fees = *req.Fees
	}
	if req.TransactionDate != nil {
		t.TransactionDate = *req.TransactionDate
	}
	if req.Notes != nil {
		t.Notes = *req.Notes
	}

	t.TotalAmount = t.Quantity.Mul(t.Price)
	switch t.Type {
	case models.TransactionTypeBuy:
		t.TotalAmount = t.TotalAmount.Add(t.Fees)
	case models.TransactionTypeSell:
		t.TotalAmount = t.TotalAmount.Sub(t.Fees)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := models.UpdateTransaction(tx, t); err != nil {
		return nil, err
	}
	if err := s.replayAffected(tx, t); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTransaction removes a ledger event and replays the affected asset.
func (s *TransactionService) DeleteTransaction(transactionID string, userID int64) error {
	t, err := s.GetTransaction(transactionID, userID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := models.DeleteTransaction(tx, t.ID); err != nil {
		return err
	}
	if err := s.replayAffected(tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TransactionService) replayAffected(tx models.DBTX, t *models.Transaction) error {
	asset, err := models.GetAssetByID(tx, t.AssetID, t.PortfolioID)
	if err != nil {
		return asAssetErr(err)
	}
	if err := replayAsset(tx, asset, s.oversellPolicy); err != nil {
		return err
	}
	return recomputePortfolioTotals(tx, t.PortfolioID)
}

// GetSummary aggregates the user's trade flow over a trailing window of days,
// optionally narrowed to one portfolio.
func (s *TransactionService) GetSummary(userID int64, portfolioID string, periodDays int) (*TransactionSummary, error) {
	if periodDays <= 0 {
		periodDays = 30
	}

	transactions, err := models.ListTransactions(s.db, userID, models.TransactionFilter{
		PortfolioID: portfolioID,
		StartDate:   time.Now().UTC().AddDate(0, 0, -periodDays),
		Limit:       10000,
	})
	if err != nil {
		return nil, err
	}

	summary := &TransactionSummary{
		PeriodDays:        periodDays,
		TotalTransactions: len(transactions),
		TotalBuys:         decimal.Zero,
		TotalSells:        decimal.Zero,
		NetFlow:           decimal.Zero,
		TotalFees:         decimal.Zero,
	}
	for _, t := range transactions {
		summary.TotalFees = summary.TotalFees.Add(t.Fees)
		switch t.Type {
		case models.TransactionTypeBuy:
			summary.TotalBuys = summary.TotalBuys.Add(t.TotalAmount)
			summary.BuyTransactions++
		case models.TransactionTypeSell:
			summary.TotalSells = summary.TotalSells.Add(t.TotalAmount)
			summary.SellTransactions++
		}
	}
	summary.NetFlow = summary.TotalBuys.Sub(summary.TotalSells)
	return summary, nil
}
