package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stocktracker/pkg/storage/columnar"
)

var (
	// ErrValidation rejects a transaction before it touches the ledger.
	ErrValidation = errors.New("invalid transaction")
	// ErrNotFound reports a user that has never recorded a transaction, or
	// an unknown activity id.
	ErrNotFound = errors.New("not found")
	// ErrPersistence reports a failed file write. The in-memory state has
	// been rolled back and the caller must resubmit.
	ErrPersistence = errors.New("failed to persist transaction")
)

// Transaction is a single immutable ledger entry. Positive amounts are buys,
// negative amounts are sells.
type Transaction struct {
	ActivityID uint64          `json:"activity_id"`
	User       string          `json:"user"`
	Symbol     string          `json:"symbol"`
	Amount     decimal.Decimal `json:"amount"`
	Price      decimal.Decimal `json:"price"`
	Timestamp  time.Time       `json:"timestamp"`
}

func validate(user, symbol string, amount, price decimal.Decimal) error {
	if user == "" {
		return fmt.Errorf("%w: user must not be empty", ErrValidation)
	}
	if symbol == "" {
		return fmt.Errorf("%w: symbol must not be empty", ErrValidation)
	}
	if amount.IsZero() {
		return fmt.Errorf("%w: amount must not be zero", ErrValidation)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	}
	return nil
}

func toRecord(tx Transaction) columnar.TransactionRecord {
	return columnar.TransactionRecord{
		ActivityID: tx.ActivityID,
		User:       tx.User,
		Symbol:     tx.Symbol,
		Amount:     tx.Amount.String(),
		Price:      tx.Price.String(),
		Timestamp:  tx.Timestamp.UnixMilli(),
	}
}

func fromRecord(rec columnar.TransactionRecord) (Transaction, error) {
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: bad amount %q: %v", columnar.ErrSchema, rec.Amount, err)
	}
	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: bad price %q: %v", columnar.ErrSchema, rec.Price, err)
	}
	return Transaction{
		ActivityID: rec.ActivityID,
		User:       rec.User,
		Symbol:     rec.Symbol,
		Amount:     amount,
		Price:      price,
		Timestamp:  time.UnixMilli(rec.Timestamp).UTC(),
	}, nil
}
