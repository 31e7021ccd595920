// Package storage provides the SQLite persistence layer for transactions,
// the category catalog and categorization history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext            = errors.New("context cannot be nil")
	ErrEmptyString           = errors.New("string parameter cannot be empty")
	ErrNilParameter          = errors.New("parameter cannot be nil")
	ErrInvalidDateRange      = errors.New("start date must be before end date")
	ErrInvalidTransaction    = errors.New("invalid transaction")
	ErrInvalidCategory       = errors.New("invalid category")
	ErrInvalidCategorization = errors.New("invalid categorization")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates every transaction of a batch.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction enforces the invariants every stored transaction carries.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ExternalID == "" {
		return fmt.Errorf("%w: missing external ID", ErrInvalidTransaction)
	}
	if txn.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidTransaction)
	}
	if !txn.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidTransaction, txn.Amount)
	}
	if !txn.Direction.IsValid() {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidTransaction, txn.Direction)
	}
	if txn.SenderIdentity == "" {
		return fmt.Errorf("%w: missing sender", ErrInvalidTransaction)
	}
	return nil
}

// validateKeywords rejects blank keywords.
func validateKeywords(keywords []string) error {
	for i, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%w: keyword %d is empty", ErrInvalidCategory, i)
		}
	}
	return nil
}

// validateCategorization validates a categorization before it is stored.
func validateCategorization(c *model.Categorization) error {
	if c == nil {
		return fmt.Errorf("%w: categorization", ErrNilParameter)
	}
	if c.Transaction.ExternalID == "" {
		return fmt.Errorf("%w: missing transaction ID", ErrInvalidCategorization)
	}
	if c.CategoryID <= 0 {
		return fmt.Errorf("%w: missing category ID", ErrInvalidCategorization)
	}
	switch c.Source {
	case model.SourceUser, model.SourceSuggestion:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidCategorization, c.Source)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidCategorization)
	}
	return nil
}
