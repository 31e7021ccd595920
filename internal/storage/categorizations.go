package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// SaveCategorization assigns a category to a stored transaction, replacing any
// earlier assignment.
func (s *SQLiteStorage) SaveCategorization(ctx context.Context, categorization *model.Categorization) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategorization(categorization); err != nil {
		return err
	}

	categorizedAt := categorization.CategorizedAt
	if categorizedAt.IsZero() {
		categorizedAt = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, `SELECT COUNT(*) FROM transactions WHERE external_id = ?`,
			categorization.Transaction.ExternalID, "transaction "+categorization.Transaction.ExternalID); err != nil {
			return err
		}
		if err := requireRow(ctx, tx, `SELECT COUNT(*) FROM categories WHERE id = ? AND is_active = 1`,
			categorization.CategoryID, fmt.Sprintf("category %d", categorization.CategoryID)); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO categorizations (external_id, category_id, confidence, source, categorized_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(external_id) DO UPDATE SET
				category_id = excluded.category_id,
				confidence = excluded.confidence,
				source = excluded.source,
				categorized_at = excluded.categorized_at`,
			categorization.Transaction.ExternalID,
			categorization.CategoryID,
			categorization.Confidence,
			string(categorization.Source),
			categorizedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to save categorization: %w", classify(err))
		}

		slog.Debug("saved categorization",
			"transaction", categorization.Transaction.ExternalID,
			"category_id", categorization.CategoryID,
			"source", categorization.Source)
		return nil
	})
}

// GetCategorizations returns every categorization joined with its transaction,
// oldest assignment first.
func (s *SQLiteStorage) GetCategorizations(ctx context.Context) ([]model.Categorization, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`, c.category_id, c.confidence, c.source, c.categorized_at
		FROM categorizations c
		JOIN transactions t ON t.external_id = c.external_id
		ORDER BY c.categorized_at ASC, c.external_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categorizations: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var categorizations []model.Categorization
	for rows.Next() {
		var (
			c      model.Categorization
			source string
		)
		txn, err := scanTransaction(rows, &c.CategoryID, &c.Confidence, &source, &c.CategorizedAt)
		if err != nil {
			return nil, err
		}
		c.Transaction = txn
		c.Source = model.CategorizationSource(source)
		categorizations = append(categorizations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categorizations: %w", err)
	}

	return categorizations, nil
}

// requireRow fails with common.ErrNotFound when the count query returns zero.
func requireRow(ctx context.Context, tx *sql.Tx, query string, arg any, label string) error {
	var n int
	if err := tx.QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up %s: %w", label, classify(err))
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", label, common.ErrNotFound)
	}
	return nil
}
