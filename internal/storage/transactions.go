package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/shopspring/decimal"
)

// timestampLayout is fixed width so stored timestamps sort lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const transactionColumns = `t.external_id, t.amount, t.direction, t.merchant, t.account_suffix,
	t.reference_number, t.upi_id, t.balance_after, t.location, t.payment_method,
	t.sender_identity, t.bank, t.raw_text, t.timestamp`

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(timestampLayout)
}

// SaveTransactions inserts transactions, ignoring ids that are already stored.
// It returns how many rows were new.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}
	if len(transactions) == 0 {
		return 0, nil
	}

	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (
				external_id, amount, direction, merchant, account_suffix,
				reference_number, upi_id, balance_after, location, payment_method,
				sender_identity, bank, raw_text, timestamp
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", classify(err))
		}
		defer func() { _ = stmt.Close() }()

		for _, txn := range transactions {
			balance := decimal.NullDecimal{}
			if txn.BalanceAfter != nil {
				balance = decimal.NewNullDecimal(*txn.BalanceAfter)
			}

			res, err := stmt.ExecContext(ctx,
				txn.ExternalID,
				txn.Amount.StringFixed(2),
				string(txn.Direction),
				txn.Merchant,
				txn.AccountSuffix,
				txn.ReferenceNumber,
				txn.UPIID,
				balance,
				txn.Location,
				txn.PaymentMethod,
				txn.SenderIdentity,
				txn.Bank,
				txn.RawText,
				formatTimestamp(txn.Timestamp),
			)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", txn.ExternalID, classify(err))
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Debug("saved transactions", "submitted", len(transactions), "inserted", inserted)
	return inserted, nil
}

// GetTransactionByID returns the transaction with the given external id.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, externalID string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(externalID, "externalID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions t WHERE t.external_id = ?`, externalID)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", externalID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", classify(err))
	}
	return &txn, nil
}

// GetTransactions returns transactions matching filter in timestamp order.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.Since != nil && filter.Until != nil && filter.Until.Before(*filter.Since) {
		return nil, ErrInvalidDateRange
	}

	var (
		conditions []string
		args       []any
	)
	if filter.Since != nil {
		conditions = append(conditions, "t.timestamp >= ?")
		args = append(args, formatTimestamp(*filter.Since))
	}
	if filter.Until != nil {
		conditions = append(conditions, "t.timestamp <= ?")
		args = append(args, formatTimestamp(*filter.Until))
	}
	if filter.Bank != "" {
		conditions = append(conditions, "t.bank = ? COLLATE NOCASE")
		args = append(args, filter.Bank)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions t`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.timestamp ASC, t.external_id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryTransactions(ctx, s.db, query, args...)
}

// GetUncategorizedTransactions returns transactions with no categorization,
// oldest first. A non-positive limit returns all of them.
func (s *SQLiteStorage) GetUncategorizedTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN categorizations c ON t.external_id = c.external_id
		WHERE c.external_id IS NULL
		ORDER BY t.timestamp ASC, t.external_id ASC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return s.queryTransactions(ctx, s.db, query, args...)
}

// FindDuplicateCandidates returns stored transactions that could be duplicates
// of txn: those sharing its reference number, and those within tolerance of
// its timestamp. The caller decides with the deduplication rules.
func (s *SQLiteStorage) FindDuplicateCandidates(ctx context.Context, txn model.Transaction, tolerance time.Duration) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if tolerance < 0 {
		tolerance = -tolerance
	}

	from := formatTimestamp(txn.Timestamp.Add(-tolerance))
	to := formatTimestamp(txn.Timestamp.Add(tolerance))

	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		WHERE (t.timestamp >= ? AND t.timestamp <= ?)`
	args := []any{from, to}
	if txn.ReferenceNumber != "" {
		query += " OR t.reference_number = ?"
		args = append(args, txn.ReferenceNumber)
	}
	query += " ORDER BY t.timestamp ASC"

	return s.queryTransactions(ctx, s.db, query, args...)
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, q queryable, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner, extra ...any) (model.Transaction, error) {
	var (
		txn       model.Transaction
		direction string
		balance   decimal.NullDecimal
		timestamp string
	)
	dest := []any{
		&txn.ExternalID,
		&txn.Amount,
		&direction,
		&txn.Merchant,
		&txn.AccountSuffix,
		&txn.ReferenceNumber,
		&txn.UPIID,
		&balance,
		&txn.Location,
		&txn.PaymentMethod,
		&txn.SenderIdentity,
		&txn.Bank,
		&txn.RawText,
		&timestamp,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return txn, err
		}
		return txn, fmt.Errorf("failed to scan transaction: %w", err)
	}

	ts, err := time.Parse(timestampLayout, timestamp)
	if err != nil {
		return txn, fmt.Errorf("transaction %s has malformed timestamp %q: %w", txn.ExternalID, timestamp, err)
	}
	txn.Timestamp = ts
	txn.Direction = model.Direction(direction)
	if balance.Valid {
		b := balance.Decimal
		txn.BalanceAfter = &b
	}
	return txn, nil
}
