package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

// seedCategory is one entry of the catalog installed on first migration.
type seedCategory struct {
	Name     string
	Keywords []string
}

// defaultCatalog is ordered; the order becomes each category's position.
var defaultCatalog = []seedCategory{
	{Name: "food", Keywords: []string{"restaurant", "swiggy", "zomato", "cafe", "dominos", "pizza", "eatery", "food"}},
	{Name: "groceries", Keywords: []string{"bigbasket", "blinkit", "zepto", "dmart", "grocery", "supermarket", "kirana"}},
	{Name: "shopping", Keywords: []string{"amazon", "flipkart", "myntra", "ajio", "nykaa", "meesho"}},
	{Name: "transport", Keywords: []string{"uber", "ola", "rapido", "metro", "irctc", "fuel", "petrol", "fastag"}},
	{Name: "utilities", Keywords: []string{"electricity", "broadband", "recharge", "airtel", "jio", "water bill", "bescom"}},
	{Name: "entertainment", Keywords: []string{"netflix", "spotify", "hotstar", "bookmyshow", "pvr"}},
	{Name: "health", Keywords: []string{"pharmacy", "hospital", "apollo", "medplus", "clinic", "diagnostics"}},
	{Name: "rent", Keywords: []string{"rent", "nobroker", "landlord", "maintenance"}},
	{Name: "investments", Keywords: []string{"zerodha", "groww", "mutual fund", "kuvera"}},
	{Name: "loans", Keywords: []string{"emi", "loan", "bajaj finance"}},
	{Name: "cash", Keywords: []string{"atm", "cash withdrawal"}},
	{Name: "income", Keywords: []string{"salary", "interest", "refund", "cashback", "dividend"}},
	{Name: "transfers", Keywords: []string{"transfer", "self transfer"}},
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					external_id TEXT PRIMARY KEY,
					amount TEXT NOT NULL,
					direction TEXT NOT NULL,
					merchant TEXT NOT NULL DEFAULT '',
					account_suffix TEXT NOT NULL DEFAULT '',
					reference_number TEXT NOT NULL DEFAULT '',
					upi_id TEXT NOT NULL DEFAULT '',
					balance_after TEXT,
					location TEXT NOT NULL DEFAULT '',
					payment_method TEXT NOT NULL DEFAULT '',
					sender_identity TEXT NOT NULL,
					bank TEXT NOT NULL DEFAULT '',
					raw_text TEXT NOT NULL,
					timestamp TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_timestamp ON transactions(timestamp)`,
				`CREATE INDEX idx_transactions_reference ON transactions(reference_number)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL UNIQUE COLLATE NOCASE,
					keywords TEXT NOT NULL DEFAULT '[]',
					parent_id INTEGER REFERENCES categories(id),
					position INTEGER NOT NULL DEFAULT 0,
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_categories_active ON categories(is_active)`,

				`CREATE TABLE IF NOT EXISTS categorizations (
					external_id TEXT PRIMARY KEY REFERENCES transactions(external_id),
					category_id INTEGER NOT NULL REFERENCES categories(id),
					confidence REAL NOT NULL DEFAULT 1,
					source TEXT NOT NULL,
					categorized_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_categorizations_category ON categorizations(category_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed default category catalog",
		Up: func(tx *sql.Tx) error {
			stmt, err := tx.Prepare(`INSERT OR IGNORE INTO categories (name, keywords, position) VALUES (?, ?, ?)`)
			if err != nil {
				return fmt.Errorf("failed to prepare statement: %w", err)
			}
			defer func() { _ = stmt.Close() }()

			for i, cat := range defaultCatalog {
				keywords, err := json.Marshal(cat.Keywords)
				if err != nil {
					return fmt.Errorf("failed to encode keywords for %s: %w", cat.Name, err)
				}
				if _, err := stmt.Exec(cat.Name, string(keywords), i+1); err != nil {
					return fmt.Errorf("failed to seed category %s: %w", cat.Name, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Index transactions by bank",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_transactions_bank ON transactions(bank)`)
			return err
		},
	},
}

// SchemaVersion returns the version of the last applied migration.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", classify(err))
	}
	return version, nil
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", classify(txErr))
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, classify(commitErr))
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
