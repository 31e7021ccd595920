package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

const categoryColumns = `id, name, keywords, parent_id, position, is_active, created_at`

// GetCategories returns all active categories in catalog order.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE is_active = 1
		ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByName returns the active category with the given name, ignoring case.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE name = ? AND is_active = 1`, strings.TrimSpace(name))
	return categoryFromRow(row, fmt.Sprintf("category %q", name))
}

// GetCategoryByID returns the active category with the given id.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = ? AND is_active = 1`, id)
	return categoryFromRow(row, fmt.Sprintf("category %d", id))
}

func categoryFromRow(row *sql.Row, label string) (*model.Category, error) {
	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", label, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", classify(err))
	}
	return &cat, nil
}

// CreateCategory adds a category at the end of the catalog. A previously
// deleted category of the same name is reactivated with the new keywords.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string, keywords []string, parentID *int) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if err := validateKeywords(keywords); err != nil {
		return nil, err
	}
	if keywords == nil {
		keywords = []string{}
	}

	encoded, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to encode keywords: %w", err)
	}

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if parentID != nil {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE id = ? AND is_active = 1`, *parentID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check parent category: %w", classify(err))
			}
			if exists == 0 {
				return fmt.Errorf("parent category %d: %w", *parentID, common.ErrNotFound)
			}
		}

		var position int
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM categories`).Scan(&position); err != nil {
			return fmt.Errorf("failed to compute category position: %w", classify(err))
		}

		var (
			existingID int64
			active     bool
		)
		err := tx.QueryRowContext(ctx, `SELECT id, is_active FROM categories WHERE name = ?`, name).Scan(&existingID, &active)
		switch {
		case err == nil && active:
			return fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
		case err == nil:
			id = existingID
			_, err = tx.ExecContext(ctx, `
				UPDATE categories
				SET is_active = 1, keywords = ?, parent_id = ?, position = ?
				WHERE id = ?`, string(encoded), parentID, position, existingID)
			if err != nil {
				return fmt.Errorf("failed to reactivate category: %w", classify(err))
			}
			slog.Info("reactivated existing category", "name", name)
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to check existing category: %w", classify(err))
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, keywords, parent_id, position, is_active, created_at)
			VALUES (?, ?, ?, ?, 1, ?)`, name, string(encoded), parentID, position, time.Now().UTC())
		if err != nil {
			if isConstraintViolation(err) {
				return fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to create category: %w", classify(err))
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get category ID: %w", err)
		}
		slog.Info("created new category", "name", name, "id", id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCategoryByID(ctx, int(id))
}

// DeleteCategory deactivates a category. Its past categorizations are kept
// but no longer offered to the suggestion engine as a catalog entry.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE categories SET is_active = 0 WHERE id = ? AND is_active = 1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted category", "id", id)
	return nil
}

func scanCategory(row scanner) (model.Category, error) {
	var (
		cat       model.Category
		keywords  string
		parentID  sql.NullInt64
		createdAt sql.NullTime
	)
	err := row.Scan(&cat.ID, &cat.Name, &keywords, &parentID, &cat.Position, &cat.IsActive, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cat, err
		}
		return cat, fmt.Errorf("failed to scan category: %w", err)
	}

	if err := json.Unmarshal([]byte(keywords), &cat.Keywords); err != nil {
		return cat, fmt.Errorf("category %s has malformed keywords: %w", cat.Name, err)
	}
	if parentID.Valid {
		p := int(parentID.Int64)
		cat.ParentID = &p
	}
	if createdAt.Valid {
		cat.CreatedAt = createdAt.Time
	}
	return cat, nil
}
