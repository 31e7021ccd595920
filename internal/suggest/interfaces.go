// Package suggest ranks spending categories for transactions using the user's
// categorization history and the category catalog's keywords.
package suggest

import (
	"context"

	"github.com/Veraticus/smsledger/internal/model"
)

// CategorySource enumerates the category catalog in declaration order.
type CategorySource interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
}

// HistorySource supplies prior category assignments to learn from.
type HistorySource interface {
	GetCategorizations(ctx context.Context) ([]model.Categorization, error)
}
