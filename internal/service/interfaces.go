// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	Since *time.Time
	Until *time.Time
	Bank  string
	Limit int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	GetTransactionByID(ctx context.Context, externalID string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetUncategorizedTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
	FindDuplicateCandidates(ctx context.Context, txn model.Transaction, tolerance time.Duration) ([]model.Transaction, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*model.Category, error)
	CreateCategory(ctx context.Context, name string, keywords []string, parentID *int) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int) error

	// Categorization operations
	SaveCategorization(ctx context.Context, categorization *model.Categorization) error
	GetCategorizations(ctx context.Context) ([]model.Categorization, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
