package model

import "time"

// Category is a spending category from the category catalog.
type Category struct {
	CreatedAt time.Time
	ParentID  *int
	Name      string
	Keywords  []string
	ID        int
	Position  int // Declaration order in the catalog
	IsActive  bool
}

// Categorization is one historical category assignment for a transaction.
type Categorization struct {
	CategorizedAt time.Time
	Source        CategorizationSource
	Transaction   Transaction
	CategoryID    int
	Confidence    float64
}

// CategorizationSource indicates how a category assignment was made.
type CategorizationSource string

// Categorization source constants.
const (
	SourceUser       CategorizationSource = "USER"
	SourceSuggestion CategorizationSource = "SUGGESTION"
)
