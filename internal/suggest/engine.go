package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Veraticus/smsledger/internal/config"
	"github.com/Veraticus/smsledger/internal/model"
)

// ErrUnknownCategory is returned when recording a categorization for a category
// the catalog does not contain.
var ErrUnknownCategory = errors.New("unknown category")

// assignment is the category a stored transaction currently carries.
type assignment struct {
	txn        model.Transaction
	categoryID int
}

// state is one consistent view of the catalog and the learned cache.
type state struct {
	byID       map[int]model.Category
	cache      *patternCache
	assigned   map[string]assignment // By external id
	categories []model.Category
}

// Engine scores categories for transactions. It is safe for concurrent use:
// Suggest calls run in parallel with each other, while rebuilds and recorded
// categorizations are serialized and never observed half-applied.
type Engine struct {
	categories CategorySource
	history    HistorySource
	state      *state
	policy     config.Policy
	mu         sync.RWMutex // Guards state and the cache it points to
	writeMu    sync.Mutex   // Serializes rebuilds and recorded categorizations
}

// NewEngine creates an engine. Nothing is loaded until Initialize or the first Suggest.
func NewEngine(categories CategorySource, history HistorySource, policy config.Policy) *Engine {
	defaults := config.DefaultPolicy()
	if policy.FuzzyMerchantThreshold <= 0 {
		policy.FuzzyMerchantThreshold = defaults.FuzzyMerchantThreshold
	}
	if policy.FuzzyKeywordThreshold <= 0 {
		policy.FuzzyKeywordThreshold = defaults.FuzzyKeywordThreshold
	}
	if policy.MaxSuggestions <= 0 {
		policy.MaxSuggestions = defaults.MaxSuggestions
	}

	return &Engine{
		categories: categories,
		history:    history,
		policy:     policy,
	}
}

// Initialize loads the catalog and rebuilds the cache from history. It is
// idempotent; concurrent Suggest calls keep using the previous state until the
// new one is swapped in.
func (e *Engine) Initialize(ctx context.Context) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	return e.rebuild(ctx)
}

// Refresh reloads everything from the sources.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.Initialize(ctx)
}

// rebuild must be called with writeMu held.
func (e *Engine) rebuild(ctx context.Context) error {
	categories, err := e.categories.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	history, err := e.history.GetCategorizations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categorization history: %w", err)
	}

	next := &state{
		categories: make([]model.Category, 0, len(categories)),
		byID:       make(map[int]model.Category, len(categories)),
		cache:      newPatternCache(),
		assigned:   make(map[string]assignment),
	}
	for _, cat := range categories {
		next.categories = append(next.categories, cat)
		next.byID[cat.ID] = cat
	}

	skipped := 0
	for _, c := range history {
		if _, ok := next.byID[c.CategoryID]; !ok {
			skipped++
			continue
		}
		next.cache.record(c.Transaction, c.CategoryID)
		if id := c.Transaction.ExternalID; id != "" {
			next.assigned[id] = assignment{txn: c.Transaction, categoryID: c.CategoryID}
		}
	}

	e.mu.Lock()
	e.state = next
	e.mu.Unlock()

	slog.Debug("Suggestion engine initialized",
		"categories", len(next.categories),
		"history", len(history)-skipped,
		"skipped", skipped,
		"merchants", len(next.cache.merchants),
		"tokens", len(next.cache.tokens))

	return nil
}

// Suggest ranks categories for txn, best first, at most limit of them
// (the configured maximum when limit is not positive). Categories with zero
// confidence are left out. An engine that cannot initialize yields no suggestions.
func (e *Engine) Suggest(ctx context.Context, txn model.Transaction, limit int) model.CategorySuggestions {
	if limit <= 0 {
		limit = e.policy.MaxSuggestions
	}

	if !e.initialized() {
		if err := e.Initialize(ctx); err != nil {
			slog.Warn("Suggestion engine unavailable", "error", err)
			return model.CategorySuggestions{}
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	st := e.state
	q := e.newQuery(st.cache, txn)

	suggestions := make(model.CategorySuggestions, 0, len(st.categories))
	for _, cat := range st.categories {
		confidence, reasons := e.score(q, cat)
		if confidence <= 0 {
			continue
		}
		suggestions = append(suggestions, model.CategorySuggestion{
			Category:   cat,
			Confidence: confidence,
			Reason:     strings.Join(reasons, "; "),
		})
	}

	return suggestions.TopN(limit)
}

// RecordCategorization teaches the engine that txn belongs to categoryID. The
// cache is updated in place before returning, so the next Suggest sees it.
// A transaction that already carried a category has that earlier assignment
// replaced, matching what storage keeps and what a Refresh would rebuild.
func (e *Engine) RecordCategorization(ctx context.Context, txn model.Transaction, categoryID int) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if !e.initialized() {
		if err := e.rebuild(ctx); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.byID[categoryID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCategory, categoryID)
	}

	id := txn.ExternalID
	if prev, ok := e.state.assigned[id]; ok && id != "" {
		e.state.cache.forget(prev.txn, prev.categoryID)
	}
	e.state.cache.record(txn, categoryID)
	if id != "" {
		e.state.assigned[id] = assignment{txn: txn, categoryID: categoryID}
	}
	return nil
}

// Stats reports the size of the learned cache. It is zero before initialization.
func (e *Engine) Stats() CacheStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.state == nil {
		return CacheStats{}
	}
	return CacheStats{
		Merchants:  len(e.state.cache.merchants),
		Tokens:     len(e.state.cache.tokens),
		Categories: len(e.state.categories),
	}
}

func (e *Engine) initialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state != nil
}
