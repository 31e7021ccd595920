package dedupe

import (
	"fmt"

	"github.com/Veraticus/smsledger/internal/model"
)

// DuplicateKey is the derived identity of a transaction. Reference is set when the
// transaction carries a reference number and the other fields are then empty.
// Keys group likely duplicates; IsDuplicateOf remains the authoritative comparison
// because neighbouring time buckets can still hold duplicates.
type DuplicateKey struct {
	Reference     string
	Amount        string
	Direction     model.Direction
	AccountSuffix string
	TimeBucket    int64
}

// String renders the key for logs.
func (k DuplicateKey) String() string {
	if k.Reference != "" {
		return "ref:" + k.Reference
	}
	return fmt.Sprintf("%s|%s|%s|%d", k.Amount, k.Direction, k.AccountSuffix, k.TimeBucket)
}

// Key derives the duplicate key of t, bucketing time by the engine tolerance.
func (e *Engine) Key(t model.Transaction) DuplicateKey {
	if t.HasReference() {
		return DuplicateKey{Reference: t.ReferenceNumber}
	}
	return DuplicateKey{
		Amount:        t.Amount.StringFixed(2),
		Direction:     t.Direction,
		AccountSuffix: t.AccountSuffix,
		TimeBucket:    t.Timestamp.Truncate(e.tolerance).Unix(),
	}
}

// fallbackKey groups transactions that can only match through the fallback rule.
func fallbackKey(t model.Transaction) string {
	return t.Amount.StringFixed(2) + "|" + string(t.Direction) + "|" + t.AccountSuffix
}

// index answers "is this a duplicate of anything added so far" without comparing
// against every transaction.
type index struct {
	engine  *Engine
	byRef   map[string]model.Transaction
	buckets map[string][]model.Transaction
}

func newIndex(e *Engine) *index {
	return &index{
		engine:  e,
		byRef:   make(map[string]model.Transaction),
		buckets: make(map[string][]model.Transaction),
	}
}

func (ix *index) add(t model.Transaction) {
	if t.HasReference() {
		if _, ok := ix.byRef[t.ReferenceNumber]; !ok {
			ix.byRef[t.ReferenceNumber] = t
		}
	}
	key := fallbackKey(t)
	ix.buckets[key] = append(ix.buckets[key], t)
}

func (ix *index) find(c model.Transaction) (model.Transaction, bool) {
	if c.HasReference() {
		if existing, ok := ix.byRef[c.ReferenceNumber]; ok {
			return existing, true
		}
	}
	for _, existing := range ix.buckets[fallbackKey(c)] {
		if ix.engine.IsDuplicateOf(c, existing) {
			return existing, true
		}
	}
	return model.Transaction{}, false
}
