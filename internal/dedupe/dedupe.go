// Package dedupe collapses repeat deliveries of the same bank transaction.
package dedupe

import (
	"sort"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
)

// DefaultTolerance is the window within which reference-less transactions with the
// same amount, direction and account are considered the same event.
const DefaultTolerance = 60 * time.Second

// Engine decides transaction identity. It holds no state besides its tolerance and
// is safe for concurrent use.
type Engine struct {
	tolerance time.Duration
}

// New creates an engine. A non-positive tolerance selects DefaultTolerance.
func New(tolerance time.Duration) *Engine {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Engine{tolerance: tolerance}
}

// Tolerance returns the fallback time window.
func (e *Engine) Tolerance() time.Duration {
	return e.tolerance
}

// IsDuplicateOf reports whether candidate and existing describe the same event.
// Equal reference numbers always match; two different reference numbers never do.
// Otherwise amount, direction and account suffix must be equal and the timestamps
// strictly closer than the tolerance.
func (e *Engine) IsDuplicateOf(candidate, existing model.Transaction) bool {
	if candidate.HasReference() && existing.HasReference() {
		return candidate.ReferenceNumber == existing.ReferenceNumber
	}

	if !candidate.Amount.Equal(existing.Amount) {
		return false
	}
	if candidate.Direction != existing.Direction {
		return false
	}
	if candidate.AccountSuffix != existing.AccountSuffix {
		return false
	}

	return absDuration(candidate.Timestamp.Sub(existing.Timestamp)) < e.tolerance
}

// Dedupe removes duplicates from a batch. Within each duplicate group the earliest
// timestamp survives, ties going to the earlier input position. Survivors keep their
// input order, and Dedupe(Dedupe(xs)) equals Dedupe(xs).
func (e *Engine) Dedupe(txns []model.Transaction) []model.Transaction {
	if len(txns) < 2 {
		return append([]model.Transaction(nil), txns...)
	}

	order := make([]int, len(txns))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return txns[order[a]].Timestamp.Before(txns[order[b]].Timestamp)
	})

	idx := newIndex(e)
	keep := make([]bool, len(txns))
	for _, i := range order {
		if _, dup := idx.find(txns[i]); dup {
			continue
		}
		idx.add(txns[i])
		keep[i] = true
	}

	out := make([]model.Transaction, 0, len(txns))
	for i, t := range txns {
		if keep[i] {
			out = append(out, t)
		}
	}
	return out
}

// FindDuplicate returns the first known transaction that candidate duplicates.
func (e *Engine) FindDuplicate(candidate model.Transaction, known []model.Transaction) (model.Transaction, bool) {
	for _, k := range known {
		if e.IsDuplicateOf(candidate, k) {
			return k, true
		}
	}
	return model.Transaction{}, false
}

// Duplicate pairs an incoming transaction with the known transaction it repeats.
type Duplicate struct {
	Candidate model.Transaction
	Existing  model.Transaction
}

// Filter splits incoming into transactions not yet known and duplicates of known
// ones. Incoming order is preserved in both results.
func (e *Engine) Filter(incoming, known []model.Transaction) ([]model.Transaction, []Duplicate) {
	idx := newIndex(e)
	for _, k := range known {
		idx.add(k)
	}

	fresh := make([]model.Transaction, 0, len(incoming))
	var dups []Duplicate
	for _, c := range incoming {
		if existing, ok := idx.find(c); ok {
			dups = append(dups, Duplicate{Candidate: c, Existing: existing})
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh, dups
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
