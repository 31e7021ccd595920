package suggest

import (
	"github.com/Veraticus/smsledger/internal/model"
)

// categoryCounts maps category id to occurrence count.
type categoryCounts map[int]int

func (c categoryCounts) total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// share returns the fraction of occurrences that went to categoryID.
func (c categoryCounts) share(categoryID int) float64 {
	total := c.total()
	if total == 0 {
		return 0
	}
	return float64(c[categoryID]) / float64(total)
}

// patternCache is the learned association between merchants, words and categories.
type patternCache struct {
	merchants map[string]categoryCounts
	tokens    map[string]categoryCounts
}

func newPatternCache() *patternCache {
	return &patternCache{
		merchants: make(map[string]categoryCounts),
		tokens:    make(map[string]categoryCounts),
	}
}

// record adds one categorized transaction to the cache.
func (c *patternCache) record(txn model.Transaction, categoryID int) {
	if merchant := normalize(txn.Merchant); merchant != "" {
		bump(c.merchants, merchant, categoryID)
	}
	for _, tok := range learnableTokens(txn.RawText) {
		bump(c.tokens, tok, categoryID)
	}
}

// forget removes one earlier record of txn under categoryID.
func (c *patternCache) forget(txn model.Transaction, categoryID int) {
	if merchant := normalize(txn.Merchant); merchant != "" {
		drop(c.merchants, merchant, categoryID)
	}
	for _, tok := range learnableTokens(txn.RawText) {
		drop(c.tokens, tok, categoryID)
	}
}

func drop(m map[string]categoryCounts, key string, categoryID int) {
	counts, ok := m[key]
	if !ok || counts[categoryID] == 0 {
		return
	}
	counts[categoryID]--
	if counts[categoryID] == 0 {
		delete(counts, categoryID)
	}
	if len(counts) == 0 {
		delete(m, key)
	}
}

func bump(m map[string]categoryCounts, key string, categoryID int) {
	counts, ok := m[key]
	if !ok {
		counts = make(categoryCounts)
		m[key] = counts
	}
	counts[categoryID]++
}

// merchantMatch is the cache entry a transaction's merchant resolved to.
type merchantMatch struct {
	counts     categoryCounts
	name       string
	similarity float64
	exact      bool
}

// matchMerchant finds the exact cache entry for merchant or, failing that, the
// most similar known merchant at or above threshold. Equal similarities go to
// the alphabetically first name so results do not depend on map order.
func (c *patternCache) matchMerchant(merchant string, threshold float64) (merchantMatch, bool) {
	if merchant == "" {
		return merchantMatch{}, false
	}
	if counts, ok := c.merchants[merchant]; ok {
		return merchantMatch{name: merchant, counts: counts, similarity: 1, exact: true}, true
	}

	var (
		best  merchantMatch
		found bool
	)
	length := len([]rune(merchant))
	for name, counts := range c.merchants {
		if !canReach(length, len([]rune(name)), threshold) {
			continue
		}
		sim := Similarity(merchant, name)
		if sim < threshold {
			continue
		}
		if !found || sim > best.similarity || (sim == best.similarity && name < best.name) {
			best = merchantMatch{name: name, counts: counts, similarity: sim}
			found = true
		}
	}
	return best, found
}

// CacheStats summarizes what the engine has learned.
type CacheStats struct {
	Merchants  int
	Tokens     int
	Categories int
}
