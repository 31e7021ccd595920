package suggest

import (
	"fmt"
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
)

// Signal weights. Each signal contributes at most its weight.
const (
	historicalWeight = 0.5
	fuzzyWeight      = 0.3
	keywordWeight    = 0.3
	learnedWeight    = 0.2
)

// query is the part of scoring that does not depend on the category, computed
// once per Suggest call.
type query struct {
	merchant    merchantMatch
	searchText  string
	searchWords []string
	tokens      []tokenEvidence
	hasMerchant bool
}

type tokenEvidence struct {
	counts categoryCounts
	token  string
}

func (e *Engine) newQuery(cache *patternCache, txn model.Transaction) query {
	q := query{
		searchText: normalize(strings.Join([]string{txn.Merchant, txn.Location, txn.RawText}, " ")),
	}
	q.searchWords = splitWords(q.searchText)
	q.merchant, q.hasMerchant = cache.matchMerchant(normalize(txn.Merchant), e.policy.FuzzyMerchantThreshold)

	for _, tok := range learnableTokens(txn.RawText) {
		if counts, ok := cache.tokens[tok]; ok {
			q.tokens = append(q.tokens, tokenEvidence{token: tok, counts: counts})
		}
	}
	return q
}

// score combines the three signals for one category, capped at 1.0.
func (e *Engine) score(q query, cat model.Category) (float64, []string) {
	var (
		total   float64
		reasons []string
	)

	if s, reason := historicalScore(q, cat); s > 0 {
		total += s
		reasons = append(reasons, reason)
	}
	if s, reason := e.keywordScore(q, cat); s > 0 {
		total += s
		reasons = append(reasons, reason)
	}
	if s, reason := learnedScore(q, cat); s > 0 {
		total += s
		reasons = append(reasons, reason)
	}

	return min(total, 1.0), reasons
}

func historicalScore(q query, cat model.Category) (float64, string) {
	if !q.hasMerchant {
		return 0, ""
	}

	n := q.merchant.counts[cat.ID]
	if n == 0 {
		return 0, ""
	}
	total := q.merchant.counts.total()
	share := q.merchant.counts.share(cat.ID)

	if q.merchant.exact {
		return historicalWeight * share,
			fmt.Sprintf("merchant %q was %s in %d of %d past transactions", q.merchant.name, cat.Name, n, total)
	}
	return fuzzyWeight * q.merchant.similarity * share,
		fmt.Sprintf("merchant resembles %q (%.0f%% similar), %s in %d of %d past transactions",
			q.merchant.name, q.merchant.similarity*100, cat.Name, n, total)
}

// keywordScore is keywordWeight × matched/keywords × mean match quality. A keyword
// found verbatim in the search text has quality 1; otherwise its best fuzzy match
// against a word of the text counts if it reaches the keyword threshold.
func (e *Engine) keywordScore(q query, cat model.Category) (float64, string) {
	keywords := categoryKeywords(cat)
	if len(keywords) == 0 || q.searchText == "" {
		return 0, ""
	}

	var (
		matched []string
		quality float64
	)
	for _, kw := range keywords {
		if strings.Contains(q.searchText, kw) {
			matched = append(matched, kw)
			quality++
			continue
		}
		if best := e.bestWordMatch(kw, q.searchWords); best > 0 {
			matched = append(matched, kw+"~")
			quality += best
		}
	}

	if len(matched) == 0 {
		return 0, ""
	}

	density := float64(len(matched)) / float64(len(keywords))
	avgQuality := quality / float64(len(matched))
	return keywordWeight * density * avgQuality, "keywords: " + strings.Join(matched, ", ")
}

// categoryKeywords normalizes the keywords exactly like the search text, so a
// verbatim keyword always matches.
func categoryKeywords(cat model.Category) []string {
	out := make([]string, 0, len(cat.Keywords))
	for _, kw := range cat.Keywords {
		if kw = normalize(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func (e *Engine) bestWordMatch(keyword string, words []string) float64 {
	threshold := e.policy.FuzzyKeywordThreshold
	length := len([]rune(keyword))

	best := 0.0
	for _, w := range words {
		if !canReach(length, len([]rune(w)), threshold) {
			continue
		}
		if sim := Similarity(keyword, w); sim >= threshold && sim > best {
			best = sim
		}
	}
	return best
}

// learnedScore averages the category's share over every message word the cache knows.
func learnedScore(q query, cat model.Category) (float64, string) {
	if len(q.tokens) == 0 {
		return 0, ""
	}

	var (
		sum   float64
		words []string
	)
	for _, ev := range q.tokens {
		if share := ev.counts.share(cat.ID); share > 0 {
			sum += share
			words = append(words, ev.token)
		}
	}
	if sum == 0 {
		return 0, ""
	}

	avg := sum / float64(len(q.tokens))
	return learnedWeight * avg, "learned from: " + strings.Join(words, ", ")
}
