package model

import (
	"fmt"
	"sort"
)

// CategorySuggestion represents how likely a transaction belongs to a specific category.
type CategorySuggestion struct {
	Reason     string
	Category   Category
	Confidence float64
}

// Validate ensures the CategorySuggestion has valid data.
func (s *CategorySuggestion) Validate() error {
	if s.Category.Name == "" {
		return fmt.Errorf("category name is required")
	}

	if s.Confidence < 0.0 || s.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.2f", s.Confidence)
	}

	return nil
}

// Level returns the display band for the suggestion's confidence.
func (s *CategorySuggestion) Level() ConfidenceLevel {
	return LevelFor(s.Confidence)
}

// CategorySuggestions is a slice of CategorySuggestion that supports sorting and utility methods.
type CategorySuggestions []CategorySuggestion

// Len implements sort.Interface.
func (r CategorySuggestions) Len() int {
	return len(r)
}

// Less implements sort.Interface - higher confidence comes first.
func (r CategorySuggestions) Less(i, j int) bool {
	if r[i].Confidence != r[j].Confidence {
		return r[i].Confidence > r[j].Confidence
	}
	// Equal confidence keeps catalog declaration order
	return r[i].Category.Position < r[j].Category.Position
}

// Swap implements sort.Interface.
func (r CategorySuggestions) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

// Sort sorts the suggestions by confidence in descending order.
func (r CategorySuggestions) Sort() {
	sort.Stable(r)
}

// Top returns the highest-confidence suggestion, or nil if empty.
func (r CategorySuggestions) Top() *CategorySuggestion {
	if len(r) == 0 {
		return nil
	}
	r.Sort()
	return &r[0]
}

// TopN returns the N highest-confidence suggestions.
func (r CategorySuggestions) TopN(n int) CategorySuggestions {
	if n <= 0 {
		return CategorySuggestions{}
	}

	r.Sort()

	if n > len(r) {
		n = len(r)
	}

	result := make(CategorySuggestions, n)
	copy(result, r[:n])
	return result
}

// AboveThreshold returns all suggestions with confidence at or above the given threshold.
func (r CategorySuggestions) AboveThreshold(threshold float64) CategorySuggestions {
	r.Sort()

	var result CategorySuggestions
	for _, s := range r {
		if s.Confidence >= threshold {
			result = append(result, s)
		}
	}
	return result
}

// Validate ensures all suggestions in the slice are valid and name distinct categories.
func (r CategorySuggestions) Validate() error {
	seen := make(map[int]bool)

	for i, s := range r {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid suggestion at index %d: %w", i, err)
		}

		if seen[s.Category.ID] {
			return fmt.Errorf("duplicate category %q in suggestions", s.Category.Name)
		}
		seen[s.Category.ID] = true
	}

	return nil
}

// ConfidenceLevel is a display band derived from a confidence score.
type ConfidenceLevel string

// Confidence level constants.
const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// Confidence band thresholds.
const (
	HighConfidenceThreshold   = 0.7
	MediumConfidenceThreshold = 0.4
)

// LevelFor maps a confidence score onto its display band.
func LevelFor(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= HighConfidenceThreshold:
		return ConfidenceHigh
	case confidence >= MediumConfidenceThreshold:
		return ConfidenceMedium
	}
	return ConfidenceLow
}
