package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/spf13/viper"
)

// Configuration keys read by LoadPolicy.
const (
	KeyDedupeTolerance        = "dedupe.tolerance"
	KeyFuzzyMerchantThreshold = "suggest.fuzzy_merchant_threshold"
	KeyFuzzyKeywordThreshold  = "suggest.fuzzy_keyword_threshold"
	KeyMaxSuggestions         = "suggest.max_suggestions"
)

// Policy holds the empirically tuned constants of the pipeline.
type Policy struct {
	// DedupeTolerance is the window within which two reference-less messages
	// with the same amount, direction and account are the same event.
	DedupeTolerance time.Duration
	// FuzzyMerchantThreshold is the minimum similarity for a fuzzy merchant match.
	FuzzyMerchantThreshold float64
	// FuzzyKeywordThreshold is the minimum similarity for a fuzzy keyword hit.
	FuzzyKeywordThreshold float64
	MaxSuggestions        int
}

// DefaultPolicy returns the built-in policy values.
func DefaultPolicy() Policy {
	return Policy{
		DedupeTolerance:        60 * time.Second,
		FuzzyMerchantThreshold: 0.7,
		FuzzyKeywordThreshold:  0.8,
		MaxSuggestions:         3,
	}
}

// SetDefaults registers the policy defaults with v.
func SetDefaults(v *viper.Viper) {
	d := DefaultPolicy()
	v.SetDefault(KeyDedupeTolerance, d.DedupeTolerance)
	v.SetDefault(KeyFuzzyMerchantThreshold, d.FuzzyMerchantThreshold)
	v.SetDefault(KeyFuzzyKeywordThreshold, d.FuzzyKeywordThreshold)
	v.SetDefault(KeyMaxSuggestions, d.MaxSuggestions)
}

// LoadPolicy reads the policy from v, falling back to defaults for unset keys.
func LoadPolicy(v *viper.Viper) (Policy, error) {
	p := DefaultPolicy()

	if v.IsSet(KeyDedupeTolerance) {
		p.DedupeTolerance = v.GetDuration(KeyDedupeTolerance)
	}
	if v.IsSet(KeyFuzzyMerchantThreshold) {
		p.FuzzyMerchantThreshold = v.GetFloat64(KeyFuzzyMerchantThreshold)
	}
	if v.IsSet(KeyFuzzyKeywordThreshold) {
		p.FuzzyKeywordThreshold = v.GetFloat64(KeyFuzzyKeywordThreshold)
	}
	if v.IsSet(KeyMaxSuggestions) {
		p.MaxSuggestions = v.GetInt(KeyMaxSuggestions)
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks that every policy value is usable.
func (p Policy) Validate() error {
	if p.DedupeTolerance <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %s", common.ErrInvalidConfig, KeyDedupeTolerance, p.DedupeTolerance)
	}
	if p.FuzzyMerchantThreshold <= 0 || p.FuzzyMerchantThreshold > 1 {
		return fmt.Errorf("%w: %s must be in (0,1], got %.2f", common.ErrInvalidConfig, KeyFuzzyMerchantThreshold, p.FuzzyMerchantThreshold)
	}
	if p.FuzzyKeywordThreshold <= 0 || p.FuzzyKeywordThreshold > 1 {
		return fmt.Errorf("%w: %s must be in (0,1], got %.2f", common.ErrInvalidConfig, KeyFuzzyKeywordThreshold, p.FuzzyKeywordThreshold)
	}
	if p.MaxSuggestions <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", common.ErrInvalidConfig, KeyMaxSuggestions, p.MaxSuggestions)
	}
	return nil
}
