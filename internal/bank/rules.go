package bank

import (
	"fmt"
	"regexp"

	"github.com/Veraticus/smsledger/internal/common"
)

// RuleSet is an institution-specific override of the generic extraction patterns.
// Every pattern is case-insensitive and must have exactly one capture group holding
// the extracted value. Empty fields keep the generic rule for that field.
type RuleSet struct {
	Amount    string   `yaml:"amount,omitempty"`
	Balance   string   `yaml:"balance,omitempty"`
	Reference string   `yaml:"reference,omitempty"`
	Merchant  []string `yaml:"merchant,omitempty"` // Tried in order before the generic merchant strategies
}

// IsEmpty reports whether the rule set overrides nothing.
func (r *RuleSet) IsEmpty() bool {
	return r == nil || (r.Amount == "" && r.Balance == "" && r.Reference == "" && len(r.Merchant) == 0)
}

// Rules is a compiled RuleSet. Nil patterns mean "not overridden".
type Rules struct {
	Amount    *regexp.Regexp
	Balance   *regexp.Regexp
	Reference *regexp.Regexp
	Merchant  []*regexp.Regexp
}

// Generic amount, balance and reference patterns shared by most institutions.
const (
	genericAmountPattern    = `(?:\brs\.?|\binr|₹)\s*(-?[0-9][0-9,]*(?:\.[0-9]+)?)`
	genericBalancePattern   = `(?:avl\.?\s*bal(?:ance)?|avail(?:able)?\.?\s*bal(?:ance)?|\bclosing\s*bal(?:ance)?|\bbal(?:ance)?)\b\.?\s*(?:is\s*)?[:\-]?\s*(?:\brs\.?|\binr|₹)?\s*(-?[0-9][0-9,]*(?:\.[0-9]+)?)`
	genericReferencePattern = `\b(?:ref(?:erence)?|utr|rrn|txn\s*(?:id|no)|transaction\s*(?:id|no))\b\.?\s*(?:no\.?|number|num|id|#)?\s*[:\-]?\s*([a-z0-9]{6,})`
)

var genericRules = mustCompile(RuleSet{
	Amount:    genericAmountPattern,
	Balance:   genericBalancePattern,
	Reference: genericReferencePattern,
})

// GenericRules returns the compiled generic amount, balance and reference rules.
// Generic merchant extraction lives with the extractor's strategy list.
func GenericRules() *Rules {
	return genericRules
}

// Merge returns the generic rules with every pattern set in override replacing its
// generic counterpart. A nil override returns the generic rules unchanged.
func Merge(override *Rules) *Rules {
	if override == nil {
		return genericRules
	}

	merged := *genericRules
	if override.Amount != nil {
		merged.Amount = override.Amount
	}
	if override.Balance != nil {
		merged.Balance = override.Balance
	}
	if override.Reference != nil {
		merged.Reference = override.Reference
	}
	merged.Merchant = override.Merchant
	return &merged
}

// Compile compiles a rule set, failing on any pattern that does not compile or
// lacks a capture group.
func Compile(rs RuleSet) (*Rules, error) {
	var (
		rules Rules
		err   error
	)

	if rules.Amount, err = compileField("amount", rs.Amount); err != nil {
		return nil, err
	}
	if rules.Balance, err = compileField("balance", rs.Balance); err != nil {
		return nil, err
	}
	if rules.Reference, err = compileField("reference", rs.Reference); err != nil {
		return nil, err
	}

	for i, pattern := range rs.Merchant {
		re, err := compileField(fmt.Sprintf("merchant[%d]", i), pattern)
		if err != nil {
			return nil, err
		}
		if re != nil {
			rules.Merchant = append(rules.Merchant, re)
		}
	}

	return &rules, nil
}

func compileField(field, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}

	re, err := common.CompileInsensitive(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s pattern: %v", common.ErrInvalidConfig, field, err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("%w: %s pattern %q has no capture group", common.ErrInvalidConfig, field, pattern)
	}
	return re, nil
}

func mustCompile(rs RuleSet) *Rules {
	rules, err := Compile(rs)
	if err != nil {
		panic(err)
	}
	return rules
}

// RuleSelection says which rules apply to a sender: Generic or Override.
type RuleSelection interface {
	isRuleSelection()
}

// Generic selects the generic rule set.
type Generic struct{}

func (Generic) isRuleSelection() {}

// Override selects an institution-specific rule set layered over the generic one.
type Override struct {
	Rules *Rules
}

func (Override) isRuleSelection() {}

// Effective resolves a selection into the concrete rules to run.
func Effective(sel RuleSelection) *Rules {
	if o, ok := sel.(Override); ok {
		return Merge(o.Rules)
	}
	return genericRules
}
