// Package bank maps SMS sender identities to institutions and their extraction rules.
package bank

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/smsledger/internal/common"
)

// minContainsAliasLen is the shortest alias the contains heuristic will consider.
// Shorter aliases collide with unrelated promotional sender ids.
const minContainsAliasLen = 5

var (
	routePrefix   = regexp.MustCompile(`^[A-Z0-9]{2}-`)
	serviceSuffix = regexp.MustCompile(`-[A-Z]$`)
)

// BankIdentity is one financial institution and the sender aliases it uses.
type BankIdentity struct {
	CanonicalName string
	DisplayName   string
	Aliases       []string
}

// Definition declares an institution for the registry, optionally with an override rule set.
type Definition struct {
	Rules         *RuleSet `yaml:"rules,omitempty"`
	CanonicalName string   `yaml:"canonical_name"`
	DisplayName   string   `yaml:"display_name"`
	Aliases       []string `yaml:"aliases"`
}

// MatchKind records how a sender was resolved.
type MatchKind string

// Match kinds.
const (
	MatchExact    MatchKind = "exact"
	MatchStripped MatchKind = "stripped"
	MatchContains MatchKind = "contains"
	MatchNone     MatchKind = "none"
)

// Resolution is the outcome of resolving a sender identity.
type Resolution struct {
	Rules     RuleSelection
	MatchedBy MatchKind
	Bank      BankIdentity
	Known     bool
}

type entry struct {
	override *Rules
	identity BankIdentity
}

// Registry resolves sender identities. It is immutable after construction and safe
// for concurrent use.
type Registry struct {
	byAlias map[string]int
	aliases []string // Sorted longest first for the contains heuristic
	entries []entry
}

// NewRegistry validates and compiles the definitions. Any invalid definition or
// override pattern fails the whole registry.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{
		byAlias: make(map[string]int),
		entries: make([]entry, 0, len(defs)),
	}

	names := make(map[string]bool, len(defs))
	for _, def := range defs {
		if err := validateDefinition(def); err != nil {
			return nil, err
		}

		key := strings.ToUpper(strings.TrimSpace(def.CanonicalName))
		if names[key] {
			return nil, fmt.Errorf("%w: duplicate bank %q", common.ErrInvalidConfig, def.CanonicalName)
		}
		names[key] = true

		e := entry{
			identity: BankIdentity{
				CanonicalName: strings.TrimSpace(def.CanonicalName),
				DisplayName:   def.DisplayName,
			},
		}
		if e.identity.DisplayName == "" {
			e.identity.DisplayName = e.identity.CanonicalName
		}

		if !def.Rules.IsEmpty() {
			rules, err := Compile(*def.Rules)
			if err != nil {
				return nil, fmt.Errorf("bank %s: %w", def.CanonicalName, err)
			}
			e.override = rules
		}

		idx := len(r.entries)
		for _, alias := range def.Aliases {
			norm := normalizeSender(alias)
			if norm == "" {
				continue
			}
			if owner, ok := r.byAlias[norm]; ok && owner != idx {
				return nil, fmt.Errorf("%w: alias %q claimed by %s and %s",
					common.ErrInvalidConfig, alias, r.entries[owner].identity.CanonicalName, def.CanonicalName)
			}
			if _, ok := r.byAlias[norm]; ok {
				continue
			}
			r.byAlias[norm] = idx
			r.aliases = append(r.aliases, norm)
			e.identity.Aliases = append(e.identity.Aliases, norm)
		}

		r.entries = append(r.entries, e)
	}

	sort.SliceStable(r.aliases, func(i, j int) bool {
		return len(r.aliases[i]) > len(r.aliases[j])
	})

	return r, nil
}

// NewDefaultRegistry builds a registry from the built-in institution table.
func NewDefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultDefinitions())
}

func validateDefinition(def Definition) error {
	if strings.TrimSpace(def.CanonicalName) == "" {
		return fmt.Errorf("%w: bank definition without canonical name", common.ErrInvalidConfig)
	}
	if len(def.Aliases) == 0 {
		return fmt.Errorf("%w: bank %s has no sender aliases", common.ErrInvalidConfig, def.CanonicalName)
	}
	return nil
}

// Resolve maps a sender identity to its institution. Unknown senders resolve to
// the generic rules with Known set to false; Resolve never fails.
func (r *Registry) Resolve(sender string) Resolution {
	norm := normalizeSender(sender)
	if norm == "" {
		return unknown()
	}

	if idx, ok := r.byAlias[norm]; ok {
		return r.resolution(idx, MatchExact)
	}

	stripped := serviceSuffix.ReplaceAllString(routePrefix.ReplaceAllString(norm, ""), "")
	if idx, ok := r.byAlias[stripped]; ok {
		return r.resolution(idx, MatchStripped)
	}

	for _, alias := range r.aliases {
		if len(alias) < minContainsAliasLen {
			continue
		}
		if strings.Contains(stripped, alias) {
			return r.resolution(r.byAlias[alias], MatchContains)
		}
	}

	return unknown()
}

// Banks returns the registered institutions in declaration order.
func (r *Registry) Banks() []BankIdentity {
	out := make([]BankIdentity, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.identity
		out[i].Aliases = append([]string(nil), e.identity.Aliases...)
	}
	return out
}

// HasOverride reports whether the named institution carries its own rule set.
func (r *Registry) HasOverride(canonicalName string) bool {
	for _, e := range r.entries {
		if strings.EqualFold(e.identity.CanonicalName, canonicalName) {
			return e.override != nil
		}
	}
	return false
}

func (r *Registry) resolution(idx int, kind MatchKind) Resolution {
	e := r.entries[idx]

	var sel RuleSelection = Generic{}
	if e.override != nil {
		sel = Override{Rules: e.override}
	}

	return Resolution{
		Bank:      e.identity,
		Known:     true,
		Rules:     sel,
		MatchedBy: kind,
	}
}

func unknown() Resolution {
	return Resolution{Rules: Generic{}, MatchedBy: MatchNone}
}

func normalizeSender(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
