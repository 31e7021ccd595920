package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Veraticus/smsledger/internal/common"
)

const maxMerchantLen = 40

// MerchantStrategy extracts a merchant candidate from normalized message text.
// Extract returns "" when the strategy does not apply.
type MerchantStrategy interface {
	Name() string
	Extract(text string) string
}

var (
	vpaMerchant = common.MustCompileInsensitive(
		`\bvpa\s*[:\-]?\s*([a-z0-9][a-z0-9._\-]*)@[a-z][a-z0-9]*`)
	infoMerchant = common.MustCompileInsensitive(
		`\binfo\s*[:\-]\s*([^;\n]+?)(?:\.\s|\.$|;|$)`)
	toMerchant = common.MustCompileInsensitive(
		`\b(?:to|towards)\s+([a-z0-9&'*][a-z0-9&'*._ \-]*?)(?:\s+(?:on|via|ref|refno|upi|at|for|from|with|using|avl|is|was|has|ending|dated|thru|through|by)\b|\s*[,;:(]|\.\s|\.$|$)`)
	atMerchant = common.MustCompileInsensitive(
		`\bat\s+([a-z0-9&'*][a-z0-9&'*._ \-]*?)(?:\s+(?:on|via|ref|for|in|avl|using|with|txn|from|is)\b|\s*[,;:(]|\.\s|\.$|$)`)
	fromMerchant = common.MustCompileInsensitive(
		`\bfrom\s+([a-z0-9&'*][a-z0-9&'*._ \-]*?)(?:\s+(?:on|via|ref|upi|to|at|for|with|is|was|has)\b|\s*[,;:(]|\.\s|\.$|$)`)

	accountLike = common.MustCompileInsensitive(
		`^(?:your\s+|the\s+|a\s+|my\s+)?(?:a/?c|acct|account|card|bank|beneficiary|mobile|ac|wallet|atm)\b|\bxx+[0-9]|^[x*]+[0-9]+$`)
	infoBoilerplate = map[string]bool{
		"UPI": true, "P2M": true, "P2A": true, "IMPS": true, "NEFT": true, "RTGS": true, "POS": true, "ECOM": true,
	}
)

// DefaultMerchantStrategies returns the generic strategies in precedence order.
func DefaultMerchantStrategies() []MerchantStrategy {
	return []MerchantStrategy{
		vpaStrategy{},
		infoStrategy{},
		PatternStrategy("to", toMerchant),
		PatternStrategy("at", atMerchant),
		PatternStrategy("from", fromMerchant),
	}
}

// FirstMerchant runs the strategies in order and returns the first non-empty result.
func FirstMerchant(strategies []MerchantStrategy, text string) string {
	for _, s := range strategies {
		if m := s.Extract(text); m != "" {
			return m
		}
	}
	return ""
}

type patternStrategy struct {
	re   *regexp.Regexp
	name string
}

// PatternStrategy returns a strategy that takes the first acceptable capture of re.
func PatternStrategy(name string, re *regexp.Regexp) MerchantStrategy {
	return patternStrategy{name: name, re: re}
}

func (s patternStrategy) Name() string { return s.name }

func (s patternStrategy) Extract(text string) string {
	for _, m := range s.re.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 {
			continue
		}
		if c := cleanMerchant(m[1]); c != "" {
			return c
		}
	}
	return ""
}

// vpaStrategy uses the handle of a "VPA handle@provider" mention.
type vpaStrategy struct{}

func (vpaStrategy) Name() string { return "vpa" }

func (vpaStrategy) Extract(text string) string {
	for _, m := range vpaMerchant.FindAllStringSubmatch(text, -1) {
		handle := strings.Map(func(r rune) rune {
			if r == '.' || r == '_' || r == '-' {
				return ' '
			}
			return r
		}, m[1])
		if c := cleanMerchant(handle); c != "" {
			return c
		}
	}
	return ""
}

// infoStrategy reads "Info: UPI/P2M/123456/SWIGGY" style trailers, using the last
// slash-separated segment that names something.
type infoStrategy struct{}

func (infoStrategy) Name() string { return "info" }

func (infoStrategy) Extract(text string) string {
	for _, m := range infoMerchant.FindAllStringSubmatch(text, -1) {
		segments := strings.Split(m[1], "/")
		for i := len(segments) - 1; i >= 0; i-- {
			seg := strings.TrimSpace(segments[i])
			if infoBoilerplate[strings.ToUpper(seg)] {
				continue
			}
			if c := cleanMerchant(seg); c != "" {
				return c
			}
		}
	}
	return ""
}

// cleanMerchant normalizes whitespace and trims punctuation, discarding candidates
// that reference an account or carry fewer than two letters.
func cleanMerchant(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	s = strings.Trim(s, " .,-:;*'\"/")
	if s == "" || accountLike.MatchString(s) {
		return ""
	}

	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 2 {
		return ""
	}

	if runes := []rune(s); len(runes) > maxMerchantLen {
		s = strings.TrimSpace(string(runes[:maxMerchantLen]))
	}
	return s
}
