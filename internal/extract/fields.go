package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/bank"
	"github.com/Veraticus/smsledger/internal/common"
)

const maxLocationLen = 40

var (
	accountPattern = common.MustCompileInsensitive(
		`\b(?:a/c|acct|account|card|ac)\b\.?\s*(?:no\.?|number)?\s*(?:ending\s*(?:with|in)?)?\s*[:\-]?\s*[x*.]*\s*[0-9]*?([0-9]{3,4})\b`)
	upiPattern = common.MustCompileInsensitive(
		`\b([a-z0-9][a-z0-9._\-]{1,255}@[a-z][a-z0-9]{1,63})\b`)
	locationPatterns = []*regexp.Regexp{
		common.MustCompileInsensitive(`\b(?:location|loc|city)\s*[:\-]\s*([a-z][a-z .'\-]*?)(?:\s*[,.;(]|$)`),
		common.MustCompileInsensitive(`\bat\s+[^,.;]+?\s+in\s+([a-z][a-z .'\-]*?)(?:\s+on\b|\s*[,.;(]|$)`),
	}
)

type span struct{ start, end int }

func (s span) contains(start, end int) bool {
	return start >= s.start && end <= s.end
}

// findBalance returns the first parseable balance and the spans of every balance
// phrase, so amount extraction can skip literals that belong to a balance.
// An unparseable balance is treated as absent.
func findBalance(rules *bank.Rules, text string) (*decimal.Decimal, []span) {
	var (
		balance *decimal.Decimal
		spans   []span
	)

	for _, m := range rules.Balance.FindAllStringSubmatchIndex(text, -1) {
		spans = append(spans, span{start: m[0], end: m[1]})
		if balance != nil || m[2] < 0 {
			continue
		}
		if value, err := parseDecimal(numberToken(text, m[2], m[3])); err == nil {
			balance = &value
		}
	}

	return balance, spans
}

// findAmount returns the first amount literal outside any balance phrase.
func findAmount(rules *bank.Rules, text string, balanceSpans []span) (decimal.Decimal, error) {
	for _, m := range rules.Amount.FindAllStringSubmatchIndex(text, -1) {
		if m[2] < 0 || insideAny(balanceSpans, m[2], m[3]) {
			continue
		}

		raw := numberToken(text, m[2], m[3])
		value, err := parseDecimal(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, raw)
		}
		if !value.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrNonPositiveAmount, value.StringFixed(2))
		}
		return value, nil
	}

	return decimal.Zero, ErrNoAmount
}

// numberToken returns the captured literal extended over any letters, digits or
// separators glued to its end, so "5O0.00" is read whole instead of as "5".
func numberToken(text string, start, end int) string {
	for end < len(text) {
		switch b := text[end]; {
		case isASCIILetter(b) || isDigit(b):
		case (b == '.' || b == ',') && end+1 < len(text) && isDigit(text[end+1]):
		default:
			return text[start:end]
		}
		end++
	}
	return text[start:end]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func insideAny(spans []span, start, end int) bool {
	for _, s := range spans {
		if s.contains(start, end) {
			return true
		}
	}
	return false
}

// parseDecimal strips currency markers and thousands separators and parses the
// remainder rounded to two places.
func parseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, marker := range []string{"₹", "inr", "rs.", "rs"} {
		s = strings.TrimPrefix(s, marker)
	}
	s = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSuffix(s, ".")

	if s == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Round(2), nil
}

func findAccountSuffix(text string) string {
	if m := accountPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// findReference returns the first reference candidate that contains a digit.
// Words such as "Ref: Payment" are not references.
func findReference(rules *bank.Rules, text string) string {
	for _, m := range rules.Reference.FindAllStringSubmatch(text, -1) {
		if len(m) > 1 && strings.ContainsAny(m[1], "0123456789") {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// findUPIID returns the first handle@provider token that is not an e-mail address.
func findUPIID(text string) string {
	for _, m := range upiPattern.FindAllStringSubmatchIndex(text, -1) {
		end := m[3]
		if end+1 < len(text) && text[end] == '.' && isASCIILetter(text[end+1]) {
			continue
		}
		return strings.ToLower(text[m[2]:m[3]])
	}
	return ""
}

func findLocation(text string) string {
	for _, re := range locationPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		loc := strings.Trim(strings.Join(strings.Fields(m[1]), " "), " .-'")
		if len(loc) < 2 || len(loc) > maxLocationLen {
			continue
		}
		return loc
	}
	return ""
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
