package suggest

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const minTokenLen = 3

var (
	tokenSeparator = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	maskedAccount  = regexp.MustCompile(`^x+[0-9]+$`)
)

// Banking boilerplate that says nothing about what was bought.
var stopwords = map[string]bool{
	"rs": true, "inr": true, "upi": true, "ref": true, "refno": true, "debited": true, "credited": true,
	"acct": true, "account": true, "bank": true, "txn": true, "transaction": true, "your": true,
	"you": true, "the": true, "and": true, "for": true, "from": true, "with": true, "via": true,
	"has": true, "been": true, "avl": true, "bal": true, "balance": true, "info": true, "dear": true,
	"customer": true, "call": true, "not": true, "sms": true, "block": true, "card": true, "date": true,
	"vpa": true, "imps": true, "neft": true, "rtgs": true, "amt": true, "amount": true, "dated": true,
	"available": true, "limit": true, "lmt": true, "ist": true, "sent": true, "paid": true,
	"spent": true, "received": true, "withdrawn": true, "user": true, "trf": true, "p2m": true,
	"p2a": true, "was": true, "are": true, "this": true, "that": true, "dispute": true, "report": true,
}

// splitWords lowercases text and splits it on anything that is not a letter or digit.
func splitWords(text string) []string {
	text = normalize(text)
	if text == "" {
		return nil
	}

	var out []string
	for _, w := range tokenSeparator.Split(text, -1) {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// learnableTokens returns the distinct words of text that can carry category
// signal, in first-seen order. Short words, numbers, masked account numbers and
// banking boilerplate are dropped.
func learnableTokens(text string) []string {
	seen := make(map[string]bool)
	var out []string

	for _, w := range splitWords(text) {
		if utf8.RuneCountInString(w) < minTokenLen || isNumeric(w) || stopwords[w] || maskedAccount.MatchString(w) {
			continue
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func isNumeric(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
}
