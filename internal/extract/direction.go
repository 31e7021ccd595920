package extract

import (
	"regexp"
	"strings"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

type directionKeywords struct {
	re        *regexp.Regexp
	direction model.Direction
}

var (
	// Explicit verbs are checked before the bare debit/credit nouns, which also
	// show up in phrases like "Credit Card XX1234".
	strongDirectionKeywords = []directionKeywords{
		{direction: model.DirectionDebit, re: common.MustCompileInsensitive(
			`\b(?:debited|withdrawn|withdrawal|spent|paid|sent|deducted|purchased?|charged)\b`)},
		{direction: model.DirectionCredit, re: common.MustCompileInsensitive(
			`\b(?:credited|received|deposited|refunded|refund|reversed|cashback)\b`)},
	}
	weakDirectionKeywords = []directionKeywords{
		{direction: model.DirectionDebit, re: common.MustCompileInsensitive(`\b(?:debit|dr)\b`)},
		{direction: model.DirectionCredit, re: common.MustCompileInsensitive(`\b(?:credit|cr)\b`)},
	}
	cardPhrase = common.MustCompileInsensitive(`\b(?:credit|debit)\s+card\b`)
)

// ClassifyDirection returns the direction of the earliest directional keyword in
// text. Text without any directional keyword is Unknown; it is never guessed.
func ClassifyDirection(text string) model.Direction {
	if d := earliest(strongDirectionKeywords, text); d != model.DirectionUnknown {
		return d
	}

	masked := cardPhrase.ReplaceAllStringFunc(text, func(s string) string {
		return strings.Repeat(" ", len(s))
	})
	return earliest(weakDirectionKeywords, masked)
}

func earliest(keywords []directionKeywords, text string) model.Direction {
	best := -1
	direction := model.DirectionUnknown

	for _, kw := range keywords {
		loc := kw.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if best < 0 || loc[0] < best {
			best = loc[0]
			direction = kw.direction
		}
	}

	return direction
}

type paymentMethodPattern struct {
	re     *regexp.Regexp
	method string
}

// Checked in order; the first hit names the payment method.
var paymentMethodPatterns = []paymentMethodPattern{
	{method: model.PaymentUPI, re: common.MustCompileInsensitive(`\bupi\b|\bvpa\b`)},
	{method: model.PaymentIMPS, re: common.MustCompileInsensitive(`\bimps\b`)},
	{method: model.PaymentNEFT, re: common.MustCompileInsensitive(`\bneft\b`)},
	{method: model.PaymentRTGS, re: common.MustCompileInsensitive(`\brtgs\b`)},
	{method: model.PaymentAutoDebit, re: common.MustCompileInsensitive(`\bauto[\s\-]?debit\b|\bnach\b|\becs\b|\bmandate\b`)},
	{method: model.PaymentATM, re: common.MustCompileInsensitive(`\batm\b|\bcash\s+withdrawal\b`)},
	{method: model.PaymentCard, re: common.MustCompileInsensitive(`\bcard\b|\bpos\b`)},
	{method: model.PaymentNetBanking, re: common.MustCompileInsensitive(`\bnet\s*banking\b|\binternet\s+banking\b`)},
	{method: model.PaymentCheque, re: common.MustCompileInsensitive(`\bch(?:e)?q(?:ue)?\b|\bcheque\b`)},
}

// DetectPaymentMethod names the payment rail mentioned in text, or "" if none is.
func DetectPaymentMethod(text string) string {
	for _, p := range paymentMethodPatterns {
		if p.re.MatchString(text) {
			return p.method
		}
	}
	return ""
}
