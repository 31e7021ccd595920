package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/smsledger/internal/ingest"
	"github.com/Veraticus/smsledger/internal/model"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{amount: "0", want: "₹0.00"},
		{amount: "5", want: "₹5.00"},
		{amount: "999.5", want: "₹999.50"},
		{amount: "1000", want: "₹1,000.00"},
		{amount: "12345.678", want: "₹12,345.68"},
		{amount: "100000", want: "₹1,00,000.00"},
		{amount: "123456", want: "₹1,23,456.00"},
		{amount: "9999999.999", want: "₹1,00,00,000.00"},
		{amount: "1234567.89", want: "₹12,34,567.89"},
		{amount: "123456789", want: "₹12,34,56,789.00"},
		{amount: "-1500", want: "-₹1,500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestFormatTransaction(t *testing.T) {
	balance := decimal.RequireFromString("10000")
	txn := model.Transaction{
		ExternalID:      "sms-1",
		Amount:          decimal.RequireFromString("500"),
		Direction:       model.DirectionDebit,
		Merchant:        "SWIGGY",
		AccountSuffix:   "1234",
		Bank:            "HDFC",
		ReferenceNumber: "123456789012",
		PaymentMethod:   model.PaymentUPI,
		BalanceAfter:    &balance,
		SenderIdentity:  "VM-HDFCBK",
		RawText:         "Rs.500 debited",
		Timestamp:       time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC),
	}

	out := FormatTransaction(txn)
	assert.Contains(t, out, "sms-1")
	assert.Contains(t, out, "-₹500.00")
	assert.Contains(t, out, "UPI")
	assert.Contains(t, out, "SWIGGY")
	assert.Contains(t, out, "XX1234")
	assert.Contains(t, out, "HDFC")
	assert.Contains(t, out, "123456789012")
	assert.Contains(t, out, "₹10,000.00")
	assert.Contains(t, out, "Rs.500 debited")
	assert.NotContains(t, out, "UPI ID:", "absent fields are skipped")
	assert.NotContains(t, out, "Location:")
}

func TestFormatTransactionRow(t *testing.T) {
	txn := model.Transaction{
		ExternalID: "sms-2",
		Amount:     decimal.RequireFromString("1000"),
		Direction:  model.DirectionCredit,
		UPIID:      "john.doe@okaxis",
		Timestamp:  time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
	}

	row := FormatTransactionRow(txn)
	assert.Contains(t, row, "+₹1,000.00")
	assert.Contains(t, row, "john.doe@okaxis")
	assert.Contains(t, row, "sms-2")
}

func TestFormatSuggestions(t *testing.T) {
	assert.Contains(t, FormatSuggestions(nil), "no suggestions")

	out := FormatSuggestions(model.CategorySuggestions{
		{Category: model.Category{ID: 1, Name: "food"}, Confidence: 0.82, Reason: "keywords: restaurant"},
		{Category: model.Category{ID: 2, Name: "shopping"}, Confidence: 0.1, Reason: "learned from: order"},
	})
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "food")
	assert.Contains(t, out, "82%")
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "keywords: restaurant")
	assert.Contains(t, out, "2. ")
	assert.Contains(t, out, "LOW")
}

func TestFormatIngestStats(t *testing.T) {
	noAmount := errors.New("no amount found")
	empty := errors.New("empty message body")
	stats := ingest.Stats{
		Messages:        10,
		Extracted:       6,
		Rejected:        4,
		BatchDuplicates: 1,
		KnownDuplicates: 2,
		Saved:           3,
		Rejections:      map[error]int{noAmount: 3, empty: 1},
	}

	out := FormatIngestStats(stats, false)
	assert.Contains(t, out, "Messages read:      10")
	assert.Contains(t, out, "Already stored:     2")
	assert.Contains(t, out, "Saved:")
	assert.Less(t, strings.Index(out, "no amount found"), strings.Index(out, "empty message body"), "most common reason first")

	dry := FormatIngestStats(stats, true)
	assert.Contains(t, dry, "Dry run")
}

func TestSortedReasons(t *testing.T) {
	a, b, c := errors.New("a"), errors.New("b"), errors.New("c")
	got := sortedReasons(map[error]int{a: 1, b: 5, c: 1})
	assert.Equal(t, []error{b, a, c}, got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
