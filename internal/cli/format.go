package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Veraticus/smsledger/internal/ingest"
	"github.com/Veraticus/smsledger/internal/model"
)

const (
	rupee           = "₹"
	timestampFormat = "02 Jan 2006 15:04"
	rowDescWidth    = 28
)

var amountLocale = language.MustParse("en-IN")

// FormatAmount renders an amount in rupees with Indian digit grouping,
// e.g. ₹12,34,567.89.
func FormatAmount(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	p := message.NewPrinter(amountLocale)
	return sign + rupee + p.Sprintf("%v", number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
}

// FormatSignedAmount renders txn's amount with a sign for its direction.
func FormatSignedAmount(txn model.Transaction) string {
	text := FormatAmount(txn.Amount)
	switch txn.Direction {
	case model.DirectionDebit:
		text = "-" + text
	case model.DirectionCredit:
		text = "+" + text
	}
	return DirectionStyle(txn.Direction).Render(text)
}

// FormatTransaction renders the details of one transaction, skipping absent fields.
func FormatTransaction(txn model.Transaction) string {
	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "  %-10s %s\n", label+":", value)
	}

	line("ID", txn.ExternalID)
	line("When", txn.Timestamp.Local().Format(timestampFormat))
	amount := FormatSignedAmount(txn)
	if txn.PaymentMethod != "" {
		amount += SubtleStyle.Render(" via " + txn.PaymentMethod)
	}
	line("Amount", amount)
	line("Merchant", txn.Merchant)
	line("UPI ID", txn.UPIID)
	line("Location", txn.Location)
	account := ""
	if txn.AccountSuffix != "" {
		account = "XX" + txn.AccountSuffix
	}
	if txn.Bank != "" {
		account = strings.TrimSpace(account + " " + SubtleStyle.Render("("+txn.Bank+")"))
	}
	line("Account", account)
	line("Reference", txn.ReferenceNumber)
	if txn.BalanceAfter != nil {
		line("Balance", FormatAmount(*txn.BalanceAfter))
	}
	line("From", txn.SenderIdentity)
	line("Message", SubtleStyle.Render(txn.RawText))

	return strings.TrimRight(b.String(), "\n")
}

// FormatTransactionRow renders txn as one table row.
func FormatTransactionRow(txn model.Transaction) string {
	amount := lipgloss.NewStyle().Width(14).Align(lipgloss.Right).Render(FormatSignedAmount(txn))
	return strings.Join([]string{
		txn.Timestamp.Local().Format(timestampFormat),
		amount,
		TableCellStyle.Width(rowDescWidth).Render(truncate(txn.Description(), rowDescWidth-2)),
		SubtleStyle.Render(txn.ExternalID),
	}, "  ")
}

// FormatSuggestions renders ranked suggestions as a numbered list.
func FormatSuggestions(suggestions model.CategorySuggestions) string {
	if len(suggestions) == 0 {
		return SubtleStyle.Render("  no suggestions")
	}

	var lines []string
	for i, s := range suggestions {
		level := s.Level()
		lines = append(lines, fmt.Sprintf("  %d. %s %s %s  %s",
			i+1,
			TableCellStyle.Width(18).Render(BoldStyle.Render(s.Category.Name)),
			LevelStyle(level).Render(fmt.Sprintf("%3.0f%%", s.Confidence*100)),
			LevelStyle(level).Width(7).Render(string(level)),
			SubtleStyle.Render(s.Reason)))
	}
	return strings.Join(lines, "\n")
}

// FormatIngestStats summarizes an ingest run.
func FormatIngestStats(stats ingest.Stats, dryRun bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Messages read:      %d\n", InboxIcon, stats.Messages)
	fmt.Fprintf(&b, "  Transactions found: %d\n", stats.Extracted)
	fmt.Fprintf(&b, "  Not transactions:   %d\n", stats.Rejected)
	for _, reason := range sortedReasons(stats.Rejections) {
		fmt.Fprintf(&b, "    %s %s\n", SubtleStyle.Render(fmt.Sprintf("%4d", stats.Rejections[reason])), SubtleStyle.Render(reason.Error()))
	}
	fmt.Fprintf(&b, "  Repeated in batch:  %d\n", stats.BatchDuplicates)
	fmt.Fprintf(&b, "  Already stored:     %d\n", stats.KnownDuplicates)
	if dryRun {
		fmt.Fprintf(&b, "  %s", WarningStyle.Render("Dry run: nothing saved"))
	} else {
		fmt.Fprintf(&b, "  Saved:              %s", SuccessStyle.Render(fmt.Sprint(stats.Saved)))
	}
	if stats.Duration > 0 {
		fmt.Fprintf(&b, "\n  Took:               %s", stats.Duration.Round(time.Millisecond))
	}
	return b.String()
}

func sortedReasons(counts map[error]int) []error {
	reasons := make([]error, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool {
		if counts[reasons[i]] != counts[reasons[j]] {
			return counts[reasons[i]] > counts[reasons[j]]
		}
		return reasons[i].Error() < reasons[j].Error()
	})
	return reasons
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
