package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
)

// ErrQuit is returned by Review when the user asks to stop reviewing.
var ErrQuit = errors.New("review stopped")

// Decision is the user's answer for one transaction. Category is nil when the
// transaction was skipped.
type Decision struct {
	Category   *model.Category
	Source     model.CategorizationSource
	Confidence float64
}

// Skipped reports whether the user left the transaction uncategorized.
func (d Decision) Skipped() bool {
	return d.Category == nil
}

// ReviewStats counts the decisions of a review session.
type ReviewStats struct {
	Duration  time.Duration
	Reviewed  int
	Accepted  int // Suggestions taken as offered
	Corrected int // Categories typed in by the user
	Skipped   int
}

// Prompter walks the user through categorizing transactions one at a time.
type Prompter struct {
	startTime time.Time
	writer    io.Writer
	reader    *LineReader
	progress  *ProgressBar
	stats     ReviewStats
	total     int
	statsMu   sync.RWMutex
}

// NewPrompter creates a prompter reading answers from reader.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader:    NewLineReader(reader),
		writer:    writer,
		startTime: time.Now(),
	}
}

// SetTotal enables a progress bar over total transactions.
func (p *Prompter) SetTotal(total int) {
	p.total = total
	p.progress = NewProgressBar(p.writer, "Reviewing transactions...")
	p.progress.Start(total)
}

// Review shows txn with its suggestions and asks for a category from catalog.
func (p *Prompter) Review(ctx context.Context, txn model.Transaction, suggestions model.CategorySuggestions, catalog []model.Category) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	content := FormatTransaction(txn) + "\n\n" + BoldStyle.Render("Suggestions:") + "\n" + FormatSuggestions(suggestions)
	if _, err := fmt.Fprintln(p.writer, RenderBox("Transaction Review: "+txn.Description(), content)); err != nil {
		return Decision{}, fmt.Errorf("failed to write transaction box: %w", err)
	}

	options := "  [1-" + strconv.Itoa(len(suggestions)) + "] Accept suggestion\n"
	if len(suggestions) == 0 {
		options = ""
	}
	options += "  [C] Choose category\n  [S] Skip\n  [Q] Quit"
	if _, err := fmt.Fprintln(p.writer, options); err != nil {
		return Decision{}, fmt.Errorf("failed to write options: %w", err)
	}

	decision, err := p.promptDecision(ctx, suggestions, catalog)
	if err != nil {
		return Decision{}, err
	}

	p.record(decision)
	return decision, nil
}

func (p *Prompter) promptDecision(ctx context.Context, suggestions model.CategorySuggestions, catalog []model.Category) (Decision, error) {
	for {
		choice, err := p.prompt(ctx, "Choice")
		if err != nil {
			return Decision{}, err
		}
		choice = strings.ToLower(choice)

		switch choice {
		case "s":
			return Decision{}, nil
		case "q":
			return Decision{}, ErrQuit
		case "c":
			cat, err := p.promptCategory(ctx, catalog)
			if err != nil {
				return Decision{}, err
			}
			return Decision{Category: cat, Source: model.SourceUser, Confidence: 1}, nil
		}

		if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(suggestions) {
			s := suggestions[n-1]
			cat := s.Category
			return Decision{Category: &cat, Source: model.SourceSuggestion, Confidence: s.Confidence}, nil
		}

		p.println(FormatError("Invalid choice. Please try again."))
	}
}

func (p *Prompter) promptCategory(ctx context.Context, catalog []model.Category) (*model.Category, error) {
	names := make([]string, len(catalog))
	for i, cat := range catalog {
		names[i] = cat.Name
	}
	p.println(FormatInfo("Categories: " + strings.Join(names, ", ")))

	for {
		name, err := p.prompt(ctx, "Enter category")
		if err != nil {
			return nil, err
		}
		if name == "" {
			p.println(FormatError("Category cannot be empty. Please try again."))
			continue
		}
		for i := range catalog {
			if strings.EqualFold(catalog[i].Name, name) {
				cat := catalog[i]
				return &cat, nil
			}
		}
		p.println(FormatError(fmt.Sprintf("Unknown category %q. Please try again.", name)))
	}
}

func (p *Prompter) prompt(ctx context.Context, label string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := p.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", ErrQuit
	}
	return line, err
}

func (p *Prompter) println(msg string) {
	if _, err := fmt.Fprintln(p.writer, msg); err != nil {
		slog.Warn("Failed to write message", "error", err)
	}
}

func (p *Prompter) record(d Decision) {
	p.statsMu.Lock()
	p.stats.Reviewed++
	switch {
	case d.Skipped():
		p.stats.Skipped++
	case d.Source == model.SourceSuggestion:
		p.stats.Accepted++
	default:
		p.stats.Corrected++
	}
	p.statsMu.Unlock()

	if p.progress != nil {
		p.progress.Advance(1)
	}
}

// Stats returns the counts so far.
func (p *Prompter) Stats() ReviewStats {
	p.statsMu.RLock()
	defer p.statsMu.RUnlock()

	stats := p.stats
	stats.Duration = time.Since(p.startTime)
	return stats
}

// ShowCompletion prints the session summary.
func (p *Prompter) ShowCompletion() {
	if p.progress != nil {
		p.progress.Finish()
	}

	stats := p.Stats()
	summary := fmt.Sprintf("%s Statistics:\n", ChartIcon) +
		fmt.Sprintf("  • Reviewed: %d\n", stats.Reviewed) +
		fmt.Sprintf("  • Accepted suggestions: %d\n", stats.Accepted) +
		fmt.Sprintf("  • Chosen by hand: %d\n", stats.Corrected) +
		fmt.Sprintf("  • Skipped: %d\n", stats.Skipped) +
		fmt.Sprintf("  • Time taken: %s", stats.Duration.Round(time.Second))

	p.println(RenderBox("Review Complete", summary))
}
