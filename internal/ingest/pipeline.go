package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/dedupe"
	"github.com/Veraticus/smsledger/internal/extract"
	"github.com/Veraticus/smsledger/internal/model"
)

const defaultBatchSize = 200

// Store is the part of storage the pipeline writes through.
type Store interface {
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	FindDuplicateCandidates(ctx context.Context, txn model.Transaction, tolerance time.Duration) ([]model.Transaction, error)
}

// Progress receives message-level progress of a run.
type Progress interface {
	Start(total int)
	Advance(n int)
	Finish()
}

// Options tunes a pipeline.
type Options struct {
	Progress  Progress
	Retry     common.RetryOptions
	BatchSize int
	DryRun    bool // Extract and deduplicate but save nothing
}

// Stats counts what happened to the messages of one run.
type Stats struct {
	Rejections      map[error]int // Rejected messages per reason
	Messages        int
	Extracted       int
	Rejected        int
	BatchDuplicates int // Repeats within this run
	KnownDuplicates int // Repeats of already stored transactions
	Saved           int
	Duration        time.Duration
}

// Report is the outcome of a run.
type Report struct {
	Fresh      []model.Transaction // Transactions that were new, saved unless dry run
	Rejections []extract.RejectedMessage
	Duplicates []dedupe.Duplicate // Known duplicates, with the stored transaction they repeat
	Stats      Stats
}

// Pipeline moves messages from a source through extraction and deduplication
// into a store.
type Pipeline struct {
	source    MessageSource
	extractor *extract.Extractor
	deduper   *dedupe.Engine
	store     Store
	opts      Options
}

// NewPipeline wires a pipeline together.
func NewPipeline(source MessageSource, extractor *extract.Extractor, deduper *dedupe.Engine, store Store, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Pipeline{
		source:    source,
		extractor: extractor,
		deduper:   deduper,
		store:     store,
		opts:      opts,
	}
}

// Run ingests every message received at or after since.
func (p *Pipeline) Run(ctx context.Context, since time.Time) (*Report, error) {
	start := time.Now()
	report := &Report{}

	messages, err := p.source.Messages(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	report.Stats.Messages = len(messages)
	if len(messages) == 0 {
		return report, common.ErrNoMessages
	}

	p.startProgress(len(messages))
	defer p.finishProgress()

	extracted, err := p.extract(ctx, messages, report)
	if err != nil {
		return report, err
	}

	unique := p.deduper.Dedupe(extracted)
	report.Stats.BatchDuplicates = len(extracted) - len(unique)

	fresh, err := p.filterKnown(ctx, unique, report)
	if err != nil {
		return report, err
	}
	report.Fresh = fresh

	if !p.opts.DryRun {
		if err := p.save(ctx, fresh, report); err != nil {
			return report, err
		}
	}

	report.Stats.Duration = time.Since(start)
	common.LoggerFrom(ctx).Info("Ingest finished",
		"messages", report.Stats.Messages,
		"extracted", report.Stats.Extracted,
		"rejected", report.Stats.Rejected,
		"batch_duplicates", report.Stats.BatchDuplicates,
		"known_duplicates", report.Stats.KnownDuplicates,
		"saved", report.Stats.Saved,
		"dry_run", p.opts.DryRun)

	return report, nil
}

func (p *Pipeline) extract(ctx context.Context, messages []model.RawMessage, report *Report) ([]model.Transaction, error) {
	extracted := make([]model.Transaction, 0, len(messages))
	report.Stats.Rejections = make(map[error]int)

	for offset := 0; offset < len(messages); offset += p.opts.BatchSize {
		end := min(offset+p.opts.BatchSize, len(messages))

		result, err := p.extractor.ExtractBatch(ctx, messages[offset:end])
		if err != nil {
			return nil, fmt.Errorf("extraction interrupted: %w", err)
		}

		for _, rej := range result.Rejections {
			rej.Index += offset
			report.Rejections = append(report.Rejections, rej)
		}
		for reason, n := range result.RejectionsByReason() {
			report.Stats.Rejections[reason] += n
		}
		extracted = append(extracted, result.Transactions...)
		p.advance(end - offset)
	}

	report.Stats.Extracted = len(extracted)
	report.Stats.Rejected = len(report.Rejections)
	return extracted, nil
}

// filterKnown drops transactions the store already holds.
func (p *Pipeline) filterKnown(ctx context.Context, txns []model.Transaction, report *Report) ([]model.Transaction, error) {
	fresh := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates, err := p.store.FindDuplicateCandidates(ctx, txn, p.deduper.Tolerance())
		if err != nil {
			return nil, fmt.Errorf("failed to look up duplicates of %s: %w", txn.ExternalID, err)
		}

		if existing, ok := p.deduper.FindDuplicate(txn, candidates); ok {
			common.LoggerFrom(ctx).Debug("Skipping known transaction",
				"external_id", txn.ExternalID,
				"existing", existing.ExternalID)
			report.Duplicates = append(report.Duplicates, dedupe.Duplicate{Candidate: txn, Existing: existing})
			continue
		}
		fresh = append(fresh, txn)
	}

	report.Stats.KnownDuplicates = len(report.Duplicates)
	return fresh, nil
}

func (p *Pipeline) save(ctx context.Context, txns []model.Transaction, report *Report) error {
	for offset := 0; offset < len(txns); offset += p.opts.BatchSize {
		end := min(offset+p.opts.BatchSize, len(txns))
		chunk := txns[offset:end]

		var inserted int
		err := common.WithRetry(ctx, func() error {
			n, err := p.store.SaveTransactions(ctx, chunk)
			inserted = n
			return err
		}, p.opts.Retry)
		if err != nil {
			if errors.Is(err, common.ErrMaxRetries) {
				return fmt.Errorf("database stayed busy while saving: %w", err)
			}
			return fmt.Errorf("failed to save transactions: %w", err)
		}
		report.Stats.Saved += inserted
	}
	return nil
}

func (p *Pipeline) startProgress(total int) {
	if p.opts.Progress != nil {
		p.opts.Progress.Start(total)
	}
}

func (p *Pipeline) advance(n int) {
	if p.opts.Progress != nil {
		p.opts.Progress.Advance(n)
	}
}

func (p *Pipeline) finishProgress() {
	if p.opts.Progress != nil {
		p.opts.Progress.Finish()
	}
}
