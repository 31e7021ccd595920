package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/dedupe"
	"github.com/Veraticus/smsledger/internal/extract"
	"github.com/Veraticus/smsledger/internal/ingest"
	"github.com/spf13/cobra"
)

func ingestCmd() *cobra.Command {
	var (
		file         string
		since        string
		days         int
		batchSize    int
		dryRun       bool
		showRejected bool
		noProgress   bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import bank SMS from an inbox export",
		Long: `Read an inbox export (a JSON array or JSON lines of messages with id,
sender, body, timestamp and read fields), extract transactions, drop repeat
deliveries and transactions already in the ledger, and save the rest.

Re-running ingest over the same export is safe: nothing is saved twice.`,
		Example: `  smsledger ingest --file inbox.json
  smsledger ingest --file inbox.jsonl --days 30 --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseSince(since, days, time.Now())
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Transactions saved before the interrupt are kept.")
			ctx, stop := handler.HandleInterrupts(cmd.Context())
			defer stop()
			ctx = common.WithLogger(ctx, slog.Default().With("file", file))

			common.LogDebug("Starting ingest", common.Fields{
				"file":    file,
				"since":   from,
				"dry_run": dryRun,
			})

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			registry, err := loadRegistry()
			if err != nil {
				return err
			}
			policy, err := loadPolicy()
			if err != nil {
				return err
			}

			opts := ingest.Options{
				BatchSize: batchSize,
				DryRun:    dryRun,
			}
			if !noProgress {
				opts.Progress = cli.NewProgressBar(cmd.ErrOrStderr(), "Reading messages...")
			}

			pipeline := ingest.NewPipeline(
				ingest.NewFileSource(file),
				extract.New(registry),
				dedupe.New(policy.DedupeTolerance),
				store,
				opts,
			)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(cli.InboxIcon+" Ingesting "+file))

			report, err := pipeline.Run(ctx, from)
			if errors.Is(err, common.ErrNoMessages) {
				fmt.Fprintln(out, cli.FormatInfo("No messages to ingest"))
				return nil
			}
			if err != nil {
				if handler.WasInterrupted() {
					common.LogError(err, "Ingest interrupted", common.Fields{"file": file})
					return nil
				}
				return fmt.Errorf("ingest failed: %w", err)
			}

			fmt.Fprintln(out, cli.FormatIngestStats(report.Stats, dryRun))

			if showRejected && len(report.Rejections) > 0 {
				fmt.Fprintln(out, cli.FormatTitle("Rejected messages"))
				for _, rej := range report.Rejections {
					fmt.Fprintf(out, "  #%d %s: %v\n", rej.Index+1, rej.Sender, rej.Err.Reason)
				}
			}

			if dryRun && len(report.Fresh) > 0 {
				fmt.Fprintln(out, cli.FormatTitle("Would save"))
				for _, txn := range report.Fresh {
					fmt.Fprintln(out, cli.FormatTransactionRow(txn))
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "inbox export to read (required)")
	cmd.Flags().StringVar(&since, "since", "", "only messages received at or after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVarP(&days, "days", "d", 0, "only messages from the last N days")
	cmd.Flags().IntVar(&batchSize, "batch-size", 200, "transactions saved per database batch")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "extract and deduplicate without saving")
	cmd.Flags().BoolVar(&showRejected, "show-rejected", false, "list messages that produced no transaction")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
