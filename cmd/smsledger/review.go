package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	var (
		limit      int
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Categorize uncategorized transactions interactively",
		Long: `Walk through uncategorized transactions one at a time, accepting a
suggestion or choosing a category. Every answer is saved right away and
improves the suggestions for the transactions that follow.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Categories assigned so far are saved.")
			ctx, stop := handler.HandleInterrupts(cmd.Context())
			defer stop()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txns, err := store.GetUncategorizedTransactions(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to get uncategorized transactions: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(txns) == 0 {
				fmt.Fprintln(out, cli.FormatSuccess("Every transaction has a category"))
				return nil
			}

			catalog, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}
			engine, err := newSuggestionEngine(ctx, store)
			if err != nil {
				return err
			}

			prompter := cli.NewPrompter(cmd.InOrStdin(), out)
			prompter.SetTotal(len(txns))

			for _, txn := range txns {
				decision, err := prompter.Review(ctx, txn, engine.Suggest(ctx, txn, maxResults), catalog)
				if errors.Is(err, cli.ErrQuit) || handler.WasInterrupted() {
					break
				}
				if err != nil {
					return fmt.Errorf("review failed: %w", err)
				}
				if decision.Skipped() {
					continue
				}

				if err := assignCategory(ctx, store, engine, txn, decision.Category, decision.Source, decision.Confidence); err != nil {
					return err
				}
			}

			prompter.ShowCompletion()

			stats := prompter.Stats()
			common.LogInfo("Review finished", common.Fields{
				"reviewed":  stats.Reviewed,
				"accepted":  stats.Accepted,
				"corrected": stats.Corrected,
				"skipped":   stats.Skipped,
			})
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum transactions to review (0 for all)")
	cmd.Flags().IntVarP(&maxResults, "max", "n", 0, "suggestions per transaction (default: suggest.max_suggestions)")

	return cmd
}
