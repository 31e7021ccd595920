package main

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/suggest"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func suggestCmd() *cobra.Command {
	var (
		uncategorized bool
		limit         int
		maxResults    int
	)

	cmd := &cobra.Command{
		Use:   "suggest [ID...]",
		Short: "Suggest categories for transactions",
		Long: `Rank the most likely categories for the given transactions, or for every
transaction that has no category yet when --uncategorized is set. Suggestions
learn from the categories you have already assigned.`,
		Example: `  smsledger suggest 6f1c0e2a-...
  smsledger suggest --uncategorized --limit 10 --max 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !uncategorized {
				return common.NewUserError("give transaction ids or --uncategorized", common.ErrMissingConfig)
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var txns []model.Transaction
			if uncategorized {
				txns, err = store.GetUncategorizedTransactions(ctx, limit)
				if err != nil {
					return fmt.Errorf("failed to get uncategorized transactions: %w", err)
				}
			}
			for _, id := range args {
				txn, err := store.GetTransactionByID(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get transaction %s: %w", id, err)
				}
				txns = append(txns, *txn)
			}

			out := cmd.OutOrStdout()
			if len(txns) == 0 {
				fmt.Fprintln(out, cli.FormatSuccess("Every transaction has a category"))
				return nil
			}

			engine, err := newSuggestionEngine(ctx, store)
			if err != nil {
				return err
			}

			results, err := suggestAll(ctx, engine, txns, maxResults)
			if err != nil {
				return err
			}
			for i, txn := range txns {
				printSuggestions(out, txn, results[i])
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&uncategorized, "uncategorized", "u", false, "suggest for every uncategorized transaction")
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "maximum uncategorized transactions to show (0 for all)")
	cmd.Flags().IntVarP(&maxResults, "max", "n", 0, "suggestions per transaction (default: suggest.max_suggestions)")

	return cmd
}

// suggestAll scores txns in parallel; results line up with txns.
func suggestAll(ctx context.Context, engine *suggest.Engine, txns []model.Transaction, limit int) ([]model.CategorySuggestions, error) {
	results := make([]model.CategorySuggestions, len(txns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range txns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = engine.Suggest(gctx, txns[i], limit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printSuggestions(out io.Writer, txn model.Transaction, suggestions model.CategorySuggestions) {
	fmt.Fprintln(out, cli.FormatTransactionRow(txn))
	fmt.Fprintln(out, cli.FormatSuggestions(suggestions))
	fmt.Fprintln(out)
}
