package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/Veraticus/smsledger/internal/suggest"
	"github.com/spf13/cobra"
)

func categorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize <transaction-id> <category>",
		Short: "Assign a category to a transaction",
		Long: `Assign a category, by name or id, to a transaction. The assignment is saved
and immediately teaches the suggestion engine, so similar transactions are
suggested the same category.`,
		Example: `  smsledger categorize 6f1c0e2a-... food`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransactionByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get transaction: %w", err)
			}
			category, err := resolveCategory(ctx, store, args[1])
			if err != nil {
				return fmt.Errorf("failed to find category %q: %w", args[1], err)
			}

			engine, err := newSuggestionEngine(ctx, store)
			if err != nil {
				return err
			}

			if err := assignCategory(ctx, store, engine, *txn, category, model.SourceUser, 1); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s → %s", txn.Description(), category.Name)))
			fmt.Fprintln(out, cli.BoldStyle.Render("Suggestions now:"))
			fmt.Fprintln(out, cli.FormatSuggestions(engine.Suggest(ctx, *txn, 0)))
			return nil
		},
	}
}

// assignCategory saves the categorization and feeds it to the engine.
func assignCategory(ctx context.Context, store service.Storage, engine *suggest.Engine, txn model.Transaction,
	category *model.Category, source model.CategorizationSource, confidence float64) error {
	err := store.SaveCategorization(ctx, &model.Categorization{
		Transaction:   txn,
		CategoryID:    category.ID,
		Source:        source,
		Confidence:    confidence,
		CategorizedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to save categorization: %w", err)
	}

	if err := engine.RecordCategorization(ctx, txn, category.ID); err != nil {
		return fmt.Errorf("failed to update suggestions: %w", err)
	}
	return nil
}
