package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage spending categories",
		Long:  `List, add, and delete the categories transactions are sorted into.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Long:  `Display all active categories with their keywords, in suggestion order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// Initialize storage with auto-migration
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No categories found. Use 'smsledger categories add' to create one."))
				return nil
			}

			names := make(map[int]string, len(categories))
			for _, cat := range categories {
				names[cat.ID] = cat.Name
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Parent"),
				headerStyle.Render("Keywords"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 16),
				strings.Repeat("-", 12),
				strings.Repeat("-", 40))

			for _, cat := range categories {
				parent := ""
				if cat.ParentID != nil {
					parent = names[*cat.ParentID]
				}
				keywords := strings.Join(cat.Keywords, ", ")
				if keywords == "" {
					keywords = cli.SubtleStyle.Render("(no keywords)")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", cat.ID, cat.Name, parent, keywords)
			}

			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		keywords string
		parent   string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Long: `Create a category. Keywords seed suggestions before any transaction has
been assigned to it. Adding a previously deleted name brings it back.`,
		Example: `  smsledger categories add pets --keywords "petsmart,vet,supertails"
  smsledger categories add coffee --parent food --keywords "starbucks,blue tokai"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var parentID *int
			if parent != "" {
				p, err := resolveCategory(ctx, store, parent)
				if err != nil {
					return fmt.Errorf("failed to find parent category %q: %w", parent, err)
				}
				parentID = &p.ID
			}

			category, err := store.CreateCategory(ctx, args[0], parseKeywords(keywords), parentID)
			if errors.Is(err, common.ErrDuplicateEntry) {
				return common.NewUserError(fmt.Sprintf("category %q already exists", args[0]), err)
			}
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created category %q (ID: %d)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&keywords, "keywords", "k", "", "comma separated keywords")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent category name or id")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name-or-id>",
		Short: "Delete a category",
		Long: `Delete a category. Transactions already assigned to it keep their
assignment, but it is no longer suggested or offered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := resolveCategory(ctx, store, args[0])
			if errors.Is(err, common.ErrNotFound) {
				return common.NewUserError(fmt.Sprintf("no category %q", args[0]), err)
			}
			if err != nil {
				return fmt.Errorf("failed to find category: %w", err)
			}

			if err := store.DeleteCategory(ctx, category.ID); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted category "+category.Name+" (ID: "+strconv.Itoa(category.ID)+")"))
			return nil
		},
	}
}
