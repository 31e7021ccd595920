package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/smsledger/internal/bank"
	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/spf13/cobra"
)

func banksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banks",
		Short: "Inspect the bank registry",
		Long: `Show the banks smsledger recognizes and how a sender identity resolves.
Extra banks or rule overrides can be added with a YAML file at registry.path.`,
	}

	cmd.AddCommand(listBanksCmd())
	cmd.AddCommand(resolveBankCmd())

	return cmd
}

func listBanksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known banks and their sender aliases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := loadRegistry()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("Bank"),
				headerStyle.Render("Name"),
				headerStyle.Render("Rules"),
				headerStyle.Render("Aliases"))
			for _, b := range registry.Banks() {
				rules := "generic"
				if registry.HasOverride(b.CanonicalName) {
					rules = "override"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.CanonicalName, b.DisplayName, rules, strings.Join(b.Aliases, ", "))
			}
			return nil
		},
	}
}

func resolveBankCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "resolve <sender>...",
		Short:   "Show which bank a sender identity belongs to",
		Example: `  smsledger banks resolve VM-HDFCBK JD-SBIINB-S`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, sender := range args {
				fmt.Fprintln(out, formatResolution(sender, registry.Resolve(sender)))
			}
			return nil
		},
	}
}

func formatResolution(sender string, r bank.Resolution) string {
	if !r.Known {
		return cli.FormatWarning(fmt.Sprintf("%s: unknown sender, generic rules", sender))
	}

	rules := "generic rules"
	if _, ok := r.Rules.(bank.Override); ok {
		rules = "override rules"
	}
	return cli.FormatSuccess(fmt.Sprintf("%s: %s (%s, %s match, %s)",
		sender, r.Bank.DisplayName, r.Bank.CanonicalName, r.MatchedBy, rules))
}
