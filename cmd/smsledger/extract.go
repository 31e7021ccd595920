package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/extract"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/spf13/cobra"
)

func extractCmd() *cobra.Command {
	var (
		sender   string
		body     string
		received string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a transaction from a single message",
		Long: `Run one message through the extractor and show the transaction it yields,
or why it was rejected. Nothing is saved. The body is read from stdin when
--body is not given.`,
		Example: `  smsledger extract --sender VM-HDFCBK --body "Rs.500 debited from a/c XX1234 to SWIGGY"
  echo "INR 1,200.00 credited to A/c XX9876" | smsledger extract --sender AX-SBIINB`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if body == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read message body: %w", err)
				}
				body = strings.TrimSpace(string(data))
			}

			timestamp := time.Now()
			if received != "" {
				t, err := time.Parse(time.RFC3339, received)
				if err != nil {
					return common.NewUserError(fmt.Sprintf("invalid --time %q, use RFC3339", received), err)
				}
				timestamp = t
			}

			registry, err := loadRegistry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			resolution := registry.Resolve(sender)
			if resolution.Known {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Sender %s is %s (%s match)",
					sender, resolution.Bank.DisplayName, resolution.MatchedBy)))
			} else {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Sender %s is not a known bank, using generic rules", sender)))
			}

			txn, err := extract.New(registry).Extract(model.RawMessage{
				Sender:    sender,
				Body:      body,
				Timestamp: timestamp,
			})
			var rejection *extract.Rejection
			if errors.As(err, &rejection) {
				fmt.Fprintln(out, cli.FormatError("Rejected: "+rejection.Reason.Error()))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.RenderBox("Transaction", cli.FormatTransaction(txn)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sender, "sender", "s", "", "sender identity, e.g. VM-HDFCBK (required)")
	cmd.Flags().StringVarP(&body, "body", "b", "", "message body (default: read from stdin)")
	cmd.Flags().StringVar(&received, "time", "", "time the message was received (RFC3339, default: now)")
	_ = cmd.MarkFlagRequired("sender")

	return cmd
}
