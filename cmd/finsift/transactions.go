package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsift/finsift/internal/cli"
	"github.com/finsift/finsift/internal/model"
	"github.com/finsift/finsift/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "List recorded transactions",
		RunE:    runTransactions,
	}

	cmd.Flags().String("category", "", "only show transactions in this category")
	cmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Int("limit", 50, "maximum number of transactions to show")

	return cmd
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	category, _ := cmd.Flags().GetString("category")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := service.TransactionFilter{
		Category: category,
		Limit:    limit,
	}

	if from != "" {
		start, err := time.Parse("2006-01-02", from)
		if err != nil {
			return fmt.Errorf("invalid --from date %q: %w", from, err)
		}
		filter.StartDate = &start
	}
	if to != "" {
		end, err := time.Parse("2006-01-02", to)
		if err != nil {
			return fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		filter.EndDate = &end
	}

	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	results, err := store.ListTransactions(ctx, currentUserID(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, cli.SubtleStyle.Render("No transactions found."))
		return nil
	}

	for _, r := range results {
		marker := "-"
		if r.Direction == model.DirectionCredit {
			marker = "+"
		}
		fmt.Fprintf(out, "%s  %s%s  %-30s %s\n",
			r.OccurredAt.Format("2006-01-02"),
			marker,
			r.Amount.StringFixed(2),
			truncate(r.Vendor, 30),
			cli.SubtleStyle.Render(r.Category))
	}
	fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("%d transaction(s)", len(results))))

	return nil
}
