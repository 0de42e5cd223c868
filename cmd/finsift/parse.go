package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsift/finsift/internal/cli"
	"github.com/finsift/finsift/internal/engine"
	"github.com/finsift/finsift/internal/model"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <message>",
		Short: "Parse a single notification message",
		Long: `Classify one message and, if it looks like a transaction, extract and
record it. Filtered and duplicate messages are reported as such; they are
expected outcomes, not errors.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}

	cmd.Flags().String("sender", "", "sender ID the message arrived from")
	cmd.Flags().Int64("timestamp", 0, "device receipt time in epoch milliseconds (default: now)")
	cmd.Flags().Bool("deep", false, "use the inference-backed deep strategy")
	cmd.Flags().Bool("force", false, "re-parse even if the message was already recorded")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	sender, _ := cmd.Flags().GetString("sender")
	timestamp, _ := cmd.Flags().GetInt64("timestamp")
	deep, _ := cmd.Flags().GetBool("deep")
	force, _ := cmd.Flags().GetBool("force")

	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	ctx := cmd.Context()

	eng, store, client, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeAll(store, client)

	msg := model.IncomingMessage{
		Body:            args[0],
		Sender:          sender,
		DeviceTimestamp: timestamp,
	}

	outcome, err := eng.ProcessMessage(ctx, currentUserID(), msg, engine.Options{
		UseDeep: deep,
		Force:   force,
		// The interactive path gives uncertain messages the benefit of
		// the doubt; bulk scans do not.
		AttemptUncertain: true,
	})
	if err != nil {
		return err
	}

	printOutcome(cmd, outcome)
	return nil
}

func printOutcome(cmd *cobra.Command, outcome engine.Outcome) {
	out := cmd.OutOrStdout()

	switch outcome.Status {
	case engine.StatusRecorded:
		fmt.Fprintln(out, cli.SuccessStyle.Render(cli.SuccessIcon+" Transaction recorded"))
		printResult(cmd, outcome.Result)
		fmt.Fprintf(out, "%s %s\n", cli.LabelStyle.Render("Record ID"), outcome.RecordID)

	case engine.StatusFiltered:
		fmt.Fprintln(out, cli.SubtleStyle.Render(cli.SkipIcon+" Message filtered"))
		fmt.Fprintf(out, "%s %s (confidence %.2f)\n",
			cli.LabelStyle.Render("Reason"),
			outcome.Classification.Reason,
			outcome.Classification.Confidence)
		if len(outcome.Classification.MatchedKeywords) > 0 {
			fmt.Fprintf(out, "%s %v\n", cli.LabelStyle.Render("Matched"), outcome.Classification.MatchedKeywords)
		}

	case engine.StatusDuplicate:
		fmt.Fprintln(out, cli.WarningStyle.Render(cli.SkipIcon+" Already recorded"))
		if outcome.ExistingRecordID != "" {
			fmt.Fprintf(out, "%s %s\n", cli.LabelStyle.Render("Record ID"), outcome.ExistingRecordID)
		}

	case engine.StatusFailed:
		fmt.Fprintln(out, cli.ErrorStyle.Render(cli.ErrorIcon+" Extraction failed"))
		fmt.Fprintf(out, "%s %v\n", cli.LabelStyle.Render("Error"), outcome.Err)
	}
}

func printResult(cmd *cobra.Command, result *model.ExtractionResult) {
	if result == nil {
		return
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s %s\n", cli.LabelStyle.Render("Vendor"), cli.BoldStyle.Render(result.Vendor))
	fmt.Fprintf(out, "%s %s %s\n", cli.LabelStyle.Render("Amount"), result.Amount.StringFixed(2), result.Direction)
	fmt.Fprintf(out, "%s %s\n", cli.LabelStyle.Render("Date"), result.OccurredAt.Format("2006-01-02"))
	fmt.Fprintf(out, "%s %s\n", cli.LabelStyle.Render("Category"), result.Category)
	if result.PaymentMethod != "" {
		fmt.Fprintf(out, "%s %s\n", cli.LabelStyle.Render("Method"), result.PaymentMethod)
	}
	if result.CardLastFour != "" {
		fmt.Fprintf(out, "%s **%s\n", cli.LabelStyle.Render("Card"), result.CardLastFour)
	}
	if result.UPIReference != "" {
		fmt.Fprintf(out, "%s %s\n", cli.LabelStyle.Render("UPI Ref"), result.UPIReference)
	}
	if result.IsSubscription {
		fmt.Fprintf(out, "%s %s\n", cli.LabelStyle.Render("Subscription"), result.SubscriptionService)
	}
	fmt.Fprintf(out, "%s %.2f\n", cli.LabelStyle.Render("Confidence"), result.Confidence)
}
