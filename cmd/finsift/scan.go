package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/finsift/finsift/internal/cli"
	"github.com/finsift/finsift/internal/common"
	"github.com/finsift/finsift/internal/engine"
	"github.com/finsift/finsift/internal/model"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <messages.json>",
		Short: "Scan a batch of notification messages",
		Long: `Run the full pipeline over a JSON array of messages:

  [{"body": "...", "sender": "VM-HDFCBK", "device_timestamp": 1725955200000}, ...]

Messages are processed in chunks with a pause between them, and progress is
reported until the job finishes. Filtered and duplicate messages count as
successes; only extraction or validation failures count as failed.`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	cmd.Flags().Int("chunk-size", engine.DefaultChunkSize, "messages per chunk")
	cmd.Flags().Duration("delay", engine.DefaultChunkDelay, "pause between chunks")
	cmd.Flags().Bool("deep", false, "use the inference-backed deep strategy")

	return cmd
}

func loadMessages(path string) ([]model.IncomingMessage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return nil, common.NewUserError("failed to read messages file", err)
	}

	var msgs []model.IncomingMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, common.NewUserError("failed to parse messages file", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("messages file %s is empty", path)
	}

	now := time.Now().UnixMilli()
	for i := range msgs {
		if msgs[i].DeviceTimestamp == 0 {
			msgs[i].DeviceTimestamp = now
		}
	}

	return msgs, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	delay, _ := cmd.Flags().GetDuration("delay")
	deep, _ := cmd.Flags().GetBool("deep")

	msgs, err := loadMessages(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	eng, store, client, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeAll(store, client)

	jobID, err := eng.StartBatch(ctx, currentUserID(), msgs, engine.BatchOptions{
		ChunkSize:  chunkSize,
		ChunkDelay: delay,
		UseDeep:    deep,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Scanning %d messages (job %s)", len(msgs), jobID)))

	bar := progressbar.NewOptions(len(msgs),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Processing messages...[reset]"),
	)

	job, err := pollJob(cmd, eng, jobID, bar)
	if err != nil {
		return err
	}

	printJobSummary(cmd, job)

	if job.Status == model.JobFailed {
		return fmt.Errorf("scan failed: %s", job.Error)
	}
	return nil
}

// pollJob watches a job until it reaches a terminal state. Polling reads
// snapshots only; it never blocks the worker.
func pollJob(cmd *cobra.Command, eng *engine.Engine, jobID string, bar *progressbar.ProgressBar) (*model.BatchJob, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			return nil, cmd.Context().Err()
		case <-ticker.C:
			job, err := eng.GetJob(jobID)
			if err != nil {
				return nil, err
			}
			_ = bar.Set(job.Processed)

			if job.Terminal() {
				_ = bar.Finish()
				fmt.Fprintln(cmd.ErrOrStderr())
				return job, nil
			}
		}
	}
}

func printJobSummary(cmd *cobra.Command, job *model.BatchJob) {
	out := cmd.OutOrStdout()

	status := cli.SuccessStyle.Render(string(job.Status))
	if job.Status == model.JobFailed {
		status = cli.ErrorStyle.Render(string(job.Status))
	}

	fmt.Fprintf(out, "%s %s\n", cli.LabelStyle.Render("Status"), status)
	fmt.Fprintf(out, "%s %d\n", cli.LabelStyle.Render("Total"), job.Total)
	fmt.Fprintf(out, "%s %d\n", cli.LabelStyle.Render("Processed"), job.Processed)
	fmt.Fprintf(out, "%s %d\n", cli.LabelStyle.Render("Succeeded"), job.Succeeded)
	fmt.Fprintf(out, "%s %d\n", cli.LabelStyle.Render("Failed"), job.Failed)

	for _, item := range job.Items {
		switch {
		case !item.Success:
			fmt.Fprintf(out, "%s %s: %s\n",
				cli.ErrorStyle.Render(cli.ErrorIcon),
				truncate(item.Message.Body, 60),
				item.ErrorReason)
		case item.ErrorReason != "":
			fmt.Fprintf(out, "%s %s: %s\n",
				cli.SubtleStyle.Render(cli.SkipIcon),
				truncate(item.Message.Body, 60),
				item.ErrorReason)
		}
	}
}

// truncate shortens to n runes, never splitting a multi-byte character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
