package commands

import (
	"time"

	"github.com/spf13/cobra"

	"chartjobs/internal/task/scheduler"
)

func batchCmd() *cobra.Command {
	var pool, jobs int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run one batch of render jobs and wait for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := appCtx.RunBatch(cmd.Context(), pool, jobs)
			if err != nil {
				return err
			}
			printBatch(cmd, rep)
			return nil
		},
	}
	cmd.Flags().IntVar(&pool, "pool", 0, "worker count (default batch.pool_size, then 5)")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "job count (default batch.jobs, then 2x pool)")
	return cmd
}

func printBatch(cmd *cobra.Command, rep scheduler.BatchReport) {
	state := status(true, "done")
	switch {
	case rep.TimedOut:
		state = status(false, "timed out")
	case rep.Interrupted:
		state = status(false, "interrupted")
	}
	printReport(cmd.OutOrStdout(), "batch", []kv{
		{"status", state},
		{"pool", rep.PoolSize},
		{"submitted", rep.Submitted},
		{"completed", rep.Completed},
		{"failed", rep.Failed},
		{"dropped", rep.Dropped},
		{"elapsed", rep.Elapsed.Round(time.Millisecond)},
	})
}
