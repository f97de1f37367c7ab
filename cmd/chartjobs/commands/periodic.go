package commands

import (
	"time"

	"github.com/spf13/cobra"
)

func periodicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "periodic",
		Short: "Run the periodic workload until its budget expires",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := appCtx.RunPeriodic(cmd.Context())
			if err != nil {
				return err
			}
			state := status(true, "budget reached")
			if rep.Interrupted {
				state = status(false, "interrupted")
			}
			printReport(cmd.OutOrStdout(), "periodic", []kv{
				{"status", state},
				{"runs", rep.Runs},
				{"cancelled", rep.Cancelled},
				{"dropped", rep.Dropped},
				{"elapsed", rep.Elapsed.Round(time.Millisecond)},
			})
			return nil
		},
	}
}
