package commands

import (
	"github.com/spf13/cobra"

	"chartjobs/internal/task/scheduler"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run a batch now and again whenever the config file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return appCtx.Watch(cmd.Context(), func(rep scheduler.BatchReport) {
				printBatch(cmd, rep)
			})
		},
	}
}
