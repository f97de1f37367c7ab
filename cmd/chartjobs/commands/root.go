package commands

import (
	"context"

	"github.com/spf13/cobra"

	"chartjobs/internal/app"
)

var (
	cfgPath string
	appCtx  *app.App
)

// Execute builds the command tree and runs it with ctx.
func Execute(ctx context.Context) error {
	err := newRootCmd().ExecuteContext(ctx)
	if appCtx != nil {
		_ = appCtx.Close()
		appCtx = nil
	}
	return err
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chartjobs",
		Short:        "Render chart datasets on a bounded job pool",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cfgPath)
			if err != nil {
				return err
			}
			appCtx = a
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "./chartjobs.yaml", "path to config (yaml or json)")

	root.AddCommand(batchCmd(), periodicCmd(), watchCmd(), historyCmd())
	return root
}
