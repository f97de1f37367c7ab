package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chartjobs/internal/storage"
	logx "chartjobs/pkg/logx"
)

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent render completions from storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := appCtx.History(cmd.Context(), limit)
			if errors.Is(err, storage.ErrDisabled) {
				return fmt.Errorf("no storage configured (set storage.driver)")
			}
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("last %d completions", len(recs))))
			for _, r := range recs {
				res := status(true, fmt.Sprintf("%s %dB", r.Format, r.Bytes))
				if !r.OK() {
					res = status(false, r.Error)
				}
				fmt.Fprintln(w, strings.Join([]string{
					dimStyle.Render(logx.Stamp(r.At.Local())),
					fmt.Sprintf("%-12s pass %d", r.Job, r.Pass),
					fmt.Sprintf("%5dms", r.DurationMS),
					fmt.Sprintf("%3d pts", r.Points),
					res,
				}, "  "))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max rows (default storage.history_limit, then 20)")
	return cmd
}
