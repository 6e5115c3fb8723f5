package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func errNoState() error {
	return fmt.Errorf("signature or trading date not set; run 'posd state set' first")
}

func newPriceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "price DATE",
		Short: "Show the daily OHLCV snapshot for a date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.daily()
			if err != nil {
				return err
			}
			snap, err := d.Snapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(snap)
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Snapshot the recent candle window to the history directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.daily()
			if err != nil {
				return err
			}
			path, err := d.SnapshotHistory(cmd.Context(), a.cfg.Ledger.HistoryDir)
			if err != nil {
				return err
			}
			return printJSON(map[string]string{"path": path})
		},
	}
}
