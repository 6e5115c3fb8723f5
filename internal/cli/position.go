package cli

import (
	"github.com/spf13/cobra"

	"github.com/rustyeddy/posledger/config"
)

func newPositionCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "position",
		Short: "Show the latest position for the current agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := a.engine()
			if err != nil {
				return err
			}
			defer closer()

			st, err := config.LoadState(a.statePath())
			if err != nil {
				return err
			}
			if st.Signature == "" {
				return errNoState()
			}

			target := date
			if target == "" {
				target = st.TradingDate
			}
			if target == "" {
				return errNoState()
			}

			pos, lastID, err := eng.Position(st.Signature, target)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"agent":     st.Signature,
				"date":      target,
				"positions": pos,
				"last_id":   lastID,
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Trading date (defaults to the state file's date)")
	return cmd
}
