package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/posledger/config"
	"github.com/rustyeddy/posledger/market"
)

func newStateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show or set the current agent signature and trading date",
	}

	var signature, date string
	var resetTrade bool

	set := &cobra.Command{
		Use:   "set",
		Short: "Set the runtime state for subsequent buy/sell calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := config.LoadState(a.statePath())
			if err != nil {
				return err
			}

			if signature != "" {
				st.Signature = signature
			}
			if date != "" {
				if _, err := market.ParseDate(date); err != nil {
					return err
				}
				st.TradingDate = date
				// A new trading date starts with no trade recorded.
				st.IfTrade = false
			}
			if resetTrade {
				st.IfTrade = false
			}

			if st.Signature == "" || st.TradingDate == "" {
				return fmt.Errorf("both --signature and --date are required on first use")
			}
			if err := st.Save(a.statePath()); err != nil {
				return err
			}
			return printJSON(st)
		},
	}
	set.Flags().StringVar(&signature, "signature", "", "Agent signature")
	set.Flags().StringVar(&date, "date", "", "Trading date (YYYY-MM-DD)")
	set.Flags().BoolVar(&resetTrade, "reset-trade", false, "Clear the trade-occurred flag")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the runtime state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := config.LoadState(a.statePath())
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	}

	cmd.AddCommand(set, show)
	return cmd
}
