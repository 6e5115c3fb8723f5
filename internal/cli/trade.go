package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/posledger/exchange"
	"github.com/rustyeddy/posledger/settle"
)

func newBuyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "buy AMOUNT",
		Short: "Buy the configured asset for the current agent and date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrade(a, cmd, exchange.Buy, args[0])
		},
	}
}

func newSellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sell AMOUNT",
		Short: "Sell the configured asset for the current agent and date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrade(a, cmd, exchange.Sell, args[0])
		},
	}
}

func runTrade(a *app, cmd *cobra.Command, side exchange.Side, rawAmount string) error {
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil {
		return err
	}

	eng, closer, err := a.engine()
	if err != nil {
		return err
	}
	defer closer()

	sess, st, err := a.session(eng)
	if err != nil {
		return err
	}

	var pos any
	if side == exchange.Buy {
		pos, err = sess.Buy(cmd.Context(), amount)
	} else {
		pos, err = sess.Sell(cmd.Context(), amount)
	}
	if err != nil {
		// Business-rule rejections are results for the caller, not command
		// failures; anything else aborts the settlement.
		if payload, ok := rejectionPayload(err); ok {
			return printJSON(payload)
		}
		return err
	}

	st.IfTrade = true
	if err := st.Save(a.statePath()); err != nil {
		return err
	}
	return printJSON(pos)
}

// rejectionPayload converts a typed settlement rejection into the structured
// error document the orchestration layer expects.
func rejectionPayload(err error) (map[string]any, bool) {
	var invalid *settle.InvalidAmountError
	if errors.As(err, &invalid) {
		return map[string]any{
			"error":  "amount must be positive",
			"amount": invalid.Amount,
		}, true
	}

	var cash *settle.InsufficientCashError
	if errors.As(err, &cash) {
		return map[string]any{
			"error":          "insufficient cash",
			"required_cash":  cash.Required,
			"cash_available": cash.Available,
		}, true
	}

	var held *settle.InsufficientHoldingsError
	if errors.As(err, &held) {
		return map[string]any{
			"error":     "insufficient holdings to sell",
			"symbol":    held.Symbol,
			"holding":   held.Held,
			"attempted": held.Attempted,
		}, true
	}

	return nil, false
}

func newNoTradeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "no-trade",
		Short: "Record a no-trade day for the current agent and date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := a.engine()
			if err != nil {
				return err
			}
			defer closer()

			sess, st, err := a.session(eng)
			if err != nil {
				return err
			}

			// The state flag carries trade-occurred across invocations;
			// a fresh session only knows about its own settlements.
			if st.IfTrade {
				return printJSON(map[string]any{"recorded": false})
			}

			rec, recorded, err := sess.CloseDay(cmd.Context())
			if err != nil {
				return err
			}
			if !recorded {
				return printJSON(map[string]any{"recorded": false})
			}
			return printJSON(rec)
		},
	}
}
