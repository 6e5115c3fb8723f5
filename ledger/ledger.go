// Package ledger is the append-only, per-agent record of cash and asset
// holdings. The log is the single source of truth: records are never mutated
// or deleted, and the current position is always derived by scanning for the
// highest record id under the relevant date.
package ledger

import "encoding/json"

// Cash is the reserved pseudo-symbol for the cash balance.
const Cash = "CASH"

// Position maps asset symbols (including the Cash pseudo-symbol) to
// quantities.
type Position map[string]float64

// Clone returns an independent copy.
func (p Position) Clone() Position {
	out := make(Position, len(p))
	for sym, qty := range p {
		out[sym] = qty
	}
	return out
}

// Ensure adds any missing symbols with a zero quantity.
func (p Position) Ensure(symbols ...string) {
	for _, sym := range symbols {
		if _, ok := p[sym]; !ok {
			p[sym] = 0
		}
	}
}

// Action names.
const (
	ActionBuy     = "buy"
	ActionSell    = "sell"
	ActionNoTrade = "no_trade"
)

// Action is what produced a ledger record.
type Action struct {
	Name      string  `json:"action"`
	Symbol    string  `json:"symbol"`
	Amount    float64 `json:"amount"`
	FillPrice float64 `json:"fill_price,omitempty"`
}

// Record is one immutable ledger entry. IDs increase monotonically within a
// date and are assigned by the writer as previous-max-for-date + 1; they are
// not unique across dates.
type Record struct {
	Date       string          `json:"date"`
	ID         int             `json:"id"`
	ThisAction Action          `json:"this_action"`
	Positions  Position        `json:"positions"`
	Order      json.RawMessage `json:"order,omitempty"` // raw fill, absent for no-trade
}
