// Package journal keeps a queryable secondary record of committed
// settlements. The JSONL ledger stays the source of truth; the journal exists
// for reporting and CLI queries and is written best-effort.
package journal

import "time"

// Entry is one committed settlement (or no-trade marker).
type Entry struct {
	EntryID   string
	Agent     string
	Date      string // trading date, YYYY-MM-DD
	Action    string // buy, sell or no_trade
	Symbol    string
	Amount    float64
	FillPrice float64
	Cash      float64 // cash balance after the settlement
	Holding   float64 // asset balance after the settlement
	Time      time.Time
}

type Journal interface {
	RecordSettlement(Entry) error
	Close() error
}
