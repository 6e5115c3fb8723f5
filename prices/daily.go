package prices

import (
	"context"

	"github.com/rustyeddy/posledger/market"
)

// Daily answers calendar-day price questions over a cached bar window for one
// configured symbol/timeframe/limit triple.
type Daily struct {
	cache     *Cache
	symbol    string
	timeframe market.Timeframe
	limit     int
}

func NewDaily(c *Cache, symbol string, timeframe market.Timeframe, limit int) *Daily {
	return &Daily{cache: c, symbol: symbol, timeframe: timeframe, limit: limit}
}

// Snapshot bundles what is known about one trading day.
type Snapshot struct {
	Date   string      `json:"date"`
	Symbol string      `json:"symbol"`
	Price  *float64    `json:"price"` // daily open; nil when the day is absent
	Bar    *market.Bar `json:"ohlcv,omitempty"`
}

func (d *Daily) bars(ctx context.Context) ([]market.Bar, error) {
	return d.cache.Bars(ctx, d.symbol, d.timeframe, d.limit)
}

// OpenPrice returns the open for the given date. ok is false when the bar
// window carries no bar for that day.
func (d *Daily) OpenPrice(ctx context.Context, date string) (float64, bool, error) {
	bars, err := d.bars(ctx)
	if err != nil {
		return 0, false, err
	}
	bar, ok := market.FindBar(bars, date)
	if !ok {
		return 0, false, nil
	}
	return bar.Open, true, nil
}

// PrevOpenClose returns the open and close of the bar preceding the given
// date: the reference prices for buying and selling at the day boundary. When
// the date has no predecessor in the window both values come from the date's
// own bar.
func (d *Daily) PrevOpenClose(ctx context.Context, date string) (open, clos float64, ok bool, err error) {
	bars, err := d.bars(ctx)
	if err != nil {
		return 0, 0, false, err
	}
	target, found := market.FindBar(bars, date)
	if !found {
		return 0, 0, false, nil
	}
	prev, found := market.FindPrevious(bars, date)
	if !found {
		prev = target
	}
	return prev.Open, prev.Close, true, nil
}

// Snapshot returns the daily open plus the full OHLCV bar for the date.
func (d *Daily) Snapshot(ctx context.Context, date string) (Snapshot, error) {
	snap := Snapshot{Date: date, Symbol: d.symbol}
	bars, err := d.bars(ctx)
	if err != nil {
		return snap, err
	}
	bar, ok := market.FindBar(bars, date)
	if !ok {
		return snap, nil
	}
	snap.Price = &bar.Open
	snap.Bar = &bar
	return snap, nil
}
