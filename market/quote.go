package market

import "errors"

// ErrNoPrice is returned when a quote carries no usable price field.
var ErrNoPrice = errors.New("no last price available")

// Quote is a normalized ticker snapshot for a single symbol as reported by a
// price feed. Zero-valued fields mean the feed did not report them.
type Quote struct {
	Symbol    string
	Last      float64
	Close     float64
	Bid       float64
	Ask       float64
	Info      map[string]float64 // provider-specific extras, e.g. "lastPrice"
	Timestamp int64              // feed timestamp, milliseconds
}

// LastPrice resolves the tradable price from the quote: the last trade price,
// falling back to the close, then to the provider-specific "lastPrice" field.
func (q Quote) LastPrice() (float64, error) {
	if q.Last > 0 {
		return q.Last, nil
	}
	if q.Close > 0 {
		return q.Close, nil
	}
	if px, ok := q.Info["lastPrice"]; ok && px > 0 {
		return px, nil
	}
	return 0, ErrNoPrice
}
