package market

// Timeframe is a candle interval in the feed's notation.
type Timeframe string

const (
	M1  Timeframe = "1m"
	M15 Timeframe = "15m"
	H1  Timeframe = "1h"
	H4  Timeframe = "4h"
	D1  Timeframe = "1d"
	W1  Timeframe = "1w"
)

// Bar is one OHLCV candle. Sequences of bars are always ordered
// oldest to newest.
type Bar struct {
	Date      string  `json:"date"` // calendar day, YYYY-MM-DD
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"` // bar open time, milliseconds
}

// FindBar returns the latest bar for the given date, scanning from the newest
// end of the window. ok is false when no bar matches.
func FindBar(bars []Bar, date string) (Bar, bool) {
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Date == date {
			return bars[i], true
		}
	}
	return Bar{}, false
}

// FindPrevious returns the bar immediately preceding the first bar for the
// given date. ok is false when the date is absent or has no predecessor.
func FindPrevious(bars []Bar, date string) (Bar, bool) {
	for i, bar := range bars {
		if bar.Date != date {
			continue
		}
		if i == 0 {
			return Bar{}, false
		}
		return bars[i-1], true
	}
	return Bar{}, false
}
