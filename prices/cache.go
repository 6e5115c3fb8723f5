// Package prices memoizes market-data fetches behind a TTL so settlement does
// not depend on the liveness of the upstream feed for every call.
package prices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/posledger/market"
)

// ErrQuoteUnavailable wraps upstream fetch failures. There is no fallback to
// stale data: once an entry is past its TTL the fetch must succeed.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// DefaultTTL is the expiry applied when no TTL is configured.
const DefaultTTL = 60 * time.Second

// Fetcher is the raw market-data source behind the cache.
type Fetcher interface {
	FetchTicker(ctx context.Context, symbol string) (market.Quote, error)
	FetchOHLCV(ctx context.Context, symbol string, timeframe market.Timeframe, limit int) ([]market.Bar, error)
}

type tickerEntry struct {
	at    time.Time
	quote market.Quote
}

type barsEntry struct {
	at   time.Time
	bars []market.Bar
}

// Cache memoizes ticker and OHLCV fetches per key with a time-based expiry.
// It is shared process-wide; concurrent refreshes of the same key may both
// fetch and the last write wins, which is fine because the values are
// idempotent reads of an external market.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	tickers map[string]tickerEntry
	ohlcv   map[string]barsEntry
}

func NewCache(f Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: f,
		ttl:     ttl,
		now:     time.Now,
		tickers: make(map[string]tickerEntry),
		ohlcv:   make(map[string]barsEntry),
	}
}

// SetClock overrides the time source. Tests use it to control expiry without
// real delays.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Quote returns the ticker for symbol, fetching only when the cached entry is
// missing or older than the TTL.
func (c *Cache) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	key := strings.ToUpper(symbol)

	c.mu.Lock()
	if e, ok := c.tickers[key]; ok && c.now().Sub(e.at) < c.ttl {
		c.mu.Unlock()
		return e.quote, nil
	}
	c.mu.Unlock()

	q, err := c.fetcher.FetchTicker(ctx, key)
	if err != nil {
		return market.Quote{}, fmt.Errorf("%w: ticker %s: %w", ErrQuoteUnavailable, key, err)
	}

	c.mu.Lock()
	c.tickers[key] = tickerEntry{at: c.now(), quote: q}
	c.mu.Unlock()
	return q, nil
}

// Bars returns up to limit candles for symbol at the given timeframe, oldest
// first, fetching only when the cached window is missing or expired.
func (c *Cache) Bars(ctx context.Context, symbol string, timeframe market.Timeframe, limit int) ([]market.Bar, error) {
	key := fmt.Sprintf("%s:%s:%d", strings.ToUpper(symbol), timeframe, limit)

	c.mu.Lock()
	if e, ok := c.ohlcv[key]; ok && c.now().Sub(e.at) < c.ttl {
		c.mu.Unlock()
		return e.bars, nil
	}
	c.mu.Unlock()

	bars, err := c.fetcher.FetchOHLCV(ctx, strings.ToUpper(symbol), timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: ohlcv %s: %w", ErrQuoteUnavailable, key, err)
	}

	c.mu.Lock()
	c.ohlcv[key] = barsEntry{at: c.now(), bars: bars}
	c.mu.Unlock()
	return bars, nil
}
