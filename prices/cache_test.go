package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/posledger/market"
)

// fakeFeed counts fetches and serves canned data or a failure.
type fakeFeed struct {
	tickerCalls int
	ohlcvCalls  int
	quote       market.Quote
	bars        []market.Bar
	err         error
}

func (f *fakeFeed) FetchTicker(ctx context.Context, symbol string) (market.Quote, error) {
	f.tickerCalls++
	if f.err != nil {
		return market.Quote{}, f.err
	}
	q := f.quote
	q.Symbol = symbol
	return q, nil
}

func (f *fakeFeed) FetchOHLCV(ctx context.Context, symbol string, timeframe market.Timeframe, limit int) ([]market.Bar, error) {
	f.ohlcvCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func TestQuoteCacheHit(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{quote: market.Quote{Last: 30000}}
	c := NewCache(feed, time.Minute)

	q1, err := c.Quote(context.Background(), "btc/usdt")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", q1.Symbol, "keys are upper-cased")

	q2, err := c.Quote(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, q1, q2)
	assert.Equal(t, 1, feed.tickerCalls, "second call must be served from cache")
}

func TestQuoteCacheExpiry(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{quote: market.Quote{Last: 30000}}
	c := NewCache(feed, time.Minute)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	_, err := c.Quote(context.Background(), "BTC/USDT")
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = c.Quote(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 1, feed.tickerCalls, "entry still inside TTL")

	now = now.Add(2 * time.Second)
	_, err = c.Quote(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 2, feed.tickerCalls, "expired entry must be refreshed")
}

func TestQuoteUpstreamFailure(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{err: errors.New("connection refused")}
	c := NewCache(feed, time.Minute)

	_, err := c.Quote(context.Background(), "BTC/USDT")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestUpstreamFailureKeepsRootCause(t *testing.T) {
	t.Parallel()

	// The wrap adds ErrQuoteUnavailable without burying the feed's own
	// error; callers still match the root cause, e.g. a context deadline.
	feed := &fakeFeed{err: context.DeadlineExceeded}
	c := NewCache(feed, time.Minute)

	_, err := c.Quote(context.Background(), "BTC/USDT")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = c.Bars(context.Background(), "BTC/USDT", market.D1, 30)
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNoStaleFallbackOnError(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{quote: market.Quote{Last: 30000}}
	c := NewCache(feed, time.Minute)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	_, err := c.Quote(context.Background(), "BTC/USDT")
	require.NoError(t, err)

	// Past the TTL the fetch must succeed; the stale entry is never served.
	feed.err = errors.New("feed down")
	now = now.Add(2 * time.Minute)

	_, err = c.Quote(context.Background(), "BTC/USDT")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestBarsCacheKeyedByRequest(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{bars: []market.Bar{{Date: "2024-03-01"}}}
	c := NewCache(feed, time.Minute)

	_, err := c.Bars(context.Background(), "BTC/USDT", market.D1, 365)
	require.NoError(t, err)
	_, err = c.Bars(context.Background(), "BTC/USDT", market.D1, 365)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.ohlcvCalls)

	// A different limit is a different key.
	_, err = c.Bars(context.Background(), "BTC/USDT", market.D1, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, feed.ohlcvCalls)
}

func TestDefaultTTLApplied(t *testing.T) {
	t.Parallel()

	c := NewCache(&fakeFeed{}, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
}
