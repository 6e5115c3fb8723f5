// Package hyperliquid is a minimal REST client for the Hyperliquid exchange,
// covering the market-data reads and order submission the settlement core
// needs.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/posledger/exchange"
	"github.com/rustyeddy/posledger/market"
)

const (
	// MainnetURL is the production API endpoint.
	MainnetURL = "https://api.hyperliquid.xyz"
	// TestnetURL is the sandbox API endpoint.
	TestnetURL = "https://api.hyperliquid-testnet.xyz"
)

// Signer authorizes exchange actions. Credential handling is an external
// input; the client only forwards what the signer produces.
type Signer interface {
	Sign(action json.RawMessage, nonce int64) (json.RawMessage, error)
}

// Client talks to the Hyperliquid info and exchange endpoints. It implements
// prices.Fetcher and exchange.Venue.
type Client struct {
	baseURL    string
	signer     Signer
	httpClient *http.Client
}

// NewClient builds a client against mainnet or testnet. signer may be nil for
// read-only (paper mode) use.
func NewClient(signer Signer, testnet bool) *Client {
	baseURL := MainnetURL
	if testnet {
		baseURL = TestnetURL
	}
	return &Client{
		baseURL: baseURL,
		signer:  signer,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// coin extracts the venue coin name from a pair like "BTC/USDT".
func coin(symbol string) string {
	if i := strings.IndexByte(symbol, '/'); i >= 0 {
		return symbol[:i]
	}
	return symbol
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FetchTicker resolves the current mid price for the symbol's coin from the
// allMids snapshot.
func (c *Client) FetchTicker(ctx context.Context, symbol string) (market.Quote, error) {
	var mids map[string]string
	if err := c.post(ctx, "/info", map[string]any{"type": "allMids"}, &mids); err != nil {
		return market.Quote{}, err
	}

	name := coin(symbol)
	raw, ok := mids[name]
	if !ok {
		return market.Quote{}, fmt.Errorf("no mid price for %s", name)
	}
	px, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return market.Quote{}, fmt.Errorf("parse mid price %q: %w", raw, err)
	}

	return market.Quote{
		Symbol:    symbol,
		Last:      px,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// apiCandle is one row of a candleSnapshot response.
type apiCandle struct {
	OpenTime  int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Coin      string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Trades    int    `json:"n"`
}

// FetchOHLCV fetches up to limit candles, oldest first.
func (c *Client) FetchOHLCV(ctx context.Context, symbol string, timeframe market.Timeframe, limit int) ([]market.Bar, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	span, err := intervalDuration(timeframe)
	if err != nil {
		return nil, err
	}

	end := time.Now()
	start := end.Add(-time.Duration(limit) * span)

	payload := map[string]any{
		"type": "candleSnapshot",
		"req": map[string]any{
			"coin":      coin(symbol),
			"interval":  string(timeframe),
			"startTime": start.UnixMilli(),
			"endTime":   end.UnixMilli(),
		},
	}

	var rows []apiCandle
	if err := c.post(ctx, "/info", payload, &rows); err != nil {
		return nil, err
	}

	bars := make([]market.Bar, 0, len(rows))
	for _, row := range rows {
		bar, err := row.toBar()
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func (a apiCandle) toBar() (market.Bar, error) {
	var bar market.Bar
	var err error

	if bar.Open, err = parseFloat(a.Open); err != nil {
		return bar, fmt.Errorf("parse open: %w", err)
	}
	if bar.High, err = parseFloat(a.High); err != nil {
		return bar, fmt.Errorf("parse high: %w", err)
	}
	if bar.Low, err = parseFloat(a.Low); err != nil {
		return bar, fmt.Errorf("parse low: %w", err)
	}
	if bar.Close, err = parseFloat(a.Close); err != nil {
		return bar, fmt.Errorf("parse close: %w", err)
	}
	if bar.Volume, err = parseFloat(a.Volume); err != nil {
		return bar, fmt.Errorf("parse volume: %w", err)
	}

	bar.Timestamp = a.OpenTime
	bar.Date = time.UnixMilli(a.OpenTime).UTC().Format(market.DateLayout)
	return bar, nil
}

// CreateOrder submits a market or limit order through the exchange endpoint.
// A nil price submits an aggressive IoC order, the venue's market-order idiom.
func (c *Client) CreateOrder(ctx context.Context, symbol, orderType string, side exchange.Side, amount float64, price *float64) (json.RawMessage, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("no signer configured for live orders")
	}

	order := map[string]any{
		"coin":   coin(symbol),
		"is_buy": side == exchange.Buy,
		"sz":     strconv.FormatFloat(amount, 'f', -1, 64),
	}
	if price != nil {
		order["limit_px"] = strconv.FormatFloat(*price, 'f', -1, 64)
		order["order_type"] = map[string]any{"limit": map[string]any{"tif": "Gtc"}}
	} else {
		order["order_type"] = map[string]any{"limit": map[string]any{"tif": "Ioc"}}
	}

	action, err := json.Marshal(map[string]any{
		"type":   "order",
		"orders": []any{order},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order action: %w", err)
	}

	nonce := time.Now().UnixMilli()
	signature, err := c.signer.Sign(action, nonce)
	if err != nil {
		return nil, fmt.Errorf("sign order: %w", err)
	}

	payload := map[string]any{
		"action":    json.RawMessage(action),
		"nonce":     nonce,
		"signature": signature,
	}

	var raw json.RawMessage
	if err := c.post(ctx, "/exchange", payload, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func intervalDuration(tf market.Timeframe) (time.Duration, error) {
	switch tf {
	case market.M1:
		return time.Minute, nil
	case market.M15:
		return 15 * time.Minute, nil
	case market.H1:
		return time.Hour, nil
	case market.H4:
		return 4 * time.Hour, nil
	case market.D1:
		return 24 * time.Hour, nil
	case market.W1:
		return 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported timeframe %q", string(tf))
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
