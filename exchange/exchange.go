// Package exchange abstracts order execution over either a simulated (paper)
// path or a real trading venue, returning a normalized fill record either way.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rustyeddy/posledger/market"
	"github.com/rustyeddy/posledger/pkg/id"
	"github.com/rustyeddy/posledger/prices"
)

// Mode selects the execution path. It is an external input: the gateway never
// decides it.
type Mode string

const (
	Paper Mode = "paper"
	Live  Mode = "live"
)

func (m Mode) Validate() error {
	switch m {
	case Paper, Live:
		return nil
	}
	return fmt.Errorf("unknown trade mode %q", string(m))
}

// Side is the order direction.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func (s Side) Validate() error {
	switch s {
	case Buy, Sell:
		return nil
	}
	return fmt.Errorf("unknown order side %q", string(s))
}

// OrderRequest describes one order to execute.
type OrderRequest struct {
	Symbol    string
	Side      Side
	Amount    float64
	OrderType string   // defaults to "market"
	Price     *float64 // explicit price; overrides the live quote in paper mode
}

// Fill is the normalized record of an executed (or simulated) order. It is
// embedded verbatim into the ledger record that commits the settlement.
type Fill struct {
	Mode      Mode            `json:"mode"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Amount    float64         `json:"amount"`
	FillPrice float64         `json:"fill_price"`
	OrderType string          `json:"order_type,omitempty"`
	TradeID   string          `json:"trade_id,omitempty"`
	Timestamp int64           `json:"timestamp"`       // milliseconds
	Order     json.RawMessage `json:"order,omitempty"` // raw venue response, live only
}

// Venue submits orders to a real trading backend.
type Venue interface {
	CreateOrder(ctx context.Context, symbol, orderType string, side Side, amount float64, price *float64) (json.RawMessage, error)
}

// Gateway routes orders to the paper simulator or the configured venue.
// Prices come from the shared quote cache in both modes.
type Gateway struct {
	mode  Mode
	cache *prices.Cache
	venue Venue
	now   func() time.Time
}

// NewGateway builds a gateway. venue may be nil in paper mode.
func NewGateway(mode Mode, cache *prices.Cache, venue Venue) (*Gateway, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if mode == Live && venue == nil {
		return nil, fmt.Errorf("live mode requires a venue")
	}
	return &Gateway{mode: mode, cache: cache, venue: venue, now: time.Now}, nil
}

func (g *Gateway) Mode() Mode { return g.mode }

// SetClock overrides the fill timestamp source for tests.
func (g *Gateway) SetClock(now func() time.Time) { g.now = now }

// LastPrice resolves the current tradable price for symbol from the most
// recent quote.
func (g *Gateway) LastPrice(ctx context.Context, symbol string) (float64, error) {
	q, err := g.cache.Quote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	px, err := q.LastPrice()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", symbol, market.ErrNoPrice)
	}
	return px, nil
}

// Execute runs one order. In paper mode it synthesizes a deterministic fill at
// the explicit price (or the latest quote) without touching any venue. In live
// mode it submits the order and attaches the raw venue response; FillPrice
// still carries the pre-trade quote, which is what sufficiency validation
// uses even though a live venue may fill at a different price. The recorded
// fill price is the ground truth for the ledger either way.
func (g *Gateway) Execute(ctx context.Context, req OrderRequest) (Fill, error) {
	if err := req.Side.Validate(); err != nil {
		return Fill{}, err
	}
	if req.OrderType == "" {
		req.OrderType = "market"
	}

	px := 0.0
	if req.Price != nil {
		px = *req.Price
	} else {
		var err error
		px, err = g.LastPrice(ctx, req.Symbol)
		if err != nil {
			return Fill{}, err
		}
	}

	fill := Fill{
		Mode:      Paper,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Amount:    req.Amount,
		FillPrice: px,
		OrderType: req.OrderType,
		TradeID:   id.New(),
		Timestamp: g.now().UnixMilli(),
	}

	if g.mode != Live {
		return fill, nil
	}

	raw, err := g.venue.CreateOrder(ctx, req.Symbol, req.OrderType, req.Side, req.Amount, req.Price)
	if err != nil {
		return Fill{}, fmt.Errorf("submit %s %s: %w", req.Side, req.Symbol, err)
	}
	fill.Mode = Live
	fill.Order = raw
	return fill, nil
}
