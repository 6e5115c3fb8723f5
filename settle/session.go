package settle

import (
	"context"
	"sync"

	"github.com/rustyeddy/posledger/exchange"
	"github.com/rustyeddy/posledger/ledger"
)

// Session binds an engine to one agent and trading date — the two context
// values the orchestration layer supplies — and tracks whether a trade
// occurred so the caller can close out the day.
type Session struct {
	engine *Engine
	agent  string
	date   string

	mu     sync.Mutex
	traded bool
}

func NewSession(e *Engine, agent, date string) *Session {
	return &Session{engine: e, agent: agent, date: date}
}

// Buy settles a buy for the session's agent and date.
func (s *Session) Buy(ctx context.Context, amount float64) (ledger.Position, error) {
	return s.settle(ctx, exchange.Buy, amount)
}

// Sell settles a sell for the session's agent and date.
func (s *Session) Sell(ctx context.Context, amount float64) (ledger.Position, error) {
	return s.settle(ctx, exchange.Sell, amount)
}

func (s *Session) settle(ctx context.Context, side exchange.Side, amount float64) (ledger.Position, error) {
	out, err := s.engine.Settle(ctx, s.agent, s.date, side, amount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.traded = true
	s.mu.Unlock()

	return out.Positions, nil
}

// Traded reports whether any settlement committed in this session.
func (s *Session) Traded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traded
}

// Position returns the latest snapshot for the session's date.
func (s *Session) Position() (ledger.Position, error) {
	pos, _, err := s.engine.Position(s.agent, s.date)
	return pos, err
}

// CloseDay appends a no-trade marker iff no settlement committed. recorded is
// false when the day already traded and the ledger was left alone.
func (s *Session) CloseDay(ctx context.Context) (rec ledger.Record, recorded bool, err error) {
	if s.Traded() {
		return ledger.Record{}, false, nil
	}
	rec, err = s.engine.RecordNoTrade(s.agent, s.date)
	if err != nil {
		return ledger.Record{}, false, err
	}
	return rec, true, nil
}
