// Package settle is the transactional core: it serializes settlement per
// agent, validates sufficiency against the fill price, and appends the
// resulting snapshot to the ledger.
package settle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/posledger/exchange"
	"github.com/rustyeddy/posledger/journal"
	"github.com/rustyeddy/posledger/ledger"
	"github.com/rustyeddy/posledger/market"
	"github.com/rustyeddy/posledger/pkg/id"
)

// DefaultPair is the traded pair when none is configured.
const DefaultPair = "BTC/USDT"

// Options configure an Engine beyond its two hard dependencies.
type Options struct {
	Pair    string          // venue pair, e.g. "BTC/USDT"
	Journal journal.Journal // optional settlement journal, written best-effort
	Logger  *zap.Logger
}

// Outcome reports a committed settlement.
type Outcome struct {
	Positions ledger.Position
	Record    ledger.Record
	Fill      exchange.Fill
}

// Engine settles buy/sell orders against the ledger under per-agent mutual
// exclusion.
type Engine struct {
	store   *ledger.Store
	gateway *exchange.Gateway
	jrnl    journal.Journal
	locks   *lockTable
	pair    string
	symbol  string // base symbol credited in positions, e.g. "BTC"
	log     *zap.Logger
}

func NewEngine(store *ledger.Store, gw *exchange.Gateway, opts Options) *Engine {
	pair := opts.Pair
	if pair == "" {
		pair = DefaultPair
	}
	symbol := pair
	if i := strings.IndexByte(pair, '/'); i >= 0 {
		symbol = pair[:i]
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		store:   store,
		gateway: gw,
		jrnl:    opts.Journal,
		locks:   newLockTable(),
		pair:    pair,
		symbol:  strings.ToUpper(symbol),
		log:     log,
	}
}

// Symbol returns the base symbol this engine trades.
func (e *Engine) Symbol() string { return e.symbol }

// Position returns the agent's latest snapshot for the date (with the traded
// symbol and cash keys present) and the id of the record it came from.
func (e *Engine) Position(agent, date string) (ledger.Position, int, error) {
	pos, lastID, err := e.store.Latest(agent, date)
	if err != nil {
		return nil, -1, err
	}
	pos = pos.Clone()
	pos.Ensure(ledger.Cash, e.symbol)
	return pos, lastID, nil
}

// Settle runs one order through the state machine: validate the amount, lock
// the agent (the in-process mutex plus the ledger's file lock, so concurrent
// processes over one data dir serialize too), load the latest snapshot,
// execute, validate sufficiency against the fill price, append the new
// snapshot, and release the locks on every exit path. Sufficiency is judged against the price carried in the fill, so in
// live mode there is a window where the venue's actual fill can differ from
// the validated price. Known race, deliberately kept: the recorded fill price
// is the ground truth, never recomputed later.
func (e *Engine) Settle(ctx context.Context, agent, date string, side exchange.Side, amount float64) (Outcome, error) {
	if amount <= 0 {
		return Outcome{}, &InvalidAmountError{Amount: amount}
	}
	if err := side.Validate(); err != nil {
		return Outcome{}, err
	}
	if _, err := market.ParseDate(date); err != nil {
		return Outcome{}, err
	}

	lock := e.locks.get(agent)
	lock.Lock()
	defer lock.Unlock()

	unlock, err := e.store.Lock(agent)
	if err != nil {
		return Outcome{}, err
	}
	defer unlock()

	pos, lastID, err := e.store.Latest(agent, date)
	if err != nil {
		return Outcome{}, err
	}
	if len(pos) == 0 {
		pos = ledger.Position{ledger.Cash: 0, e.symbol: 0}
	} else {
		pos = pos.Clone()
		pos.Ensure(ledger.Cash, e.symbol)
	}

	fill, err := e.gateway.Execute(ctx, exchange.OrderRequest{
		Symbol: e.pair,
		Side:   side,
		Amount: amount,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("execute order: %w", err)
	}

	switch side {
	case exchange.Buy:
		required := fill.FillPrice * amount
		if pos[ledger.Cash]-required < 0 {
			return Outcome{}, &InsufficientCashError{Required: required, Available: pos[ledger.Cash]}
		}
		pos[ledger.Cash] -= required
		pos[e.symbol] += amount
	case exchange.Sell:
		held := pos[e.symbol]
		if held < amount {
			return Outcome{}, &InsufficientHoldingsError{Symbol: e.symbol, Held: held, Attempted: amount}
		}
		pos[e.symbol] = held - amount
		pos[ledger.Cash] += fill.FillPrice * amount
	}

	rawFill, err := json.Marshal(fill)
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal fill: %w", err)
	}

	rec := ledger.Record{
		Date: date,
		ID:   lastID + 1,
		ThisAction: ledger.Action{
			Name:      string(side),
			Symbol:    e.symbol,
			Amount:    amount,
			FillPrice: fill.FillPrice,
		},
		Positions: pos,
		Order:     rawFill,
	}
	if err := e.store.Append(agent, rec); err != nil {
		return Outcome{}, err
	}

	e.journal(journal.Entry{
		EntryID:   id.New(),
		Agent:     agent,
		Date:      date,
		Action:    string(side),
		Symbol:    e.symbol,
		Amount:    amount,
		FillPrice: fill.FillPrice,
		Cash:      pos[ledger.Cash],
		Holding:   pos[e.symbol],
		Time:      time.Now().UTC(),
	})

	e.log.Info("settlement committed",
		zap.String("agent", agent),
		zap.String("date", date),
		zap.String("side", string(side)),
		zap.Float64("amount", amount),
		zap.Float64("fill_price", fill.FillPrice),
		zap.Int("record_id", rec.ID),
	)

	return Outcome{Positions: pos, Record: rec, Fill: fill}, nil
}

// RecordNoTrade marks a day without settlement under the agent's lock.
func (e *Engine) RecordNoTrade(agent, date string) (ledger.Record, error) {
	if _, err := market.ParseDate(date); err != nil {
		return ledger.Record{}, err
	}

	lock := e.locks.get(agent)
	lock.Lock()
	defer lock.Unlock()

	unlock, err := e.store.Lock(agent)
	if err != nil {
		return ledger.Record{}, err
	}
	defer unlock()

	rec, err := e.store.RecordNoTrade(agent, date)
	if err != nil {
		return ledger.Record{}, err
	}

	e.journal(journal.Entry{
		EntryID: id.New(),
		Agent:   agent,
		Date:    date,
		Action:  ledger.ActionNoTrade,
		Symbol:  e.symbol,
		Cash:    rec.Positions[ledger.Cash],
		Holding: rec.Positions[e.symbol],
		Time:    time.Now().UTC(),
	})
	return rec, nil
}

// journal mirrors a committed settlement into the secondary journal. The
// ledger append is the sole durability point, so a journal failure is logged
// and otherwise ignored.
func (e *Engine) journal(entry journal.Entry) {
	if e.jrnl == nil {
		return
	}
	if err := e.jrnl.RecordSettlement(entry); err != nil {
		e.log.Warn("journal write failed",
			zap.String("agent", entry.Agent),
			zap.String("date", entry.Date),
			zap.Error(err),
		)
	}
}
