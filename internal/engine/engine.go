package engine

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"hermes/internal/adapters/config"
	"hermes/internal/domain/balance"
	"hermes/internal/domain/position"
	"hermes/internal/metrics"
	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

// Engine owns the in-memory trading state: the price table, the position
// book and the balance ledger. All mutation happens under one mutex, so the
// stream loop and the periodic snapshot/sweep never interleave. Durable
// writes, callbacks and analytics events are fired on background goroutines
// and never block command processing.
type Engine struct {
	mu sync.Mutex

	prices *PriceTable
	book   *Book
	ledger *Ledger

	positions position.Repository
	callbacks CallbackSink
	events    EventSink
	ticks     TickRecorder

	collateral   string
	threshold    decimal.Decimal
	writeTimeout time.Duration

	processed  atomic.Int64
	liquidated atomic.Int64

	log *logger.Logger
}

// New constructs an engine with empty state.
func New(
	cfg config.EngineConfig,
	positions position.Repository,
	balances balance.Repository,
	callbacks CallbackSink,
	events EventSink,
	ticks TickRecorder,
) (*Engine, error) {
	threshold, err := decimal.NewFromString(cfg.LiquidationThreshold)
	if err != nil {
		return nil, errors.Wrap(err, "invalid liquidation threshold")
	}
	if callbacks == nil {
		callbacks = NopCallbackSink{}
	}
	if events == nil {
		events = NopEventSink{}
	}
	if ticks == nil {
		ticks = NopTickRecorder{}
	}

	return &Engine{
		prices:       NewPriceTable(),
		book:         NewBook(),
		ledger:       NewLedger(balances, cfg.WriteTimeout),
		positions:    positions,
		callbacks:    callbacks,
		events:       events,
		ticks:        ticks,
		collateral:   canonicalSymbol(cfg.CollateralSymbol),
		threshold:    threshold,
		writeTimeout: cfg.WriteTimeout,
		log:          logger.Get().With("component", "engine"),
	}, nil
}

// LoadState rebuilds the position book from durable storage and resets the
// balance ledger. Must complete before the first command is consumed.
func (e *Engine) LoadState(ctx context.Context) error {
	open, err := e.positions.GetOpen(ctx)
	if err != nil {
		return errors.Wrap(err, "load open positions")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.ledger.Reset()
	for _, p := range open {
		e.book.Insert(p)
	}
	metrics.OpenPositions.Set(float64(e.book.Len()))

	e.log.Infow("Engine state loaded", "open_positions", e.book.Len())
	return nil
}

// HandleEnvelope applies one command in log order. Malformed payloads are
// logged and skipped; business rejections surface as callbacks, never as
// errors.
func (e *Engine) HandleEnvelope(ctx context.Context, env Envelope) {
	e.mu.Lock()
	defer e.mu.Unlock()

	metrics.CommandsTotal.WithLabelValues(string(env.Kind)).Inc()
	e.processed.Add(1)

	switch env.Kind {
	case KindPriceUpdate:
		e.handlePriceUpdate(ctx, env)
	case KindCreateOrder:
		e.handleCreateOrder(ctx, env)
	case KindCloseOrder:
		e.handleCloseOrder(ctx, env)
	case KindBalanceUpdate:
		e.handleBalanceUpdate(env)
	default:
		e.log.Warnw("Skipping command of unknown kind", "kind", env.Kind, "id", env.ID)
	}
}

func (e *Engine) handlePriceUpdate(ctx context.Context, env Envelope) {
	var tick PriceUpdate
	if err := json.Unmarshal(env.Payload, &tick); err != nil || tick.Symbol == "" {
		e.log.Warnw("Skipping malformed price update", "id", env.ID, "error", err)
		return
	}

	bid := tick.Bid.Or(decimal.Zero)
	ask := tick.Ask.Or(decimal.Zero)
	if !e.prices.Update(tick.Symbol, bid, ask) {
		return
	}

	e.ticks.Record(Tick{
		Symbol: canonicalSymbol(tick.Symbol),
		Bid:    bid,
		Ask:    ask,
		Time:   time.Now().UTC(),
	})

	// Price is the most common liquidation trigger: scan the symbol before
	// the next log entry is consumed.
	e.scanSymbolLocked(ctx, tick.Symbol)
}

func (e *Engine) handleCloseOrder(ctx context.Context, env Envelope) {
	var req CloseOrder
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		e.log.Warnw("Skipping malformed close order", "id", env.ID, "error", err)
		return
	}
	if req.OrderID == "" {
		req.OrderID = env.ID
	}
	callbackID := env.ID
	if callbackID == "" {
		callbackID = req.OrderID
	}

	reason := position.ReasonManual
	if r := position.CloseReason(req.CloseReason); r.Valid() {
		reason = r
	}
	pnl := req.PnL.Or(decimal.Zero)

	p, ok := e.book.Get(req.OrderID)
	if !ok {
		// Already closed; acknowledge idempotently so the waiter unblocks.
		e.publishCallback(ctx, Callback{ID: callbackID, Status: StatusClosed, Reason: reason, PnL: &pnl})
		return
	}

	// The request layer already verified ownership and open status; the
	// engine trusts it and performs the standard close sequence.
	closingPrice := decimal.Zero
	if quote, ok := e.prices.Get(p.Symbol); ok {
		closingPrice = quote.Bid
		if p.Side == position.SideShort {
			closingPrice = quote.Ask
		}
	}

	e.closeLocked(ctx, p, callbackID, closingPrice, pnl, reason)
}

func (e *Engine) handleBalanceUpdate(env Envelope) {
	var req BalanceUpdate
	if err := json.Unmarshal(env.Payload, &req); err != nil || req.UserID == "" || req.Symbol == "" {
		e.log.Warnw("Skipping malformed balance update", "id", env.ID, "error", err)
		return
	}

	// The durable row was already written by the request layer; only the
	// cache needs to track it.
	amount := decimal.New(req.NewBalance, -req.Decimals)
	e.ledger.SetCached(req.UserID, req.Symbol, amount)
}

// scanSymbolLocked evaluates every open position on one symbol against the
// side-appropriate price. Caller holds the engine mutex.
func (e *Engine) scanSymbolLocked(ctx context.Context, symbol string) {
	quote, ok := e.prices.Get(symbol)
	if !ok {
		return
	}

	for _, p := range e.book.BySymbol(symbol) {
		price := quote.Bid
		if p.Side == position.SideShort {
			price = quote.Ask
		}
		if d := Evaluate(p, price, e.threshold); d.Close {
			e.closeLocked(ctx, p, p.ID, price, d.PnL, d.Reason)
		}
	}
}

// Sweep runs a full liquidation pass across all open positions, covering
// symbols that have not ticked recently but still carry a valid price.
func (e *Engine) Sweep(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	closed := 0
	for _, p := range e.book.All() {
		quote, ok := e.prices.Get(p.Symbol)
		if !ok {
			continue
		}
		price := quote.Bid
		if p.Side == position.SideShort {
			price = quote.Ask
		}
		if d := Evaluate(p, price, e.threshold); d.Close {
			e.closeLocked(ctx, p, p.ID, price, d.PnL, d.Reason)
			closed++
		}
	}
	return closed
}

// SnapshotPositions persists a point-in-time PnL snapshot for every open
// position. The rows are written on one background goroutine so the engine
// mutex is released before any I/O happens.
func (e *Engine) SnapshotPositions(ctx context.Context) int {
	type pnlRow struct {
		id    string
		price decimal.Decimal
		pnl   decimal.Decimal
	}

	e.mu.Lock()
	var rows []pnlRow
	for _, p := range e.book.All() {
		quote, ok := e.prices.Get(p.Symbol)
		if !ok {
			continue
		}
		price := quote.Bid
		if p.Side == position.SideShort {
			price = quote.Ask
		}
		rows = append(rows, pnlRow{id: p.ID, price: price, pnl: p.PnL(price)})
	}
	e.mu.Unlock()

	if len(rows) == 0 {
		return 0
	}

	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.writeTimeout)
		defer cancel()

		for _, row := range rows {
			if err := e.positions.UpdatePnL(writeCtx, row.id, row.price, row.pnl); err != nil {
				metrics.DurableWriteFailures.WithLabelValues("position_snapshot").Inc()
				e.log.Errorw("Failed to persist position snapshot",
					"position_id", row.id, "error", err)
			}
		}
	}()

	return len(rows)
}

// closeLocked performs the shared close sequence: credit the ledger, persist
// the closure, publish the callback and the analytics event, and drop the
// position from the book. Caller holds the engine mutex. A position already
// removed is closed at most once.
func (e *Engine) closeLocked(ctx context.Context, p *position.Position, callbackID string, closingPrice, pnl decimal.Decimal, reason position.CloseReason) {
	if !e.book.Remove(p.ID) {
		return
	}

	credit := CloseCredit(p.InitialMargin(), pnl, reason)
	current := e.ledger.Get(p.UserID, e.collateral, nil)
	e.ledger.Set(ctx, p.UserID, e.collateral, current.Add(credit))

	closedAt := time.Now().UTC()
	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.writeTimeout)
		defer cancel()

		if err := e.positions.Close(writeCtx, p.ID, closingPrice, pnl, reason, closedAt); err != nil {
			metrics.DurableWriteFailures.WithLabelValues("position_close").Inc()
			e.log.Errorw("Failed to persist position closure",
				"position_id", p.ID, "error", err)
		}
		if err := e.events.PositionClosed(writeCtx, p, closingPrice, pnl, reason); err != nil {
			e.log.Errorw("Failed to publish position-closed event",
				"position_id", p.ID, "error", err)
		}
	}()

	closedPnL := pnl
	e.publishCallback(ctx, Callback{ID: callbackID, Status: StatusClosed, Reason: reason, PnL: &closedPnL})

	metrics.PositionsClosed.WithLabelValues(string(reason)).Inc()
	metrics.OpenPositions.Set(float64(e.book.Len()))
	if reason == position.ReasonMargin || reason == position.ReasonLiquidation {
		e.liquidated.Add(1)
	}

	e.log.Infow("Position closed",
		"position_id", p.ID,
		"user_id", p.UserID,
		"symbol", p.Symbol,
		"reason", reason,
		"pnl", pnl,
		"credit", credit,
	)
}

// publishCallback hands a callback to the sink on a background goroutine.
// Late or duplicate callbacks are dropped by the waiter, so failures here
// are logged and forgotten.
func (e *Engine) publishCallback(ctx context.Context, cb Callback) {
	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.writeTimeout)
		defer cancel()

		if err := e.callbacks.Publish(writeCtx, cb); err != nil {
			metrics.DurableWriteFailures.WithLabelValues("callback").Inc()
			e.log.Errorw("Failed to publish callback", "callback_id", cb.ID, "error", err)
		}
	}()
}

// Stats reports engine counters for the periodic status log.
type Stats struct {
	OpenPositions int
	Processed     int64
	Liquidated    int64
}

// Stats returns a consistent snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	open := e.book.Len()
	e.mu.Unlock()

	return Stats{
		OpenPositions: open,
		Processed:     e.processed.Load(),
		Liquidated:    e.liquidated.Load(),
	}
}
