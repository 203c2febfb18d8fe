package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"hermes/internal/domain/position"
	"hermes/internal/metrics"
)

func (e *Engine) handleCreateOrder(ctx context.Context, env Envelope) {
	var req CreateOrder
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		e.log.Warnw("Malformed create order payload", "id", env.ID, "error", err)
		if env.ID != "" {
			e.reject(ctx, env.ID, StatusInvalidOrder)
		}
		return
	}
	if req.ID == "" {
		req.ID = env.ID
	}

	e.admitLocked(ctx, req)
}

// admitLocked runs the create-order gates in order: validate, price, margin,
// funding, admission. Each gate exits with a rejection callback; admission
// debits margin, books the position and acknowledges with "created".
// Caller holds the engine mutex.
func (e *Engine) admitLocked(ctx context.Context, req CreateOrder) {
	// Validation gate
	side, sideOK := position.ParseSide(req.Side)
	if req.ID == "" || req.UserID == "" || req.Asset == "" || !sideOK || !req.Qty.Positive() {
		e.reject(ctx, req.ID, StatusInvalidOrder)
		return
	}

	// A replayed id is acknowledged with the original outcome; admission
	// checks are not re-run and funds are not debited twice.
	if _, exists := e.book.Get(req.ID); exists {
		e.publishCallback(ctx, Callback{ID: req.ID, Status: StatusCreated})
		return
	}

	symbol := canonicalSymbol(req.Asset)

	// Price gate
	quote, priced := e.prices.Get(symbol)
	if !priced {
		e.reject(ctx, req.ID, StatusNoPrice)
		return
	}

	// The house fills a long at the ask and a short at the bid.
	entryPrice := quote.Ask
	if side == position.SideShort {
		entryPrice = quote.Bid
	}

	leverage := req.Leverage.Or(decimal.New(1, 0))
	if leverage.LessThan(decimal.New(1, 0)) {
		leverage = decimal.New(1, 0)
	}

	qty := req.Qty.Decimal
	margin := entryPrice.Mul(qty).Div(leverage)

	// Funding gate
	available := e.ledger.Get(req.UserID, e.collateral, req.BalanceSnapshot)
	if available.LessThan(margin) {
		e.reject(ctx, req.ID, StatusInsufficientBalance)
		return
	}

	// Admission
	e.ledger.Set(ctx, req.UserID, e.collateral, available.Sub(margin))

	p := &position.Position{
		ID:         req.ID,
		UserID:     req.UserID,
		Symbol:     symbol,
		Side:       side,
		Qty:        qty,
		Leverage:   leverage,
		EntryPrice: entryPrice,
		TakeProfit: normalizeThreshold(req.TakeProfit),
		StopLoss:   normalizeThreshold(req.StopLoss),
		Status:     position.StatusOpen,
		CreatedAt:  time.Now().UTC(),
	}
	e.book.Insert(p)

	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.writeTimeout)
		defer cancel()

		if err := e.positions.Create(writeCtx, p); err != nil {
			metrics.DurableWriteFailures.WithLabelValues("position_open").Inc()
			e.log.Errorw("Failed to persist opened position",
				"position_id", p.ID, "error", err)
		}
		if err := e.events.PositionOpened(writeCtx, p); err != nil {
			e.log.Errorw("Failed to publish position-opened event",
				"position_id", p.ID, "error", err)
		}
	}()

	e.publishCallback(ctx, Callback{ID: p.ID, Status: StatusCreated})

	metrics.OrderOutcomes.WithLabelValues(string(StatusCreated)).Inc()
	metrics.OpenPositions.Set(float64(e.book.Len()))

	e.log.Infow("Position opened",
		"position_id", p.ID,
		"user_id", p.UserID,
		"symbol", p.Symbol,
		"side", p.Side,
		"qty", p.Qty,
		"leverage", p.Leverage,
		"entry_price", p.EntryPrice,
		"margin", margin,
	)
}

func (e *Engine) reject(ctx context.Context, id string, status Status) {
	metrics.OrderOutcomes.WithLabelValues(string(status)).Inc()
	e.log.Infow("Order rejected", "order_id", id, "status", status)
	e.publishCallback(ctx, Callback{ID: id, Status: status})
}

// normalizeThreshold maps absent, zero and negative thresholds to unset.
func normalizeThreshold(n Number) decimal.NullDecimal {
	if !n.Positive() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: n.Decimal, Valid: true}
}
