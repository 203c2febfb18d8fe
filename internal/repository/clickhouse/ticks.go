package clickhouse

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"hermes/internal/engine"
	"hermes/internal/metrics"
	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

// Compile-time check
var _ engine.TickRecorder = (*TickRecorder)(nil)

const (
	tickBufferSize = 8192
	flushInterval  = 5 * time.Second
	maxBatchSize   = 4096
)

// TickRecorder archives admitted price ticks to ClickHouse in batches.
// Record never blocks the engine: ticks are buffered on a channel and a
// full buffer drops the tick rather than stall a price update.
type TickRecorder struct {
	conn  driver.Conn
	ticks chan engine.Tick
	done  chan struct{}
	log   *logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewTickRecorder creates the recorder and starts its flush loop.
func NewTickRecorder(conn driver.Conn) *TickRecorder {
	r := &TickRecorder{
		conn:  conn,
		ticks: make(chan engine.Tick, tickBufferSize),
		done:  make(chan struct{}),
		log:   logger.Get().With("component", "tick_recorder"),
	}
	go r.run()
	return r
}

// Record buffers one tick for the next flush. Ticks arriving after Close
// are dropped; during shutdown a racing in-flight batch may still call
// Record while the recorder tears down.
func (r *TickRecorder) Record(t engine.Tick) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	select {
	case r.ticks <- t:
	default:
		// Archive is best-effort; never backpressure the engine
		metrics.DurableWriteFailures.WithLabelValues("tick").Inc()
	}
}

// Close flushes the remaining buffer and stops the loop. Safe to call twice.
func (r *TickRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.ticks)
	<-r.done
}

func (r *TickRecorder) run() {
	defer close(r.done)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]engine.Tick, 0, maxBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.insert(context.Background(), batch); err != nil {
			metrics.DurableWriteFailures.WithLabelValues("tick").Inc()
			r.log.Errorw("Failed to flush tick batch", "count", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case t, ok := <-r.ticks:
			if !ok {
				flush()
				return
			}
			batch = append(batch, t)
			if len(batch) >= maxBatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

func (r *TickRecorder) insert(ctx context.Context, ticks []engine.Tick) error {
	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO price_ticks (symbol, bid, ask, received_at)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, t := range ticks {
		bid, _ := t.Bid.Float64()
		ask, _ := t.Ask.Float64()
		if err := batch.Append(t.Symbol, bid, ask, t.Time); err != nil {
			return errors.Wrap(err, "failed to append tick")
		}
	}

	return batch.Send()
}
