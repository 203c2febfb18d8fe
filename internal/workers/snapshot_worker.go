package workers

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"hermes/internal/engine"
)

// SnapshotWorker periodically sweeps open positions against current prices
// and mirrors their marks to durable storage. It is the only caller of the
// engine besides the stream consumer, so liquidations still fire when the
// price feed goes quiet.
type SnapshotWorker struct {
	*BaseWorker
	eng *engine.Engine
}

// Compile-time check
var _ WorkerWithHealth = (*SnapshotWorker)(nil)

// NewSnapshotWorker creates the periodic snapshot/sweep worker.
func NewSnapshotWorker(eng *engine.Engine, interval time.Duration) *SnapshotWorker {
	return &SnapshotWorker{
		BaseWorker: NewBaseWorker("position_snapshot", interval, true),
		eng:        eng,
	}
}

// Run performs one sweep-then-snapshot cycle.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	start := time.Now()

	closed := w.eng.Sweep(ctx)
	snapshotted := w.eng.SnapshotPositions(ctx)

	stats := w.eng.Stats()
	w.Log().Infow("Position snapshot completed",
		"open", stats.OpenPositions,
		"closed_this_sweep", closed,
		"snapshotted", snapshotted,
		"processed_total", humanize.Comma(stats.Processed),
		"liquidated_total", humanize.Comma(stats.Liquidated),
		"duration", time.Since(start),
	)

	return nil
}
