package clickhouse

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"hermes/internal/engine"
)

func TestTickRecorder_RecordAfterCloseIsDropped(t *testing.T) {
	r := NewTickRecorder(nil)
	r.Close()

	// A batch already in flight during shutdown may still deliver a
	// price update after the recorder stopped.
	require.NotPanics(t, func() {
		r.Record(engine.Tick{
			Symbol: "BTC",
			Bid:    decimal.RequireFromString("100000"),
			Ask:    decimal.RequireFromString("100001"),
			Time:   time.Now().UTC(),
		})
	})

	require.NotPanics(t, r.Close)
}
