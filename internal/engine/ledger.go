package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hermes/internal/domain/balance"
	"hermes/internal/metrics"
	"hermes/pkg/logger"
)

// Ledger is the in-memory authoritative balance table, asynchronously
// mirrored to durable storage. It starts empty after a restart and is
// re-seeded from the balance snapshots attached to order requests.
// Access is serialized by the engine mutex; the durable mirror writes run
// on their own goroutines and never read the maps again.
type Ledger struct {
	cache        map[string]map[string]decimal.Decimal // user -> symbol -> amount
	repo         balance.Repository
	writeTimeout time.Duration
	log          *logger.Logger
}

// NewLedger creates an empty ledger mirrored to the given repository.
func NewLedger(repo balance.Repository, writeTimeout time.Duration) *Ledger {
	return &Ledger{
		cache:        make(map[string]map[string]decimal.Decimal),
		repo:         repo,
		writeTimeout: writeTimeout,
		log:          logger.Get().With("component", "ledger"),
	}
}

// Get returns the cached balance for (user, symbol). When the pair has never
// been touched and the snapshot carries the symbol, the cache is seeded from
// the snapshot first; a truly absent pair reads as zero.
func (l *Ledger) Get(userID, symbol string, snapshot []balance.Snapshot) decimal.Decimal {
	symbol = canonicalSymbol(symbol)
	if amounts, ok := l.cache[userID]; ok {
		if amount, ok := amounts[symbol]; ok {
			return amount
		}
	}

	for _, s := range snapshot {
		if canonicalSymbol(s.Symbol) == symbol {
			amount := s.Amount()
			l.put(userID, symbol, amount)
			l.log.Debugw("Seeded balance from snapshot",
				"user_id", userID, "symbol", symbol, "amount", amount)
			return amount
		}
	}

	return decimal.Zero
}

// Set overwrites the cached balance and schedules a durable upsert. The
// upsert is fire-and-forget: a failure is logged and counted, never retried
// inline, and the in-memory value stays authoritative for this process.
func (l *Ledger) Set(ctx context.Context, userID, symbol string, amount decimal.Decimal) decimal.Decimal {
	symbol = canonicalSymbol(symbol)
	l.put(userID, symbol, amount)

	decimals := balance.DecimalsFor(symbol)
	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.writeTimeout)
		defer cancel()

		if err := l.repo.Upsert(writeCtx, userID, symbol, amount, decimals); err != nil {
			metrics.DurableWriteFailures.WithLabelValues("balance").Inc()
			l.log.Errorw("Failed to mirror balance to durable storage",
				"user_id", userID, "symbol", symbol, "error", err)
		}
	}()

	return amount
}

// SetCached updates the in-memory value only. Used for balance-update
// commands whose durable row was already written by the request layer.
func (l *Ledger) SetCached(userID, symbol string, amount decimal.Decimal) {
	l.put(userID, canonicalSymbol(symbol), amount)
}

// Reset drops every cached balance, forcing snapshot seeding on next touch.
func (l *Ledger) Reset() {
	l.cache = make(map[string]map[string]decimal.Decimal)
}

func (l *Ledger) put(userID, symbol string, amount decimal.Decimal) {
	amounts, ok := l.cache[userID]
	if !ok {
		amounts = make(map[string]decimal.Decimal)
		l.cache[userID] = amounts
	}
	amounts[symbol] = amount
}
