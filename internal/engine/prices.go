package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Quote is the latest bid/ask pair for a symbol.
type Quote struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

// PriceTable maps symbols to their latest quote. Last tick wins; no history
// is retained. Not safe for concurrent use on its own: all access happens
// under the engine mutex.
type PriceTable struct {
	quotes map[string]Quote
}

// NewPriceTable creates an empty price table
func NewPriceTable() *PriceTable {
	return &PriceTable{quotes: make(map[string]Quote)}
}

// Update replaces both sides for a symbol. Non-positive sides are silently
// ignored and leave any previous quote in place.
func (t *PriceTable) Update(symbol string, bid, ask decimal.Decimal) bool {
	if !bid.IsPositive() || !ask.IsPositive() {
		return false
	}
	t.quotes[canonicalSymbol(symbol)] = Quote{Bid: bid, Ask: ask}
	return true
}

// Get returns the latest quote for a symbol. A missing entry means the
// symbol is unpriced and blocks both admission and liquidation checks.
func (t *PriceTable) Get(symbol string) (Quote, bool) {
	q, ok := t.quotes[canonicalSymbol(symbol)]
	return q, ok
}

func canonicalSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
