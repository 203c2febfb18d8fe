package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/domain/position"
)

func pos(id, symbol string) *position.Position {
	return &position.Position{ID: id, Symbol: symbol}
}

func TestBook_InsertAndGet(t *testing.T) {
	b := NewBook()

	require.True(t, b.Insert(pos("a", "BTC")))
	assert.False(t, b.Insert(pos("a", "BTC")), "duplicate id must not insert")
	assert.Equal(t, 1, b.Len())

	p, ok := b.Get("a")
	require.True(t, ok)
	assert.Equal(t, "BTC", p.Symbol)
}

func TestBook_RemoveOnce(t *testing.T) {
	b := NewBook()
	b.Insert(pos("a", "BTC"))

	assert.True(t, b.Remove("a"))
	assert.False(t, b.Remove("a"), "second remove must report absent")
	assert.Equal(t, 0, b.Len())
}

func TestBook_AllInInsertionOrder(t *testing.T) {
	b := NewBook()
	for i := 0; i < 5; i++ {
		b.Insert(pos(fmt.Sprintf("p%d", i), "BTC"))
	}

	all := b.All()
	require.Len(t, all, 5)
	for i, p := range all {
		assert.Equal(t, fmt.Sprintf("p%d", i), p.ID)
	}
}

func TestBook_BySymbol(t *testing.T) {
	b := NewBook()
	b.Insert(pos("a", "BTC"))
	b.Insert(pos("b", "ETH"))
	b.Insert(pos("c", "BTC"))

	btc := b.BySymbol("btc")
	require.Len(t, btc, 2)
	assert.Equal(t, "a", btc[0].ID)
	assert.Equal(t, "c", btc[1].ID)
}

func TestBook_RemoveDuringIteration(t *testing.T) {
	b := NewBook()
	for i := 0; i < 10; i++ {
		b.Insert(pos(fmt.Sprintf("p%d", i), "BTC"))
	}

	// Closing positions while ranging over a snapshot must visit each
	// remaining position exactly once.
	seen := 0
	for _, p := range b.All() {
		seen++
		b.Remove(p.ID)
	}

	assert.Equal(t, 10, seen)
	assert.Equal(t, 0, b.Len())
}

func TestBook_CompactPrunesRemovedIDs(t *testing.T) {
	b := NewBook()
	for i := 0; i < 20; i++ {
		b.Insert(pos(fmt.Sprintf("p%d", i), "BTC"))
	}
	for i := 0; i < 18; i++ {
		b.Remove(fmt.Sprintf("p%d", i))
	}

	all := b.All()
	require.Len(t, all, 2)
	assert.Equal(t, "p18", all[0].ID)
	assert.Equal(t, "p19", all[1].ID)
}
