package engine

import (
	"hermes/internal/domain/position"
)

// Book holds every open position. In-memory existence implies open status.
// Access is serialized by the engine mutex.
type Book struct {
	byID  map[string]*position.Position
	order []string // insertion order, for stable iteration
}

// NewBook creates an empty position book
func NewBook() *Book {
	return &Book{byID: make(map[string]*position.Position)}
}

// Insert adds a position. Returns false when the id is already present.
func (b *Book) Insert(p *position.Position) bool {
	if _, exists := b.byID[p.ID]; exists {
		return false
	}
	b.byID[p.ID] = p
	b.order = append(b.order, p.ID)
	return true
}

// Get looks up an open position by id.
func (b *Book) Get(id string) (*position.Position, bool) {
	p, ok := b.byID[id]
	return p, ok
}

// Remove deletes a position by id. Returns false when absent, so a second
// close of the same position is a no-op.
func (b *Book) Remove(id string) bool {
	if _, ok := b.byID[id]; !ok {
		return false
	}
	delete(b.byID, id)
	return true
}

// Len returns the number of open positions.
func (b *Book) Len() int {
	return len(b.byID)
}

// All returns the open positions in insertion order. The slice is a copy:
// callers may remove positions from the book while ranging over it.
func (b *Book) All() []*position.Position {
	out := make([]*position.Position, 0, len(b.byID))
	b.compact()
	for _, id := range b.order {
		if p, ok := b.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// BySymbol returns the open positions for one symbol, removal-safe like All.
func (b *Book) BySymbol(symbol string) []*position.Position {
	symbol = canonicalSymbol(symbol)
	var out []*position.Position
	b.compact()
	for _, id := range b.order {
		if p, ok := b.byID[id]; ok && p.Symbol == symbol {
			out = append(out, p)
		}
	}
	return out
}

// compact drops ids of removed positions once they outnumber the live ones.
func (b *Book) compact() {
	if len(b.order) <= 2*len(b.byID) {
		return
	}
	live := b.order[:0]
	for _, id := range b.order {
		if _, ok := b.byID[id]; ok {
			live = append(live, id)
		}
	}
	b.order = live
}
