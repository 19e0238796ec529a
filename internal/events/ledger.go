package events

import (
	"maps"
	"sync"
)

// Ledger tallies consumed events: a count per type and the net quantity sold
// per product (created minus canceled).
type Ledger struct {
	mu     sync.Mutex
	counts map[Type]int64
	sold   map[uint]int64
}

func NewLedger() *Ledger {
	return &Ledger{
		counts: make(map[Type]int64),
		sold:   make(map[uint]int64),
	}
}

func (l *Ledger) Record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counts[ev.Type]++
	sign := int64(0)
	switch ev.Type {
	case OrderCreated:
		sign = 1
	case OrderCanceled:
		sign = -1
	}
	if sign == 0 {
		return
	}
	for _, it := range ev.Items {
		l.sold[it.ProductID] += sign * int64(it.Quantity)
	}
}

func (l *Ledger) Count(t Type) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[t]
}

func (l *Ledger) Sold(productID uint) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sold[productID]
}

// Summary is a copy of the ledger safe to log.
type Summary struct {
	Counts map[Type]int64 `json:"counts"`
	Sold   map[uint]int64 `json:"sold"`
}

func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Summary{Counts: maps.Clone(l.counts), Sold: maps.Clone(l.sold)}
}
