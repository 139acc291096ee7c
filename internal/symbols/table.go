// Package symbols provides a generic address keyed table for symbols,
// variables and comments.
package symbols

import (
	"sort"

	"github.com/retroenv/retrogolib/set"
)

// Table provides generic item tracking by address.
// T is the type of item being managed (e.g., target.Symbol or string).
type Table[T any] struct {
	items map[uint64]T
	used  set.Set[uint64]
}

// New creates a new address table.
func New[T any]() *Table[T] {
	return &Table[T]{
		items: make(map[uint64]T),
		used:  set.New[uint64](),
	}
}

// Get returns the item at the given address.
func (m *Table[T]) Get(address uint64) (T, bool) {
	item, ok := m.items[address]
	return item, ok
}

// Set sets the item at the given address and returns the item it replaced.
func (m *Table[T]) Set(address uint64, item T) (T, bool) {
	previous, ok := m.items[address]
	m.items[address] = item
	return previous, ok
}

// Delete removes the item at the given address.
func (m *Table[T]) Delete(address uint64) {
	delete(m.items, address)
}

// Addresses returns all addresses that have an item, in ascending order.
func (m *Table[T]) Addresses() []uint64 {
	addresses := make([]uint64, 0, len(m.items))
	for address := range m.items {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i] < addresses[j]
	})
	return addresses
}

// Sorted returns all items ordered by their address.
func (m *Table[T]) Sorted() []T {
	addresses := m.Addresses()
	items := make([]T, 0, len(addresses))
	for _, address := range addresses {
		items = append(items, m.items[address])
	}
	return items
}

// MarkUsed marks an address as used.
func (m *Table[T]) MarkUsed(address uint64) {
	m.used.Add(address)
}

// IsUsed returns whether an address is marked as used.
func (m *Table[T]) IsUsed(address uint64) bool {
	return m.used.Contains(address)
}

// UsedAddresses returns the addresses that have an item and are marked as
// used, in ascending order.
func (m *Table[T]) UsedAddresses() []uint64 {
	var addresses []uint64
	for _, address := range m.Addresses() {
		if m.used.Contains(address) {
			addresses = append(addresses, address)
		}
	}
	return addresses
}
