// Package memstore keeps every storefront table in process memory. It backs
// STORE_DRIVER=memory for local runs and the service and handler tests.
package memstore

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/paging"
	"storefront/internal/store"
)

var ErrDuplicate = errors.New("duplicate key")

// Store implements the storefront repositories over maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	nextID     uint
	users      map[uint]models.User
	categories map[uint]models.Category
	products   map[uint]models.Product
	carts      map[uint]models.CartItem
	shippings  map[uint]models.Shipping
	orders     map[uint]models.Order
	orderItems map[uint]models.OrderItem
	payInfos   map[uint]models.PayInfo
}

func New() *Store {
	return &Store{
		users:      map[uint]models.User{},
		categories: map[uint]models.Category{},
		products:   map[uint]models.Product{},
		carts:      map[uint]models.CartItem{},
		shippings:  map[uint]models.Shipping{},
		orders:     map[uint]models.Order{},
		orderItems: map[uint]models.OrderItem{},
		payInfos:   map[uint]models.PayInfo{},
	}
}

func (s *Store) Repos() store.Repos { return s.repos(&s.mu) }

func (s *Store) repos(mu sync.Locker) store.Repos {
	return store.Repos{
		Users:      users{s, mu},
		Categories: categories{s, mu},
		Products:   products{s, mu},
		Carts:      carts{s, mu},
		Shippings:  shippings{s, mu},
		Orders:     orders{s, mu},
	}
}

// Transaction holds the store lock until fn returns, so writes through
// Repos wait for it, and restores every table when fn fails. fn must only
// use the repositories it is given.
func (s *Store) Transaction(ctx context.Context, fn func(r store.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(s.repos(held{})); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// PayInfos returns every recorded payment notification, oldest first.
func (s *Store) PayInfos() []models.PayInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.payInfos)
}

// held stands in for s.mu inside a transaction, which already holds it.
type held struct{}

func (held) Lock()   {}
func (held) Unlock() {}

// snapshot and restore run with s.mu held.
func (s *Store) snapshot() *Store {
	return &Store{
		nextID:     s.nextID,
		users:      maps.Clone(s.users),
		categories: maps.Clone(s.categories),
		products:   maps.Clone(s.products),
		carts:      maps.Clone(s.carts),
		shippings:  maps.Clone(s.shippings),
		orders:     maps.Clone(s.orders),
		orderItems: maps.Clone(s.orderItems),
		payInfos:   maps.Clone(s.payInfos),
	}
}

func (s *Store) restore(snap *Store) {
	s.nextID = snap.nextID
	s.users = snap.users
	s.categories = snap.categories
	s.products = snap.products
	s.carts = snap.carts
	s.shippings = snap.shippings
	s.orders = snap.orders
	s.orderItems = snap.orderItems
	s.payInfos = snap.payInfos
}

// stamp assigns an id and timestamps; callers hold s.mu.
func (s *Store) stamp(b *models.Base) {
	s.nextID++
	now := time.Now()
	b.ID = s.nextID
	b.CreatedAt = now
	b.UpdatedAt = now
}

type identified interface {
	models.User | models.Category | models.Product | models.CartItem |
		models.Shipping | models.Order | models.OrderItem | models.PayInfo
}

func sortedValues[T identified](m map[uint]T) []T {
	out := make([]T, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[k])
	}
	return out
}

func where[T any](list []T, keep func(T) bool) []T {
	out := list[:0:0]
	for _, v := range list {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func page[T any](list []T, q paging.Query) ([]T, int64) {
	total := int64(len(list))
	start := q.Offset()
	if start >= len(list) {
		return []T{}, total
	}
	end := min(start+q.Limit(), len(list))
	return list[start:end], total
}
