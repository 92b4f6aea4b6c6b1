// Package catalog holds the product list a session can buy from and the
// sources it is loaded from.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/brunorcoelho/storefront/internal/domain"
)

var (
	ErrServiceUnavailable = errors.New("inventory service unavailable")
	ErrLoadFailure        = errors.New("catalog load failed")
)

// Store is the catalog of one session. Products are replaced wholesale on
// every successful load and kept as they were when a load fails.
type Store struct {
	source Source

	mu       sync.RWMutex
	products []domain.Product
	index    map[string]int
	loadedAt time.Time
}

func NewStore(source Source) *Store {
	return &Store{source: source, index: map[string]int{}}
}

// Load fetches the product list. It refuses to fetch when the last health
// check saw the inventory collaborator down.
func (s *Store) Load(ctx context.Context, health domain.ServiceHealth) error {
	return s.load(ctx, health, false)
}

// Reload is Load bypassing any shared cache.
func (s *Store) Reload(ctx context.Context, health domain.ServiceHealth) error {
	return s.load(ctx, health, true)
}

func (s *Store) load(ctx context.Context, health domain.ServiceHealth, fresh bool) error {
	if !health.InventoryServiceUp {
		return ErrServiceUnavailable
	}

	var (
		products []domain.Product
		err      error
	)
	if fs, ok := s.source.(FreshSource); ok && fresh {
		products, err = fs.FreshProducts(ctx)
	} else {
		products, err = s.source.Products(ctx)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailure, err)
	}

	s.replace(products)
	return nil
}

func (s *Store) replace(products []domain.Product) {
	own := make([]domain.Product, len(products))
	copy(own, products)
	index := make(map[string]int, len(own))
	for i, p := range own {
		index[p.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = own
	s.index = index
	s.loadedAt = time.Now()
}

func (s *Store) Lookup(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

// Products returns a copy of the current list.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// LoadedAt is the time of the last successful load, zero if none.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
