package catalog

import (
	"context"
	"errors"

	"github.com/brunorcoelho/storefront/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores the shared product list.
type Cache interface {
	Get(ctx context.Context) ([]domain.Product, error)
	Set(ctx context.Context, products []domain.Product) error
	Delete(ctx context.Context) error
}
