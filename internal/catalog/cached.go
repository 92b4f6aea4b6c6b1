package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brunorcoelho/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

// fetchTimeout bounds a shared fetch, which outlives the caller that
// started it.
const fetchTimeout = 10 * time.Second

// CachedSource shares one upstream fetch between all sessions: concurrent
// loads are coalesced and results are kept in a cache-aside Cache.
type CachedSource struct {
	source Source
	cache  Cache
	sfg    singleflight.Group
	logger *slog.Logger
}

func NewCachedSource(source Source, cache Cache, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{source: source, cache: cache, logger: logger}
}

func (s *CachedSource) Products(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do("products", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		products, err := s.cache.Get(ctx)
		if err == nil {
			return products, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.WarnContext(ctx, "catalog cache get failed", "error", err)
		}

		products, err = s.source.Products(ctx)
		if err != nil {
			return nil, err
		}

		go s.store(products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// FreshProducts skips the cache read and refreshes the cached copy. When the
// upstream fetch fails the cached copy is dropped, since a fresh read is only
// asked for once stock is known to have changed.
func (s *CachedSource) FreshProducts(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do("products:fresh", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		products, err := s.source.Products(ctx)
		if err != nil {
			s.Invalidate(context.WithoutCancel(ctx))
			return nil, err
		}
		s.store(products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// Invalidate drops the cached list.
func (s *CachedSource) Invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx); err != nil {
		s.logger.WarnContext(ctx, "catalog cache invalidate failed", "error", err)
	}
}

func (s *CachedSource) store(products []domain.Product) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, products); err != nil {
		s.logger.Warn("catalog cache set failed", "error", err)
	}
}
