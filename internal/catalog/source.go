package catalog

import (
	"context"
	"fmt"

	"github.com/brunorcoelho/storefront/internal/client"
	"github.com/brunorcoelho/storefront/internal/domain"
)

// Source yields the full product list. Implementations must be safe for
// concurrent use; the returned slice must not be modified by the caller.
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// FreshSource is a Source that can bypass any cache it sits behind.
type FreshSource interface {
	Source
	FreshProducts(ctx context.Context) ([]domain.Product, error)
}

type InventoryLister interface {
	ListProducts(ctx context.Context) ([]client.InventoryProduct, error)
}

// HTTPSource reads the catalog from the inventory collaborator.
type HTTPSource struct {
	inventory InventoryLister
}

func NewHTTPSource(inventory InventoryLister) *HTTPSource {
	return &HTTPSource{inventory: inventory}
}

func (s *HTTPSource) Products(ctx context.Context) ([]domain.Product, error) {
	records, err := s.inventory.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory products: %w", err)
	}

	products := make([]domain.Product, 0, len(records))
	for _, r := range records {
		products = append(products, ToProduct(r))
	}
	return products, nil
}

// ToProduct maps an inventory record. Sellable stock is the available
// quantity when the collaborator sends one (even 0), else the raw quantity,
// else 0; reserved units are never offered again.
func ToProduct(r client.InventoryProduct) domain.Product {
	stock := 0
	switch {
	case r.AvailableQuantity != nil:
		stock = *r.AvailableQuantity
	case r.Quantity != nil:
		stock = *r.Quantity
	}
	if stock < 0 {
		stock = 0
	}

	return domain.Product{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       stock,
	}
}
