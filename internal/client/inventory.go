package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

const (
	productsPath        = "/api/inventory/products"
	inventoryHealthPath = "/api/inventory/health"
)

// InventoryProduct is one record of the inventory product list. Quantity is
// the raw stock, AvailableQuantity the stock net of reservations; either may
// be absent.
type InventoryProduct struct {
	ID                ID              `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	Quantity          *int            `json:"quantity,omitempty"`
	AvailableQuantity *int            `json:"availableQuantity,omitempty"`
}

type InventoryClient struct {
	*base
}

func NewInventoryClient(baseURL string, opts Options) *InventoryClient {
	return &InventoryClient{base: newBase("inventory-service", baseURL, opts)}
}

func (c *InventoryClient) Health(ctx context.Context) error {
	return c.ping(ctx, inventoryHealthPath)
}

func (c *InventoryClient) ListProducts(ctx context.Context) ([]InventoryProduct, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, productsPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, readMessage(resp.Body))
	}

	var products []InventoryProduct
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode inventory products: %w", err)
	}
	return products, nil
}
