package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

const (
	ordersPath       = "/api/orders"
	ordersHealthPath = "/api/orders/health"
)

type OrderItem struct {
	ProductID   int64       `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int         `json:"quantity"`
	Price       json.Number `json:"price"`
}

type CreateOrderRequest struct {
	CustomerName    string      `json:"customerName"`
	CustomerEmail   string      `json:"customerEmail"`
	CustomerAddress string      `json:"customerAddress"`
	CustomerPhone   string      `json:"customerPhone,omitempty"`
	Items           []OrderItem `json:"items"`
	TotalAmount     json.Number `json:"totalAmount"`
}

// CreatedOrder is the part of the order collaborator's answer the storefront
// relies on.
type CreatedOrder struct {
	ID          ID              `json:"id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   Timestamp       `json:"createdAt"`
}

// Money renders an amount as an exact JSON number.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

type OrderClient struct {
	*base
}

func NewOrderClient(baseURL string, opts Options) *OrderClient {
	return &OrderClient{base: newBase("order-service", baseURL, opts)}
}

func (c *OrderClient) Health(ctx context.Context) error {
	return c.ping(ctx, ordersHealthPath)
}

// CreateOrder posts the order. It returns the created order on 200/201,
// a *StatusError wrapping ErrConflict, ErrUnavailable or ErrUnexpectedStatus
// on any other answer, and an ErrTransport error when nothing came back.
//
// The client timeout does not apply: the caller's context is the only bound,
// so a slow but successful order is not cut short and resubmitted.
func (c *OrderClient) CreateOrder(ctx context.Context, order CreateOrderRequest) (*CreatedOrder, error) {
	req, err := c.newRequest(ctx, http.MethodPost, ordersPath, order)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, newStatusError(resp.StatusCode, readMessage(resp.Body))
	}

	var created CreatedOrder
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, &StatusError{Code: resp.StatusCode, Message: fmt.Sprintf("decode order: %v", err), kind: ErrUnexpectedStatus}
	}
	if created.ID == "" {
		return nil, &StatusError{Code: resp.StatusCode, Message: "order response has no id", kind: ErrUnexpectedStatus}
	}
	return &created, nil
}
