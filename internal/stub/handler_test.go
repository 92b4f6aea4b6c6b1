package stub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brunorcoelho/storefront/internal/client"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *Handler, *Inventory) {
	t.Helper()
	inv := NewInventory([]Product{
		{ID: 1, Name: "A", Price: decimal.RequireFromString("10.00"), Total: 5},
		{ID: 2, Name: "B", Price: decimal.RequireFromString("4.25"), Total: 1},
	})
	t.Cleanup(func() { _ = inv.Close() })

	h := NewHandler(inv, NewOrders(inv), nil)
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, h, inv
}

func orderFor(items ...client.OrderItem) client.CreateOrderRequest {
	total := decimal.Zero
	for _, item := range items {
		p := decimal.RequireFromString(item.Price.String())
		total = total.Add(p.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return client.CreateOrderRequest{
		CustomerName:    "Ana",
		CustomerEmail:   "ana@example.com",
		CustomerAddress: "Rua A, Recife, PE 50000-000",
		Items:           items,
		TotalAmount:     client.Money(total),
	}
}

func TestHandler_ProductsThroughClient(t *testing.T) {
	srv, _, _ := newTestServer(t)
	c := client.NewInventoryClient(srv.URL, client.Options{})

	require.NoError(t, c.Health(context.Background()))
	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, client.ID("1"), products[0].ID)
	assert.Equal(t, 5, *products[0].AvailableQuantity)
	assert.True(t, decimal.RequireFromString("4.25").Equal(products[1].Price))
}

func TestHandler_CreateOrderThroughClient(t *testing.T) {
	srv, _, inv := newTestServer(t)
	c := client.NewOrderClient(srv.URL, client.Options{})

	created, err := c.CreateOrder(context.Background(), orderFor(
		client.OrderItem{ProductID: 1, ProductName: "A", Quantity: 3, Price: "10.00"},
	))
	require.NoError(t, err)
	assert.Equal(t, client.ID("1"), created.ID)
	assert.Equal(t, string(OrderStatusApproved), created.Status)
	assert.True(t, decimal.NewFromInt(30).Equal(created.TotalAmount))
	assert.False(t, created.CreatedAt.IsZero())

	p, _ := inv.Product(1)
	assert.Equal(t, 2, p.Available())

	resp, err := http.Get(srv.URL + "/api/orders/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_ApprovedOrderReservesStock(t *testing.T) {
	srv, _, _ := newTestServer(t)
	orders := client.NewOrderClient(srv.URL, client.Options{})
	inventory := client.NewInventoryClient(srv.URL, client.Options{})

	_, err := orders.CreateOrder(context.Background(), orderFor(
		client.OrderItem{ProductID: 1, ProductName: "A", Quantity: 3, Price: "10.00"},
	))
	require.NoError(t, err)

	products, err := inventory.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, *products[0].Quantity)
	assert.Equal(t, 2, *products[0].AvailableQuantity)

	resp, err := http.Post(srv.URL+"/api/orders/1/fulfill", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var order orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	assert.Equal(t, OrderStatusFulfilled, order.Status)

	products, err = inventory.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, *products[0].Quantity)
	assert.Equal(t, 2, *products[0].AvailableQuantity)
}

func TestHandler_CancelOrder(t *testing.T) {
	srv, _, inv := newTestServer(t)
	orders := client.NewOrderClient(srv.URL, client.Options{})

	_, err := orders.CreateOrder(context.Background(), orderFor(
		client.OrderItem{ProductID: 1, ProductName: "A", Quantity: 4, Price: "10.00"},
	))
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/orders/1/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	p, _ := inv.Product(1)
	assert.Equal(t, 5, p.Available())

	resp, err = http.Post(srv.URL+"/api/orders/1/fulfill", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/orders/7/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_InsufficientStockIsConflict(t *testing.T) {
	srv, _, inv := newTestServer(t)
	c := client.NewOrderClient(srv.URL, client.Options{})

	_, err := c.CreateOrder(context.Background(), orderFor(
		client.OrderItem{ProductID: 2, ProductName: "B", Quantity: 2, Price: "4.25"},
	))
	assert.ErrorIs(t, err, client.ErrConflict)
	assert.ErrorContains(t, err, "insufficient stock")

	p, _ := inv.Product(2)
	assert.Equal(t, 1, p.Available())
}

func TestHandler_TotalMismatchIsConflict(t *testing.T) {
	srv, _, _ := newTestServer(t)
	c := client.NewOrderClient(srv.URL, client.Options{})

	req := orderFor(client.OrderItem{ProductID: 1, ProductName: "A", Quantity: 1, Price: "10.00"})
	req.TotalAmount = "9.99"
	_, err := c.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, client.ErrConflict)
}

func TestHandler_Down(t *testing.T) {
	srv, h, _ := newTestServer(t)
	orders := client.NewOrderClient(srv.URL, client.Options{})
	inventory := client.NewInventoryClient(srv.URL, client.Options{})

	h.SetOrdersDown(true)
	assert.Error(t, orders.Health(context.Background()))
	_, err := orders.CreateOrder(context.Background(), orderFor(
		client.OrderItem{ProductID: 1, ProductName: "A", Quantity: 1, Price: "10.00"},
	))
	assert.ErrorIs(t, err, client.ErrUnavailable)

	h.SetInventoryDown(true)
	assert.Error(t, inventory.Health(context.Background()))

	h.SetOrdersDown(false)
	assert.NoError(t, orders.Health(context.Background()))
}

func TestHandler_BadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/orders", "application/json", strings.NewReader(`{"items":[{"productId":1,"quantity":0,"price":1}],"totalAmount":0}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body messageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Message)
}
