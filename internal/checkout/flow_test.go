package checkout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brunorcoelho/storefront/internal/catalog"
	"github.com/brunorcoelho/storefront/internal/client"
	"github.com/brunorcoelho/storefront/internal/health"
	"github.com/brunorcoelho/storefront/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collaborators struct {
	orders      *httptest.Server
	inventory   *httptest.Server
	orderStatus atomic.Int32
	orderBody   atomic.Value
	posts       atomic.Int32
	listings    atomic.Int32
}

func startCollaborators(t *testing.T) *collaborators {
	t.Helper()
	c := &collaborators{}
	c.orderStatus.Store(http.StatusCreated)
	c.orderBody.Store(`{"id":"99","status":"APROVADO","totalAmount":30.00,"createdAt":"2024-05-01T10:15:30"}`)

	c.orders = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/orders/health":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Path == "/api/orders":
			c.posts.Add(1)
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(int(c.orderStatus.Load()))
			_, _ = io.WriteString(w, c.orderBody.Load().(string))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(c.orders.Close)

	c.inventory = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/inventory/health":
			w.WriteHeader(http.StatusOK)
		case "/api/inventory/products":
			c.listings.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[
				{"id":1,"name":"A","description":"first","price":10.00,"quantity":8,"availableQuantity":5},
				{"id":2,"name":"B","description":"second","price":4.25,"quantity":2}
			]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(c.inventory.Close)
	return c
}

func newLiveOrchestrator(t *testing.T, ordersURL, inventoryURL string) (*Orchestrator, *MockPublisher) {
	t.Helper()
	opts := client.Options{Timeout: 2 * time.Second}
	orders := client.NewOrderClient(ordersURL, opts)
	inventory := client.NewInventoryClient(inventoryURL, opts)
	publisher := &MockPublisher{}

	o := New(Config{
		Health:    health.NewMonitor(orders, inventory, time.Second, nil),
		Catalog:   catalog.NewHTTPSource(inventory),
		Orders:    orders,
		Publisher: publisher,
	})
	t.Cleanup(o.Wait)
	return o, publisher
}

func TestFlow_EndToEnd(t *testing.T) {
	c := startCollaborators(t)
	o, publisher := newLiveOrchestrator(t, c.orders.URL, c.inventory.URL)
	ctx := context.Background()

	s := o.NewSession("")
	require.NoError(t, s.Load(ctx))
	snap := s.Snapshot()
	assert.True(t, snap.Health.Overall)
	assert.Len(t, s.Products(), 2)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AddItem("1"))
	}
	snap = s.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "1", snap.Lines[0].Product.ID)
	assert.Equal(t, 3, snap.Lines[0].Quantity)

	require.NoError(t, s.Navigate(view.EventOpenCart))
	require.NoError(t, s.Navigate(view.EventProceedToCheckout))

	order, err := s.Submit(ctx, validCustomer())
	require.NoError(t, err)
	assert.Equal(t, "99", order.ID)

	snap = s.Snapshot()
	assert.Equal(t, view.StateConfirmation, snap.View)
	require.NotNil(t, snap.Order)
	assert.Equal(t, "99", snap.Order.ID)
	assert.Empty(t, snap.Lines)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 15, 30, 0, time.UTC), snap.Order.CreatedAt)

	o.Wait()
	assert.Equal(t, int32(1), c.posts.Load())
	assert.Equal(t, int32(2), c.listings.Load())
	assert.Len(t, publisher.Published(), 1)
}

func TestFlow_ConflictVersusUnreachable(t *testing.T) {
	c := startCollaborators(t)
	c.orderStatus.Store(http.StatusConflict)
	c.orderBody.Store(`{"message":"Estoque insuficiente para o produto A"}`)
	o, _ := newLiveOrchestrator(t, c.orders.URL, c.inventory.URL)
	ctx := context.Background()

	s := o.NewSession("")
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.AddItem("1"))
	require.NoError(t, s.Navigate(view.EventOpenCart))
	require.NoError(t, s.Navigate(view.EventProceedToCheckout))

	_, err := s.Submit(ctx, validCustomer())
	var conflict *SubmitError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, FailureConflict, conflict.Kind)
	assert.Equal(t, http.StatusConflict, conflict.Status)
	assert.Contains(t, conflict.Message, "Estoque insuficiente para o produto A")
	assert.ErrorIs(t, err, client.ErrConflict)
	assert.Equal(t, view.StateCheckout, s.Snapshot().View)
	assert.Equal(t, 1, s.Snapshot().ItemCount)

	// the order collaborator disappears after the last health check
	c.orders.Close()
	_, err = s.Submit(ctx, validCustomer())
	var transport *SubmitError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, FailureTransport, transport.Kind)
	assert.Zero(t, transport.Status)
	assert.NotEqual(t, conflict.Message, transport.Message)
	assert.Equal(t, view.StateCheckout, s.Snapshot().View)
}

func TestFlow_AcceptedIsUnexpected(t *testing.T) {
	c := startCollaborators(t)
	c.orderStatus.Store(http.StatusAccepted)
	o, _ := newLiveOrchestrator(t, c.orders.URL, c.inventory.URL)
	ctx := context.Background()

	s := o.NewSession("")
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.AddItem("2"))
	require.NoError(t, s.Navigate(view.EventOpenCart))
	require.NoError(t, s.Navigate(view.EventProceedToCheckout))

	_, err := s.Submit(ctx, validCustomer())
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, FailureUnexpected, submitErr.Kind)
	assert.Equal(t, http.StatusAccepted, submitErr.Status)
}

func TestFlow_OpenCircuitIsUnavailable(t *testing.T) {
	c := startCollaborators(t)
	c.orderStatus.Store(http.StatusServiceUnavailable)
	c.orderBody.Store(`{"message":"Serviço indisponível"}`)

	opts := client.Options{Timeout: 2 * time.Second, BreakerFailures: 2, BreakerOpenFor: time.Minute}
	orders := client.NewOrderClient(c.orders.URL, opts)
	inventory := client.NewInventoryClient(c.inventory.URL, opts)
	o := New(Config{
		Health:  health.NewMonitor(orders, inventory, time.Second, nil),
		Catalog: catalog.NewHTTPSource(inventory),
		Orders:  orders,
	})
	t.Cleanup(o.Wait)
	ctx := context.Background()

	s := o.NewSession("")
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.AddItem("1"))
	require.NoError(t, s.Navigate(view.EventOpenCart))
	require.NoError(t, s.Navigate(view.EventProceedToCheckout))

	for i := 0; i < 2; i++ {
		_, err := s.Submit(ctx, validCustomer())
		var submitErr *SubmitError
		require.ErrorAs(t, err, &submitErr)
		assert.Equal(t, FailureUnavailable, submitErr.Kind)
	}

	_, err := s.Submit(ctx, validCustomer())
	var open *SubmitError
	require.ErrorAs(t, err, &open)
	assert.Equal(t, FailureUnavailable, open.Kind)
	assert.Zero(t, open.Status)
	assert.Equal(t, int32(2), c.posts.Load())

	// the collaborator still answers its health check
	assert.True(t, s.CheckHealth(ctx).OrderServiceUp)
}
