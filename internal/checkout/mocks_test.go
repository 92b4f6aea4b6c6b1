package checkout

import (
	"context"
	"sync"

	"github.com/brunorcoelho/storefront/internal/client"
	"github.com/brunorcoelho/storefront/internal/domain"
	"github.com/brunorcoelho/storefront/internal/events"
	"github.com/shopspring/decimal"
)

type MockHealth struct {
	mu     sync.Mutex
	Health domain.ServiceHealth
}

func (m *MockHealth) Check(context.Context) domain.ServiceHealth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Health
}

func (m *MockHealth) Set(orderUp, inventoryUp bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Health = domain.NewServiceHealth(orderUp, inventoryUp, m.Health.CheckedAt)
}

type MockOrders struct {
	mu       sync.Mutex
	Requests []client.CreateOrderRequest
	Created  *client.CreatedOrder
	Err      error
	// Block, when set, holds every call until it is closed.
	Block chan struct{}
	// Entered receives a value when a call starts.
	Entered chan struct{}
}

func (m *MockOrders) CreateOrder(ctx context.Context, order client.CreateOrderRequest) (*client.CreatedOrder, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, order)
	created, err, block, entered := m.Created, m.Err, m.Block, m.Entered
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return created, err
}

func (m *MockOrders) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

type MockPublisher struct {
	mu     sync.Mutex
	Events []events.OrderConfirmed
	Err    error
}

func (m *MockPublisher) PublishOrderConfirmed(_ context.Context, event events.OrderConfirmed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

func (m *MockPublisher) Close() error { return nil }

func (m *MockPublisher) Published() []events.OrderConfirmed {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.OrderConfirmed, len(m.Events))
	copy(out, m.Events)
	return out
}

type MockSource struct {
	mu    sync.Mutex
	List  []domain.Product
	Err   error
	Calls int
}

func (m *MockSource) Products(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.List, m.Err
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validCustomer() domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:  "Ana Souza",
		Email: "ana@example.com",
		Address: domain.Address{
			Street:  "Rua das Flores, 10",
			City:    "Recife",
			ZipCode: "50000-000",
			State:   "PE",
		},
	}
}
