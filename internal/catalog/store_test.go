package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/brunorcoelho/storefront/internal/client"
	"github.com/brunorcoelho/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	products []domain.Product
	err      error
	calls    atomic.Int32
	fresh    atomic.Int32
}

func (f *fakeSource) Products(context.Context) ([]domain.Product, error) {
	f.calls.Add(1)
	return f.products, f.err
}

func (f *fakeSource) FreshProducts(context.Context) ([]domain.Product, error) {
	f.fresh.Add(1)
	return f.products, f.err
}

var up = domain.ServiceHealth{OrderServiceUp: true, InventoryServiceUp: true, Overall: true}

func TestLoad_InventoryDownSkipsFetch(t *testing.T) {
	src := &fakeSource{}
	s := NewStore(src)

	err := s.Load(context.Background(), domain.ServiceHealth{OrderServiceUp: true})
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestLoad_ReplacesProducts(t *testing.T) {
	src := &fakeSource{products: []domain.Product{{ID: "1", Name: "A", Stock: 2}}}
	s := NewStore(src)
	require.NoError(t, s.Load(context.Background(), up))

	src.products = []domain.Product{{ID: "2", Name: "B", Stock: 4}}
	require.NoError(t, s.Load(context.Background(), up))

	_, ok := s.Lookup("1")
	assert.False(t, ok)
	p, ok := s.Lookup("2")
	require.True(t, ok)
	assert.Equal(t, 4, p.Stock)
	assert.False(t, s.LoadedAt().IsZero())
}

func TestLoad_FailureKeepsPreviousList(t *testing.T) {
	src := &fakeSource{products: []domain.Product{{ID: "1", Stock: 2}}}
	s := NewStore(src)
	require.NoError(t, s.Load(context.Background(), up))

	src.err = errors.New("connection refused")
	err := s.Load(context.Background(), up)
	assert.ErrorIs(t, err, ErrLoadFailure)
	assert.ErrorContains(t, err, "connection refused")
	assert.Len(t, s.Products(), 1)
}

func TestReload_BypassesCache(t *testing.T) {
	src := &fakeSource{products: []domain.Product{{ID: "1"}}}
	s := NewStore(src)

	require.NoError(t, s.Reload(context.Background(), up))
	assert.Equal(t, int32(1), src.fresh.Load())
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestLoad_FromInventoryCollaborator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"X","price":10,"quantity":5,"availableQuantity":3}]`))
	}))
	defer srv.Close()

	s := NewStore(NewHTTPSource(client.NewInventoryClient(srv.URL, client.Options{})))
	require.NoError(t, s.Load(context.Background(), up))

	p, ok := s.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, "X", p.Name)
	assert.Equal(t, 3, p.Stock)
	assert.True(t, decimal.NewFromInt(10).Equal(p.Price))
}

func TestLoad_CollaboratorErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewStore(NewHTTPSource(client.NewInventoryClient(srv.URL, client.Options{})))
	err := s.Load(context.Background(), up)
	assert.ErrorIs(t, err, ErrLoadFailure)
	assert.ErrorIs(t, err, client.ErrUnexpectedStatus)
}

func intPtr(v int) *int { return &v }

func TestToProduct_StockPriority(t *testing.T) {
	tests := []struct {
		name      string
		quantity  *int
		available *int
		want      int
	}{
		{"available wins", intPtr(5), intPtr(3), 3},
		{"available zero wins", intPtr(5), intPtr(0), 0},
		{"raw quantity fallback", intPtr(5), nil, 5},
		{"nothing", nil, nil, 0},
		{"negative clamps", nil, intPtr(-1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ToProduct(client.InventoryProduct{ID: "1", Quantity: tt.quantity, AvailableQuantity: tt.available})
			assert.Equal(t, tt.want, p.Stock)
			assert.Equal(t, "1", p.ID)
		})
	}
}

func TestStaticSource(t *testing.T) {
	s := NewStore(NewStaticSource(DemoProducts()))
	require.NoError(t, s.Load(context.Background(), up))

	products := s.Products()
	require.Len(t, products, 6)
	p, ok := s.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, "Smartphone Galaxy", p.Name)
	assert.Equal(t, 15, p.Stock)
}
