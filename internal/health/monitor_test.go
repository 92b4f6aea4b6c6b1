package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brunorcoelho/storefront/internal/client"
	"github.com/stretchr/testify/assert"
)

type probeFunc func(ctx context.Context) error

func (f probeFunc) Health(ctx context.Context) error { return f(ctx) }

func TestCheck_BothUp(t *testing.T) {
	m := NewMonitor(AlwaysUp{}, AlwaysUp{}, time.Second, nil)
	h := m.Check(context.Background())
	assert.True(t, h.OrderServiceUp)
	assert.True(t, h.InventoryServiceUp)
	assert.True(t, h.Overall)
	assert.False(t, h.CheckedAt.IsZero())
}

func TestCheck_OneFailureDoesNotAffectTheOther(t *testing.T) {
	failing := probeFunc(func(context.Context) error { return errors.New("boom") })
	m := NewMonitor(failing, AlwaysUp{}, time.Second, nil)

	h := m.Check(context.Background())
	assert.False(t, h.OrderServiceUp)
	assert.True(t, h.InventoryServiceUp)
	assert.False(t, h.Overall)
}

func TestCheck_SlowProbeTimesOutIndependently(t *testing.T) {
	slow := probeFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	m := NewMonitor(AlwaysUp{}, slow, 50*time.Millisecond, nil)

	start := time.Now()
	h := m.Check(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, h.OrderServiceUp)
	assert.False(t, h.InventoryServiceUp)
}

func TestCheck_ProbesRunConcurrently(t *testing.T) {
	started := make(chan struct{}, 2)
	both := make(chan struct{})
	waitForPeer := probeFunc(func(ctx context.Context) error {
		started <- struct{}{}
		select {
		case <-both:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	go func() {
		<-started
		<-started
		close(both)
	}()

	m := NewMonitor(waitForPeer, waitForPeer, 2*time.Second, nil)
	assert.True(t, m.Check(context.Background()).Overall)
}

func TestCheck_HTTPCollaborators(t *testing.T) {
	orders := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer orders.Close()
	inventory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer inventory.Close()

	m := NewMonitor(
		client.NewOrderClient(orders.URL, client.Options{}),
		client.NewInventoryClient(inventory.URL, client.Options{}),
		time.Second, nil,
	)
	h := m.Check(context.Background())
	assert.True(t, h.OrderServiceUp)
	assert.False(t, h.InventoryServiceUp)
}

func TestCheck_NilProbeIsDown(t *testing.T) {
	m := NewMonitor(nil, AlwaysUp{}, time.Second, nil)
	assert.False(t, m.Check(context.Background()).OrderServiceUp)
}
