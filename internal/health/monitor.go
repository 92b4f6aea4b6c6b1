// Package health probes the order and inventory collaborators.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/brunorcoelho/storefront/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Probe reports whether a collaborator is alive. Any error means down.
type Probe interface {
	Health(ctx context.Context) error
}

// AlwaysUp is the probe of a collaborator that is served in-process.
type AlwaysUp struct{}

func (AlwaysUp) Health(context.Context) error { return nil }

type Monitor struct {
	order     Probe
	inventory Probe
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewMonitor(order, inventory Probe, timeout time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		order:     order,
		inventory: inventory,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Check probes both collaborators concurrently and waits for both to settle.
// A failed or slow probe only marks its own collaborator down.
func (m *Monitor) Check(ctx context.Context) domain.ServiceHealth {
	var orderUp, inventoryUp bool

	var g errgroup.Group
	g.Go(func() error {
		orderUp = m.probe(ctx, "order-service", m.order)
		return nil
	})
	g.Go(func() error {
		inventoryUp = m.probe(ctx, "inventory-service", m.inventory)
		return nil
	})
	_ = g.Wait()

	return domain.NewServiceHealth(orderUp, inventoryUp, m.now())
}

func (m *Monitor) probe(ctx context.Context, name string, p Probe) bool {
	if p == nil {
		return false
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if err := p.Health(ctx); err != nil {
		m.logger.WarnContext(ctx, "health probe failed", "collaborator", name, "error", err)
		return false
	}
	return true
}
