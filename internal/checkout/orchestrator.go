// Package checkout runs the storefront flow of one shopper: health, catalog,
// cart, screen state and order submission.
package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/brunorcoelho/storefront/internal/catalog"
	"github.com/brunorcoelho/storefront/internal/client"
	"github.com/brunorcoelho/storefront/internal/domain"
	"github.com/brunorcoelho/storefront/internal/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/brunorcoelho/storefront/internal/checkout")

type HealthChecker interface {
	Check(ctx context.Context) domain.ServiceHealth
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, order client.CreateOrderRequest) (*client.CreatedOrder, error)
}

type Config struct {
	Health    HealthChecker
	Catalog   catalog.Source
	Orders    OrderCreator
	Publisher events.Publisher
	Logger    *slog.Logger
	// FollowUpTimeout bounds the background refresh run after a confirmed
	// order.
	FollowUpTimeout time.Duration
}

// Orchestrator holds what all sessions share.
type Orchestrator struct {
	health          HealthChecker
	source          catalog.Source
	orders          OrderCreator
	publisher       events.Publisher
	logger          *slog.Logger
	followUpTimeout time.Duration
	now             func() time.Time

	followUps sync.WaitGroup
}

func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	timeout := cfg.FollowUpTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Orchestrator{
		health:          cfg.Health,
		source:          cfg.Catalog,
		orders:          cfg.Orders,
		publisher:       publisher,
		logger:          logger,
		followUpTimeout: timeout,
		now:             time.Now,
	}
}

// NewSession creates a session in the loading state. Call Load to leave it.
func (o *Orchestrator) NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return newSession(id, o)
}

// Wait blocks until background work started by confirmed orders is done.
func (o *Orchestrator) Wait() {
	o.followUps.Wait()
}

// afterConfirm refreshes health and stock and publishes the order. Failures
// are logged; the order stays confirmed.
func (o *Orchestrator) afterConfirm(s *Session, order domain.Order, payment domain.PaymentMethod) {
	o.followUps.Add(1)
	go func() {
		defer o.followUps.Done()

		ctx, cancel := context.WithTimeout(context.Background(), o.followUpTimeout)
		defer cancel()

		if err := s.Reload(ctx); err != nil {
			o.logger.Warn("catalog refresh after order failed", "session_id", s.ID(), "order_id", order.ID, "error", err)
		}

		if err := o.publisher.PublishOrderConfirmed(ctx, orderConfirmedEvent(s.ID(), order, payment)); err != nil {
			o.logger.Error("publish order confirmed failed", "session_id", s.ID(), "order_id", order.ID, "error", err)
			return
		}
		o.logger.Info("order confirmed event published", "session_id", s.ID(), "order_id", order.ID)
	}()
}

func orderConfirmedEvent(sessionID string, order domain.Order, payment domain.PaymentMethod) events.OrderConfirmed {
	items := make([]events.OrderItem, 0, len(order.Lines))
	for _, l := range order.Lines {
		items = append(items, events.OrderItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price,
		})
	}
	return events.OrderConfirmed{
		EventID:       uuid.NewString(),
		SessionID:     sessionID,
		OrderID:       order.ID,
		Status:        string(order.Status),
		CustomerEmail: order.Customer.Email,
		PaymentMethod: string(payment),
		Items:         items,
		TotalAmount:   order.Total,
		ConfirmedAt:   order.CreatedAt,
	}
}
