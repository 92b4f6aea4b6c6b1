package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brunorcoelho/storefront/internal/cart"
	"github.com/brunorcoelho/storefront/internal/catalog"
	"github.com/brunorcoelho/storefront/internal/client"
	"github.com/brunorcoelho/storefront/internal/domain"
	"github.com/brunorcoelho/storefront/internal/view"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxNotices = 20

// Session is the state of one shopper. Events are applied one at a time
// under mu; the lock is not held while waiting on a collaborator.
type Session struct {
	id string
	o  *Orchestrator

	mu        sync.Mutex
	catalog   *catalog.Store
	cart      *cart.State
	view      *view.Controller
	health    domain.ServiceHealth
	loadErr   error
	draft     *domain.CustomerInfo
	submitErr error
	pending   bool
	epoch     uint64
	notices   []cart.Notice
}

func newSession(id string, o *Orchestrator) *Session {
	s := &Session{
		id:      id,
		o:       o,
		catalog: catalog.NewStore(o.source),
		view:    view.NewController(),
	}
	s.cart = cart.New(s.catalog, s.notify)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// notify runs with mu held: cart operations only happen under the lock.
func (s *Session) notify(n cart.Notice) {
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

// Load checks both collaborators and loads the catalog. The first call moves
// the session out of Loading whether or not the catalog could be loaded.
func (s *Session) Load(ctx context.Context) error {
	return s.refresh(ctx, false)
}

// Reload is Load bypassing the shared catalog cache. It backs the retry
// action and the refresh after a confirmed order.
func (s *Session) Reload(ctx context.Context) error {
	return s.refresh(ctx, true)
}

func (s *Session) refresh(ctx context.Context, fresh bool) error {
	health := s.o.health.Check(ctx)

	var err error
	if fresh {
		err = s.catalog.Reload(ctx, health)
	} else {
		err = s.catalog.Load(ctx, health)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = health
	s.loadErr = err
	if s.view.State() == view.StateLoading {
		_ = s.view.Fire(view.EventLoaded)
	}

	if err != nil {
		s.o.logger.WarnContext(ctx, "catalog load failed", "session_id", s.id, "error", err)
		return err
	}
	return nil
}

// CheckHealth runs an on-demand health check and records the result.
func (s *Session) CheckHealth(ctx context.Context) domain.ServiceHealth {
	health := s.o.health.Check(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = health
	return health
}

func (s *Session) SubmitPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) Products() []domain.Product {
	return s.catalog.Products()
}

func (s *Session) AddItem(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.catalog.Lookup(productID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return s.cart.Add(product)
}

func (s *Session) SetQuantity(productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.SetQuantity(productID, quantity)
}

func (s *Session) RemoveItem(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(productID)
}

// Navigate applies a screen event. Every accepted event invalidates a
// submission that is still waiting for its response.
func (s *Session) Navigate(ev view.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev == view.EventConfirm {
		return fmt.Errorf("%w: confirm is reached by submitting an order", view.ErrIllegalTransition)
	}
	if err := s.view.Fire(ev); err != nil {
		return err
	}
	s.epoch++

	if ev == view.EventNewOrder {
		s.cart.Clear()
		s.draft = nil
		s.submitErr = nil
	}
	return nil
}

// Submit sends the cart as an order. Validation and availability problems
// are reported without contacting the order collaborator; collaborator
// failures are returned as *SubmitError and leave cart and draft in place.
func (s *Session) Submit(ctx context.Context, info domain.CustomerInfo) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout.Submit", trace.WithAttributes(attribute.String("session.id", s.id)))
	defer span.End()

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	sub, err := s.prepareLocked(info)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.pending = true
	s.mu.Unlock()

	s.o.logger.InfoContext(ctx, "submitting order", "session_id", s.id, "items", len(sub.req.Items), "total", domain.FormatMoney(sub.total))
	created, callErr := s.o.orders.CreateOrder(ctx, sub.req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false

	if sub.epoch != s.epoch || s.view.State() != view.StateCheckout {
		orderID := ""
		if created != nil {
			orderID = created.ID.String()
		}
		s.o.logger.WarnContext(ctx, "ignoring late order response", "session_id", s.id, "order_id", orderID, "error", callErr)
		span.SetStatus(codes.Error, ErrStaleSubmission.Error())
		return nil, ErrStaleSubmission
	}

	if callErr != nil {
		submitErr := classifySubmitError(callErr)
		s.submitErr = submitErr
		s.o.logger.WarnContext(ctx, "order submission failed",
			"session_id", s.id, "kind", string(submitErr.Kind), "status", submitErr.Status, "error", callErr)
		span.RecordError(callErr)
		span.SetStatus(codes.Error, string(submitErr.Kind))
		return nil, submitErr
	}

	order := domain.Order{
		ID:        created.ID.String(),
		Lines:     sub.lines,
		Total:     created.TotalAmount,
		Customer:  sub.info,
		Status:    domain.OrderStatusConfirmed,
		CreatedAt: created.CreatedAt.Time,
	}
	if order.Total.IsZero() {
		order.Total = sub.total
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.o.now()
	}

	if err := s.view.Confirm(&order); err != nil {
		return nil, err
	}
	s.cart.Clear()
	s.draft = nil
	s.submitErr = nil
	span.SetAttributes(attribute.String("order.id", order.ID))
	s.o.logger.InfoContext(ctx, "order confirmed", "session_id", s.id, "order_id", order.ID, "total", domain.FormatMoney(order.Total))

	s.o.afterConfirm(s, order, sub.info.PaymentMethod)
	result := order
	return &result, nil
}

type submission struct {
	req   client.CreateOrderRequest
	lines []domain.CartLine
	total decimal.Decimal
	info  domain.CustomerInfo
	epoch uint64
}

// prepareLocked checks the submit preconditions in order and builds the
// request. It never touches the network.
func (s *Session) prepareLocked(info domain.CustomerInfo) (submission, error) {
	if state := s.view.State(); state != view.StateCheckout {
		return submission{}, fmt.Errorf("%w: submit from %s", view.ErrIllegalTransition, state)
	}
	if s.cart.IsEmpty() {
		return submission{}, ErrEmptyCart
	}
	if !s.health.OrderServiceUp {
		return submission{}, ErrServiceUnavailable
	}

	draft := info
	s.draft = &draft
	valid, err := ValidateCustomer(info)
	if err != nil {
		return submission{}, err
	}

	sub := submission{
		lines: s.cart.Lines(),
		total: s.cart.Total(),
		info:  valid,
		epoch: s.epoch,
	}
	sub.req, err = BuildOrderRequest(sub.lines, valid, sub.total)
	if err != nil {
		return submission{}, err
	}
	return sub, nil
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	SessionID     string
	View          view.State
	Lines         []domain.CartLine
	ItemCount     int
	Total         decimal.Decimal
	Health        domain.ServiceHealth
	Order         *domain.Order
	Draft         *domain.CustomerInfo
	LoadError     error
	SubmitError   error
	SubmitPending bool
	Notices       []cart.Notice

	// CatalogLoadedAt is zero until a catalog load succeeded.
	CatalogLoadedAt time.Time
}

// Snapshot returns the current state. Notices are handed out once.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:     s.id,
		View:          s.view.State(),
		Lines:         s.cart.Lines(),
		ItemCount:     s.cart.ItemCount(),
		Total:         s.cart.Total(),
		Health:        s.health,
		LoadError:     s.loadErr,
		SubmitError:   s.submitErr,
		SubmitPending: s.pending,
		Notices:       s.notices,

		CatalogLoadedAt: s.catalog.LoadedAt(),
	}
	if o := s.view.Order(); o != nil {
		order := *o
		snap.Order = &order
	}
	if s.draft != nil {
		draft := *s.draft
		snap.Draft = &draft
	}
	s.notices = nil
	return snap
}
