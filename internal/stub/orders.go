package stub

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// An approved order holds a reservation until it is fulfilled, cancelled or
// the reservation expires.
const (
	OrderStatusApproved  OrderStatus = "APPROVED"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderClosed   = errors.New("order is no longer open")
	ErrTotalMismatch = errors.New("total amount does not match items")
	ErrEmptyOrder    = errors.New("order has no items")
)

type Order struct {
	ID              int64
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	CustomerPhone   string
	Items           []StockItem
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	CreatedAt       time.Time
	ReservationID   string
}

type NewOrder struct {
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	CustomerPhone   string
	Items           []StockItem
	TotalAmount     decimal.Decimal
}

// Orders accepts orders against an Inventory. An order either reserves all
// its stock or is cancelled without touching it.
type Orders struct {
	inventory *Inventory

	mu     sync.RWMutex
	orders map[int64]*Order
	nextID int64
	now    func() time.Time
}

func NewOrders(inventory *Inventory) *Orders {
	return &Orders{
		inventory: inventory,
		orders:    make(map[int64]*Order),
		nextID:    1,
		now:       time.Now,
	}
}

// Create records the order and reserves its stock. It returns the cancelled
// order together with ErrInsufficientStock when stock is short.
func (o *Orders) Create(req NewOrder) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	computed := decimal.Zero
	for _, item := range req.Items {
		computed = computed.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !computed.Equal(req.TotalAmount) {
		return nil, fmt.Errorf("%w: got %s, items sum to %s", ErrTotalMismatch, req.TotalAmount, computed)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	order := &Order{
		ID:              o.nextID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		CustomerPhone:   req.CustomerPhone,
		Items:           req.Items,
		TotalAmount:     computed,
		CreatedAt:       o.now(),
	}
	o.nextID++

	reservation, err := o.inventory.Reserve(strconv.FormatInt(order.ID, 10), req.Items)
	if err != nil {
		order.Status = OrderStatusCancelled
		o.orders[order.ID] = order
		return order, err
	}

	order.Status = OrderStatusApproved
	order.ReservationID = reservation.ID
	o.orders[order.ID] = order
	return order, nil
}

// Get returns the order. An approved order whose reservation expired is
// reported as cancelled.
func (o *Orders) Get(id int64) (*Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lookup(id)
}

// Fulfill turns the order's reservation into a sale.
func (o *Orders) Fulfill(id int64) (*Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	order, err := o.lookup(id)
	if err != nil {
		return nil, err
	}
	if order.Status != OrderStatusApproved {
		return order, ErrOrderClosed
	}

	if err := o.inventory.Confirm(order.ReservationID); err != nil {
		if errors.Is(err, ErrReservationExpired) {
			_ = o.inventory.Expire(order.ReservationID)
			order.Status = OrderStatusCancelled
		}
		return order, err
	}
	order.Status = OrderStatusFulfilled
	return order, nil
}

// Cancel releases the order's reservation.
func (o *Orders) Cancel(id int64) (*Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	order, err := o.lookup(id)
	if err != nil {
		return nil, err
	}
	if order.Status != OrderStatusApproved {
		return order, ErrOrderClosed
	}

	if err := o.inventory.Release(order.ReservationID); err != nil {
		return order, err
	}
	order.Status = OrderStatusCancelled
	return order, nil
}

// lookup runs with mu held.
func (o *Orders) lookup(id int64) (*Order, error) {
	order, ok := o.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if order.Status == OrderStatusApproved {
		if status, ok := o.inventory.ReservationStatus(order.ReservationID); ok && status == StatusExpired {
			order.Status = OrderStatusCancelled
		}
	}
	return order, nil
}
