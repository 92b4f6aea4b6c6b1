// Package stub is an in-memory stand-in for the order and inventory
// collaborators, used for local development and tests.
package stub

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// ReservationTTL is how long a reservation is valid before auto-expiring
	ReservationTTL = 5 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = 30 * time.Second
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidStatus       = errors.New("invalid reservation status")
	ErrReservationExpired  = errors.New("reservation expired")
)

type ReservationStatus string

const (
	StatusReserved  ReservationStatus = "reserved"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusReleased  ReservationStatus = "released"
	StatusExpired   ReservationStatus = "expired"
)

type StockItem struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

type Reservation struct {
	ID        string
	OrderRef  string
	Items     []StockItem
	Status    ReservationStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (r *Reservation) isExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Product is one inventory record. Available is Total minus Reserved.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Total       int
	Reserved    int
}

func (p Product) Available() int {
	return p.Total - p.Reserved
}

// Inventory holds stock with reservation semantics: reserved units stay in
// Total until confirmed but are no longer available.
type Inventory struct {
	mu           sync.RWMutex
	products     map[int64]*Product
	reservations map[string]*Reservation
	now          func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewInventory(products []Product) *Inventory {
	inv := &Inventory{
		products:     make(map[int64]*Product, len(products)),
		reservations: make(map[string]*Reservation),
		now:          time.Now,
		stopCleanup:  make(chan struct{}),
	}
	for _, p := range products {
		inv.SetProduct(p)
	}

	inv.wg.Add(1)
	go inv.cleanupLoop()

	return inv
}

func (inv *Inventory) cleanupLoop() {
	defer inv.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			inv.expireReservations()
		case <-inv.stopCleanup:
			return
		}
	}
}

func (inv *Inventory) expireReservations() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	now := inv.now()
	for _, r := range inv.reservations {
		if r.Status == StatusReserved && r.isExpired(now) {
			inv.expireLocked(r)
		}
	}
}

func (inv *Inventory) expireLocked(r *Reservation) {
	r.Status = StatusExpired
	for _, item := range r.Items {
		inv.products[item.ProductID].Reserved -= item.Quantity
	}
}

// Expire returns the stock of a reservation past its deadline without
// waiting for the next cleanup run.
func (inv *Inventory) Expire(reservationID string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	r, ok := inv.reservations[reservationID]
	if !ok {
		return ErrReservationNotFound
	}
	if r.Status != StatusReserved {
		return ErrInvalidStatus
	}
	if !r.isExpired(inv.now()) {
		return ErrInvalidStatus
	}
	inv.expireLocked(r)
	return nil
}

func (inv *Inventory) ReservationStatus(reservationID string) (ReservationStatus, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	r, ok := inv.reservations[reservationID]
	if !ok {
		return "", false
	}
	return r.Status, true
}

func (inv *Inventory) SetProduct(p Product) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	p.Reserved = 0
	inv.products[p.ID] = &p
}

// Products returns every product ordered by id.
func (inv *Inventory) Products() []Product {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]Product, 0, len(inv.products))
	for _, p := range inv.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (inv *Inventory) Product(id int64) (Product, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	p, ok := inv.products[id]
	if !ok {
		return Product{}, false
	}
	return *p, true
}

// Reserve holds stock for every item or for none of them.
func (inv *Inventory) Reserve(orderRef string, items []StockItem) (*Reservation, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	// same product may appear on several lines
	wanted := make(map[int64]int, len(items))
	for _, item := range items {
		if _, ok := inv.products[item.ProductID]; !ok {
			return nil, ErrProductNotFound
		}
		wanted[item.ProductID] += item.Quantity
	}
	for id, qty := range wanted {
		if inv.products[id].Available() < qty {
			return nil, ErrInsufficientStock
		}
	}

	for id, qty := range wanted {
		inv.products[id].Reserved += qty
	}

	now := inv.now()
	r := &Reservation{
		ID:        uuid.NewString(),
		OrderRef:  orderRef,
		Items:     items,
		Status:    StatusReserved,
		CreatedAt: now,
		ExpiresAt: now.Add(ReservationTTL),
	}
	inv.reservations[r.ID] = r
	return r, nil
}

// Confirm turns a reservation into a sale.
func (inv *Inventory) Confirm(reservationID string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	r, ok := inv.reservations[reservationID]
	if !ok {
		return ErrReservationNotFound
	}
	if r.Status != StatusReserved {
		return ErrInvalidStatus
	}
	if r.isExpired(inv.now()) {
		return ErrReservationExpired
	}

	for _, item := range r.Items {
		p := inv.products[item.ProductID]
		p.Total -= item.Quantity
		p.Reserved -= item.Quantity
	}
	r.Status = StatusConfirmed
	return nil
}

// Release returns reserved stock to the available pool.
func (inv *Inventory) Release(reservationID string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	r, ok := inv.reservations[reservationID]
	if !ok {
		return ErrReservationNotFound
	}
	if r.Status != StatusReserved {
		return ErrInvalidStatus
	}

	for _, item := range r.Items {
		inv.products[item.ProductID].Reserved -= item.Quantity
	}
	r.Status = StatusReleased
	return nil
}

// Close stops the background cleanup and waits for it to finish
func (inv *Inventory) Close() error {
	inv.stopOnce.Do(func() { close(inv.stopCleanup) })
	inv.wg.Wait()
	return nil
}
