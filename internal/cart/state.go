// Package cart holds the shopper's cart: one line per product with derived
// totals.
package cart

import (
	"errors"

	"github.com/brunorcoelho/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock   = errors.New("product is out of stock")
	ErrStockLimit   = errors.New("quantity exceeds available stock")
	ErrLineNotFound = errors.New("product not in cart")
)

type NoticeKind string

const (
	NoticeAdded      NoticeKind = "added"
	NoticeUpdated    NoticeKind = "updated"
	NoticeRemoved    NoticeKind = "removed"
	NoticeLimited    NoticeKind = "limited"
	NoticeOutOfStock NoticeKind = "out_of_stock"
)

// Notice describes one cart mutation (or rejected mutation) for UI feedback.
type Notice struct {
	Kind      NoticeKind
	ProductID string
	Name      string
	Quantity  int
}

// Notifier receives notices. It is called with the cart's lock held
// by the owner, so it must not call back into the cart.
type Notifier func(Notice)

// StockLookup resolves the current catalog entry of a product.
type StockLookup interface {
	Lookup(id string) (domain.Product, bool)
}

// State is not safe for concurrent use; the owning session serializes access.
type State struct {
	lines  []domain.CartLine
	stock  StockLookup
	notify Notifier
}

// New creates an empty cart. stock and notify may be nil.
func New(stock StockLookup, notify Notifier) *State {
	return &State{stock: stock, notify: notify}
}

// Add puts one unit of product into the cart. An existing line takes the
// latest catalog entry, so a reloaded price is the one that gets ordered.
func (s *State) Add(product domain.Product) error {
	if product.Stock <= 0 {
		s.emit(NoticeOutOfStock, product, 0)
		return ErrOutOfStock
	}

	i := s.index(product.ID)
	if i < 0 {
		s.lines = append(s.lines, domain.CartLine{Product: product, Quantity: 1})
		s.emit(NoticeAdded, product, 1)
		return nil
	}

	line := &s.lines[i]
	if line.Quantity+1 > product.Stock {
		s.emit(NoticeLimited, product, line.Quantity)
		return ErrStockLimit
	}
	line.Product = product
	line.Quantity++
	s.emit(NoticeAdded, line.Product, line.Quantity)
	return nil
}

// SetQuantity overwrites the quantity of an existing line. A quantity above
// the product's current stock is rejected, never clamped.
func (s *State) SetQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		s.Remove(productID)
		return nil
	}

	i := s.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}

	line := &s.lines[i]
	if quantity > s.currentStock(line.Product) {
		s.emit(NoticeLimited, line.Product, line.Quantity)
		return ErrStockLimit
	}
	line.Quantity = quantity
	s.emit(NoticeUpdated, line.Product, quantity)
	return nil
}

// Remove deletes the line for productID; it is a no-op if there is none.
func (s *State) Remove(productID string) {
	i := s.index(productID)
	if i < 0 {
		return
	}
	removed := s.lines[i]
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.emit(NoticeRemoved, removed.Product, 0)
}

// Total is the exact sum of price × quantity.
func (s *State) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *State) ItemCount() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *State) IsEmpty() bool {
	return len(s.lines) == 0
}

// Lines returns a copy of the lines in insertion order.
func (s *State) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *State) Quantity(productID string) int {
	if i := s.index(productID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

func (s *State) Clear() {
	s.lines = nil
}

func (s *State) index(productID string) int {
	for i, l := range s.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *State) currentStock(snapshot domain.Product) int {
	if s.stock != nil {
		if p, ok := s.stock.Lookup(snapshot.ID); ok {
			return p.Stock
		}
	}
	return snapshot.Stock
}

func (s *State) emit(kind NoticeKind, p domain.Product, qty int) {
	if s.notify == nil {
		return
	}
	s.notify(Notice{Kind: kind, ProductID: p.ID, Name: p.Name, Quantity: qty})
}
