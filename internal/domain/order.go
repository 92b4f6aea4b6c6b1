package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is created once the order collaborator accepts a request and is not
// modified afterwards.
type Order struct {
	ID        string
	Lines     []CartLine
	Total     decimal.Decimal
	Customer  CustomerInfo
	Status    OrderStatus
	CreatedAt time.Time
}
