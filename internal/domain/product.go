// Package domain holds the storefront data model shared by the catalog, cart
// and checkout packages.
package domain

import "github.com/shopspring/decimal"

// Product is a purchasable catalog item. Stock is the quantity that can
// still be sold, i.e. the collaborator's available quantity.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

// InStock reports whether at least one unit can be sold.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// CartLine is one product in the cart. Product is a snapshot taken when the
// line was created.
type CartLine struct {
	Product  Product
	Quantity int
}

// Subtotal returns price × quantity at full precision.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// FormatMoney rounds an amount to two decimal places for display.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
