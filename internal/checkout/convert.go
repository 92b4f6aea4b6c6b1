package checkout

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/brunorcoelho/storefront/internal/client"
	"github.com/brunorcoelho/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// ParseProductID converts a catalog id to the order collaborator's numeric id.
func ParseProductID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidProductID, id, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w %q: must be positive", ErrInvalidProductID, id)
	}
	return n, nil
}

// FormatAddress flattens an address as "street, city, state zip".
func FormatAddress(a domain.Address) string {
	return fmt.Sprintf("%s, %s, %s %s",
		strings.TrimSpace(a.Street),
		strings.TrimSpace(a.City),
		strings.TrimSpace(a.State),
		strings.TrimSpace(a.ZipCode),
	)
}

// ValidateCustomer trims the form and checks required fields, the email
// address and the payment method.
func ValidateCustomer(info domain.CustomerInfo) (domain.CustomerInfo, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Email = strings.TrimSpace(info.Email)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Address.Street = strings.TrimSpace(info.Address.Street)
	info.Address.City = strings.TrimSpace(info.Address.City)
	info.Address.ZipCode = strings.TrimSpace(info.Address.ZipCode)
	info.Address.State = strings.TrimSpace(info.Address.State)

	if missing := info.MissingFields(); len(missing) > 0 {
		return info, &ValidationError{Fields: missing, Reason: "required fields are missing"}
	}
	if _, err := mail.ParseAddress(info.Email); err != nil {
		return info, &ValidationError{Fields: []string{"email"}, Reason: "email address is invalid"}
	}
	method, err := domain.ParsePaymentMethod(string(info.PaymentMethod))
	if err != nil {
		return info, &ValidationError{Fields: []string{"payment_method"}, Reason: err.Error()}
	}
	info.PaymentMethod = method
	return info, nil
}

// BuildOrderRequest maps a cart snapshot to the order collaborator's request.
func BuildOrderRequest(lines []domain.CartLine, info domain.CustomerInfo, total decimal.Decimal) (client.CreateOrderRequest, error) {
	items := make([]client.OrderItem, 0, len(lines))
	for _, l := range lines {
		id, err := ParseProductID(l.Product.ID)
		if err != nil {
			return client.CreateOrderRequest{}, err
		}
		items = append(items, client.OrderItem{
			ProductID:   id,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			Price:       client.Money(l.Product.Price),
		})
	}

	return client.CreateOrderRequest{
		CustomerName:    info.Name,
		CustomerEmail:   info.Email,
		CustomerAddress: FormatAddress(info.Address),
		CustomerPhone:   info.Phone,
		Items:           items,
		TotalAmount:     client.Money(total),
	}, nil
}
