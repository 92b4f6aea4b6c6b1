package domain

import (
	"fmt"
	"strings"
)

type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentPix    PaymentMethod = "pix"
)

// ParsePaymentMethod accepts the three supported methods. An empty value
// selects credit, which is what the checkout form preselects.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", PaymentCredit:
		return PaymentCredit, nil
	case PaymentDebit:
		return PaymentDebit, nil
	case PaymentPix:
		return PaymentPix, nil
	}
	return "", fmt.Errorf("unsupported payment method %q", s)
}

type Address struct {
	Street  string
	City    string
	ZipCode string
	State   string
}

// CustomerInfo is the checkout form. It only lives for the current checkout
// attempt.
type CustomerInfo struct {
	Name          string
	Email         string
	Phone         string
	Address       Address
	PaymentMethod PaymentMethod
}

// MissingFields lists the required fields that are blank, using the form's
// field paths. Phone is optional.
func (c CustomerInfo) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"name", c.Name},
		{"email", c.Email},
		{"address.street", c.Address.Street},
		{"address.city", c.Address.City},
		{"address.zip_code", c.Address.ZipCode},
		{"address.state", c.Address.State},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
