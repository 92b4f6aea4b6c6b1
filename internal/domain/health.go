package domain

import "time"

// ServiceHealth is the result of one probe round against both collaborators.
type ServiceHealth struct {
	OrderServiceUp     bool
	InventoryServiceUp bool
	Overall            bool
	CheckedAt          time.Time
}

func NewServiceHealth(orderUp, inventoryUp bool, at time.Time) ServiceHealth {
	return ServiceHealth{
		OrderServiceUp:     orderUp,
		InventoryServiceUp: inventoryUp,
		Overall:            orderUp && inventoryUp,
		CheckedAt:          at,
	}
}
