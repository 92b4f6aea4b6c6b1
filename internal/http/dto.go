package http

import (
	"time"

	"github.com/brunorcoelho/storefront/internal/cart"
	"github.com/brunorcoelho/storefront/internal/checkout"
	"github.com/brunorcoelho/storefront/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type NavigateRequestDTO struct {
	Event string `json:"event"`
}

type AddressDTO struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	State   string `json:"state"`
}

type CustomerDTO struct {
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	Address       AddressDTO `json:"address"`
	PaymentMethod string     `json:"payment_method"`
}

type ProductDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	InStock     bool   `json:"in_stock"`
}

type CartLineDTO struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartDTO struct {
	Lines     []CartLineDTO `json:"lines"`
	ItemCount int           `json:"item_count"`
	Total     string        `json:"total"`
}

type HealthDTO struct {
	OrderService     bool      `json:"order_service"`
	InventoryService bool      `json:"inventory_service"`
	Overall          bool      `json:"overall"`
	CheckedAt        time.Time `json:"checked_at"`
}

type OrderDTO struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Total     string        `json:"total"`
	CreatedAt time.Time     `json:"created_at"`
	Lines     []CartLineDTO `json:"lines"`
	Customer  CustomerDTO   `json:"customer"`
}

type SubmitErrorDTO struct {
	Kind    string `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

type NoticeDTO struct {
	Kind      string `json:"kind"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type SessionDTO struct {
	SessionID     string          `json:"session_id"`
	View          string          `json:"view"`
	Cart          CartDTO         `json:"cart"`
	Health        HealthDTO       `json:"health"`
	Order         *OrderDTO       `json:"order,omitempty"`
	CustomerDraft *CustomerDTO    `json:"customer_draft,omitempty"`
	LoadError     string          `json:"load_error,omitempty"`
	SubmitError   *SubmitErrorDTO `json:"submit_error,omitempty"`
	SubmitPending bool            `json:"submit_pending"`
	Notices       []NoticeDTO     `json:"notices,omitempty"`
	CatalogAt     *time.Time      `json:"catalog_loaded_at,omitempty"`
}

func (c CustomerDTO) toDomain() domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:  c.Name,
		Email: c.Email,
		Phone: c.Phone,
		Address: domain.Address{
			Street:  c.Address.Street,
			City:    c.Address.City,
			ZipCode: c.Address.ZipCode,
			State:   c.Address.State,
		},
		PaymentMethod: domain.PaymentMethod(c.PaymentMethod),
	}
}

func toCustomerDTO(c domain.CustomerInfo) CustomerDTO {
	return CustomerDTO{
		Name:  c.Name,
		Email: c.Email,
		Phone: c.Phone,
		Address: AddressDTO{
			Street:  c.Address.Street,
			City:    c.Address.City,
			ZipCode: c.Address.ZipCode,
			State:   c.Address.State,
		},
		PaymentMethod: string(c.PaymentMethod),
	}
}

func toProductDTOs(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, ProductDTO{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       domain.FormatMoney(p.Price),
			Stock:       p.Stock,
			InStock:     p.InStock(),
		})
	}
	return out
}

func toLineDTOs(lines []domain.CartLine) []CartLineDTO {
	out := make([]CartLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, CartLineDTO{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			UnitPrice: domain.FormatMoney(l.Product.Price),
			Quantity:  l.Quantity,
			Subtotal:  domain.FormatMoney(l.Subtotal()),
		})
	}
	return out
}

func toNoticeDTOs(notices []cart.Notice) []NoticeDTO {
	if len(notices) == 0 {
		return nil
	}
	out := make([]NoticeDTO, 0, len(notices))
	for _, n := range notices {
		out = append(out, NoticeDTO{Kind: string(n.Kind), ProductID: n.ProductID, Name: n.Name, Quantity: n.Quantity})
	}
	return out
}

func toSessionDTO(s checkout.Snapshot) SessionDTO {
	dto := SessionDTO{
		SessionID: s.SessionID,
		View:      s.View.String(),
		Cart: CartDTO{
			Lines:     toLineDTOs(s.Lines),
			ItemCount: s.ItemCount,
			Total:     domain.FormatMoney(s.Total),
		},
		Health: HealthDTO{
			OrderService:     s.Health.OrderServiceUp,
			InventoryService: s.Health.InventoryServiceUp,
			Overall:          s.Health.Overall,
			CheckedAt:        s.Health.CheckedAt,
		},
		SubmitPending: s.SubmitPending,
		Notices:       toNoticeDTOs(s.Notices),
	}

	if s.Order != nil {
		dto.Order = &OrderDTO{
			ID:        s.Order.ID,
			Status:    string(s.Order.Status),
			Total:     domain.FormatMoney(s.Order.Total),
			CreatedAt: s.Order.CreatedAt,
			Lines:     toLineDTOs(s.Order.Lines),
			Customer:  toCustomerDTO(s.Order.Customer),
		}
	}
	if s.Draft != nil {
		draft := toCustomerDTO(*s.Draft)
		dto.CustomerDraft = &draft
	}
	if !s.CatalogLoadedAt.IsZero() {
		at := s.CatalogLoadedAt
		dto.CatalogAt = &at
	}
	if s.LoadError != nil {
		dto.LoadError = s.LoadError.Error()
	}
	if se, ok := s.SubmitError.(*checkout.SubmitError); ok && se != nil {
		dto.SubmitError = &SubmitErrorDTO{Kind: string(se.Kind), Status: se.Status, Message: se.Message}
	}
	return dto
}
