package stub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type productResponse struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	Price             json.Number `json:"price"`
	Quantity          int         `json:"quantity"`
	AvailableQuantity int         `json:"availableQuantity"`
}

type orderItemJSON struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type createOrderRequest struct {
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerAddress string          `json:"customerAddress"`
	CustomerPhone   string          `json:"customerPhone"`
	Items           []orderItemJSON `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
}

type orderItemResponse struct {
	ProductID   int64       `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int         `json:"quantity"`
	Price       json.Number `json:"price"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	CustomerName    string              `json:"customerName"`
	CustomerEmail   string              `json:"customerEmail"`
	CustomerAddress string              `json:"customerAddress"`
	CustomerPhone   string              `json:"customerPhone,omitempty"`
	Items           []orderItemResponse `json:"items"`
	TotalAmount     json.Number         `json:"totalAmount"`
	Status          OrderStatus         `json:"status"`
	CreatedAt       string              `json:"createdAt"`
}

type messageResponse struct {
	Message string         `json:"message"`
	Order   *orderResponse `json:"order,omitempty"`
}

// Handler serves both collaborator contracts. Either side can be switched
// to answer 503 to exercise the storefront's degraded paths.
type Handler struct {
	inventory *Inventory
	orders    *Orders
	logger    *slog.Logger

	ordersDown    atomic.Bool
	inventoryDown atomic.Bool
}

func NewHandler(inventory *Inventory, orders *Orders, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inventory: inventory, orders: orders, logger: logger}
}

func (h *Handler) SetOrdersDown(down bool)    { h.ordersDown.Store(down) }
func (h *Handler) SetInventoryDown(down bool) { h.inventoryDown.Store(down) }

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/health", h.health(&h.ordersDown))
		r.Post("/", h.CreateOrder)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/fulfill", h.FulfillOrder)
		r.Post("/{id}/cancel", h.CancelOrder)
	})
	r.Route("/api/inventory", func(r chi.Router) {
		r.Get("/health", h.health(&h.inventoryDown))
		r.Get("/products", h.ListProducts)
	})
}

func (h *Handler) health(down *atomic.Bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if h.inventoryDown.Load() {
		respondJSON(w, http.StatusServiceUnavailable, messageResponse{Message: "inventory service unavailable"})
		return
	}

	products := h.inventory.Products()
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, productResponse{
			ID:                p.ID,
			Name:              p.Name,
			Description:       p.Description,
			Price:             json.Number(p.Price.String()),
			Quantity:          p.Total,
			AvailableQuantity: p.Available(),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if h.ordersDown.Load() {
		respondJSON(w, http.StatusServiceUnavailable, messageResponse{Message: "order service temporarily unavailable"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}

	items := make([]StockItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			respondJSON(w, http.StatusBadRequest, messageResponse{Message: "item quantity must be positive"})
			return
		}
		items = append(items, StockItem{ProductID: item.ProductID, Name: item.ProductName, Price: item.Price, Quantity: item.Quantity})
	}

	order, err := h.orders.Create(NewOrder{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		CustomerPhone:   req.CustomerPhone,
		Items:           items,
		TotalAmount:     req.TotalAmount,
	})
	switch {
	case err == nil:
		h.logger.Info("order approved", "order_id", order.ID, "total", order.TotalAmount.StringFixed(2))
		respondJSON(w, http.StatusCreated, toOrderResponse(order))
	case errors.Is(err, ErrInsufficientStock):
		h.logger.Info("order cancelled", "order_id", order.ID, "reason", err.Error())
		resp := toOrderResponse(order)
		respondJSON(w, http.StatusConflict, messageResponse{Message: "insufficient stock for one or more items", Order: &resp})
	case errors.Is(err, ErrTotalMismatch):
		respondJSON(w, http.StatusConflict, messageResponse{Message: err.Error()})
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrEmptyOrder):
		respondJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
	default:
		h.logger.Error("create order failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.Get)
}

// POST /api/orders/{id}/fulfill
func (h *Handler) FulfillOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.Fulfill)
}

// POST /api/orders/{id}/cancel
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.Cancel)
}

func (h *Handler) orderAction(w http.ResponseWriter, r *http.Request, action func(int64) (*Order, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid order id"})
		return
	}

	order, err := action(id)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, toOrderResponse(order))
	case errors.Is(err, ErrOrderNotFound):
		respondJSON(w, http.StatusNotFound, messageResponse{Message: err.Error()})
	case errors.Is(err, ErrOrderClosed), errors.Is(err, ErrReservationExpired), errors.Is(err, ErrInvalidStatus):
		resp := toOrderResponse(order)
		respondJSON(w, http.StatusConflict, messageResponse{Message: err.Error(), Order: &resp})
	default:
		h.logger.Error("order action failed", "order_id", id, "error", err)
		respondJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

func toOrderResponse(o *Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			Price:       json.Number(item.Price.String()),
		})
	}
	return orderResponse{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerAddress: o.CustomerAddress,
		CustomerPhone:   o.CustomerPhone,
		Items:           items,
		TotalAmount:     json.Number(o.TotalAmount.String()),
		Status:          o.Status,
		CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
