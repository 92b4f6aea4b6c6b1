package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/brunorcoelho/storefront/internal/checkout"
	"github.com/brunorcoelho/storefront/internal/view"
	"github.com/go-chi/chi/v5"
)

type Sessions interface {
	Create() *checkout.Session
	Get(id string) (*checkout.Session, error)
	Delete(id string) error
}

type SessionHandler struct {
	sessions      Sessions
	timeout       time.Duration
	submitTimeout time.Duration
	logger        *slog.Logger
}

func NewSessionHandler(sessions Sessions, timeout, submitTimeout time.Duration, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		sessions:      sessions,
		timeout:       timeout,
		submitTimeout: submitTimeout,
		logger:        logger,
	}
}

func (h *SessionHandler) Routes(r chi.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{session_id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/health", h.CheckHealth)
		r.Get("/catalog", h.ListProducts)
		r.Post("/catalog/reload", h.ReloadCatalog)
		r.Post("/cart/items", h.AddItem)
		r.Put("/cart/items/{product_id}", h.UpdateQuantity)
		r.Delete("/cart/items/{product_id}", h.RemoveItem)
		r.Post("/view", h.Navigate)
		r.Post("/checkout", h.Submit)
	})
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "session_id"))
	if err != nil {
		handleError(w, h.logger, err)
		return nil, false
	}
	return s, true
}

// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s := h.sessions.Create()
	// a failed first load is part of the session state, not a request error
	_ = s.Load(ctx)

	h.logger.InfoContext(ctx, "session created", "session_id", s.ID())
	respondJSON(w, http.StatusCreated, toSessionDTO(s.Snapshot()))
}

// GET /api/v1/sessions/{session_id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toSessionDTO(s.Snapshot()))
}

// DELETE /api/v1/sessions/{session_id}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "session_id")); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/sessions/{session_id}/health
func (h *SessionHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	health := s.CheckHealth(ctx)
	respondJSON(w, http.StatusOK, HealthDTO{
		OrderService:     health.OrderServiceUp,
		InventoryService: health.InventoryServiceUp,
		Overall:          health.Overall,
		CheckedAt:        health.CheckedAt,
	})
}

// GET /api/v1/sessions/{session_id}/catalog
func (h *SessionHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toProductDTOs(s.Products()))
}

// POST /api/v1/sessions/{session_id}/catalog/reload
func (h *SessionHandler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := s.Reload(ctx); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductDTOs(s.Products()))
}

// POST /api/v1/sessions/{session_id}/cart/items
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "product_id is required")
		return
	}

	if err := s.AddItem(req.ProductID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionDTO(s.Snapshot()))
}

// PUT /api/v1/sessions/{session_id}/cart/items/{product_id}
func (h *SessionHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "validation_error", "quantity is required")
		return
	}

	if err := s.SetQuantity(chi.URLParam(r, "product_id"), *req.Quantity); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionDTO(s.Snapshot()))
}

// DELETE /api/v1/sessions/{session_id}/cart/items/{product_id}
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.RemoveItem(chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, toSessionDTO(s.Snapshot()))
}

// POST /api/v1/sessions/{session_id}/view
func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req NavigateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}
	ev, err := view.ParseEvent(req.Event)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := s.Navigate(ev); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionDTO(s.Snapshot()))
}

// POST /api/v1/sessions/{session_id}/checkout
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req CustomerDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	// the order must not be abandoned halfway because the shopper's
	// connection dropped
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.submitTimeout)
	defer cancel()

	if _, err := s.Submit(ctx, req.toDomain()); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSessionDTO(s.Snapshot()))
}
