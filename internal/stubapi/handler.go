package stubapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/cartsync/internal/apiclient"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Handler struct {
	svc     *Service
	timeout time.Duration
	logger  *zap.Logger
}

func NewHandler(svc *Service, timeout time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		svc:     svc,
		timeout: timeout,
		logger:  logger,
	}
}

// GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, RouteGetCart) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.svc.GetCart(ctx, userIDFrom(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, RouteGetCart, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cart)
}

// POST /cart/add
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, RouteAddItem) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req apiclient.AddItemRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	cart, err := h.svc.AddItem(ctx, userIDFrom(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		h.handleServiceError(w, r, RouteAddItem, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cart)
}

// PUT /cart/update/{id}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, RouteUpdateItem) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req apiclient.UpdateQuantityRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	cart, err := h.svc.UpdateItem(ctx, userIDFrom(r.Context()), lineID, req.Quantity)
	if err != nil {
		h.handleServiceError(w, r, RouteUpdateItem, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cart)
}

// DELETE /cart/remove/{id}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, RouteRemoveItem) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveItem(ctx, userIDFrom(r.Context()), lineID); err != nil {
		h.handleServiceError(w, r, RouteRemoveItem, err)
		return
	}
	h.respondJSON(w, http.StatusOK, MessageResponse{Message: "item removed from cart"})
}

// DELETE /cart/clear
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, RouteClearCart) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.svc.ClearCart(ctx, userIDFrom(r.Context())); err != nil {
		h.handleServiceError(w, r, RouteClearCart, err)
		return
	}
	h.respondJSON(w, http.StatusOK, MessageResponse{Message: "cart cleared"})
}

// POST /checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, RouteCheckout) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req apiclient.CheckoutRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	order, message, err := h.svc.Checkout(ctx, userIDFrom(r.Context()), req.Description)
	if err != nil {
		h.handleServiceError(w, r, RouteCheckout, err)
		return
	}
	if order == nil {
		h.respondJSON(w, http.StatusOK, apiclient.CheckoutResponseDTO{Message: &message})
		return
	}

	sale := apiclient.NewSaleDTO(*order)
	created := "sale created successfully"
	h.respondJSON(w, http.StatusCreated, apiclient.CheckoutResponseDTO{
		Message: &created,
		Sale:    &sale,
		SaleID:  &order.ID,
	})
}

// GET /?page=&per_page=
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, RouteListOrders) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 10)

	orders, totalPages, total, err := h.svc.ListOrders(ctx, userIDFrom(r.Context()), page, perPage)
	if err != nil {
		h.handleServiceError(w, r, RouteListOrders, err)
		return
	}

	sales := make([]apiclient.SaleDTO, 0, len(orders))
	for _, o := range orders {
		sales = append(sales, apiclient.NewSaleDTO(o))
	}
	h.respondJSON(w, http.StatusOK, apiclient.SalesResponseDTO{
		Sales:      sales,
		Pagination: &apiclient.PaginationDTO{Page: page, PerPage: perPage, TotalPages: totalPages},
		Total:      total,
	})
}

// GET /{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, RouteGetOrder) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	order, err := h.svc.GetOrder(ctx, userIDFrom(r.Context()), orderID)
	if err != nil {
		h.handleServiceError(w, r, RouteGetOrder, err)
		return
	}
	h.respondJSON(w, http.StatusOK, apiclient.NewSaleDTO(*order))
}

// fault writes an injected response, if one is queued for route.
func (h *Handler) fault(w http.ResponseWriter, route Route) bool {
	f, ok := h.svc.takeFault(route)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.Status)
	_, _ = w.Write([]byte(f.Body))
	return true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid_argument", "invalid id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts service errors to HTTP statuses. Insufficient
// stock is a 400 while editing the cart and a 409 at checkout.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, route Route, err error) {
	var (
		status int
		code   string
	)

	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrEmptyDescription):
		status, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, ErrInsufficientStock) && route == RouteCheckout:
		status, code = http.StatusConflict, "insufficient_stock"
	case errors.Is(err, ErrInsufficientStock):
		status, code = http.StatusBadRequest, "insufficient_stock"
	case errors.Is(err, ErrCartNotFound), errors.Is(err, ErrLineNotFound),
		errors.Is(err, ErrProductNotFound), errors.Is(err, ErrOrderNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	default:
		h.logger.Error("request failed",
			zap.String("route", string(route)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	h.respondError(w, status, code, err.Error())
}
