// Package history holds the user's past orders: a paged list and the order
// currently opened for detail. Like the cart mirror, each page is replaced
// wholesale by what the server returns.
package history

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/fjod/cartsync/internal/auth"
	"github.com/fjod/cartsync/internal/domain"
	"github.com/fjod/cartsync/internal/logger"
	"go.uber.org/zap"
)

const DefaultPerPage = 10

const (
	MsgSessionExpired = "session expired"
	MsgLoadFailed     = "failed to load order history"
	MsgOrderNotFound  = "order not found"
	MsgOrderFailed    = "failed to load order"
)

var (
	ErrSessionExpired = errors.New(MsgSessionExpired)
	ErrOrderNotFound  = errors.New(MsgOrderNotFound)
)

type Backend interface {
	ListOrders(ctx context.Context, token string, page, perPage int) (*domain.OrderPage, error)
	GetOrder(ctx context.Context, token string, orderID int64) (*domain.Order, error)
}

type statusCoder interface {
	StatusCode() int
}

func isNotFound(err error) bool {
	var sc statusCoder
	return errors.As(err, &sc) && sc.StatusCode() == http.StatusNotFound
}

type State struct {
	Orders        []domain.Order
	Page          int
	TotalPages    int
	Total         int
	Selected      *domain.Order
	Loading       bool
	LoadingDetail bool
	LastError     string
}

type Option func(*History)

func WithPerPage(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.perPage = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(h *History) {
		h.logger = l
	}
}

func WithOnChange(fn func(State)) Option {
	return func(h *History) {
		h.onChange = fn
	}
}

type History struct {
	backend  Backend
	auth     auth.Provider
	perPage  int
	logger   *zap.Logger
	onChange func(State)

	mu    sync.Mutex
	state State
}

func New(backend Backend, provider auth.Provider, opts ...Option) *History {
	h := &History{
		backend: backend,
		auth:    provider,
		perPage: DefaultPerPage,
		logger:  zap.NewNop(),
		state:   State{Page: 1, TotalPages: 1},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *History) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *History) ClearError() {
	h.update(func(st *State) {
		st.LastError = ""
	})
}

func (h *History) CloseDetail() {
	h.update(func(st *State) {
		st.Selected = nil
	})
}

// Load fetches the given page, clamped to at least 1. A 404 means the user
// has no orders yet. On any other failure the current list is kept.
func (h *History) Load(ctx context.Context, page int) (*domain.OrderPage, error) {
	if page < 1 {
		page = 1
	}
	h.update(func(st *State) {
		st.Loading = true
		st.LastError = ""
	})

	token, ok := h.auth.Credential(ctx)
	if !ok {
		return nil, h.fail(func(st *State) { st.Loading = false }, MsgSessionExpired, ErrSessionExpired)
	}

	result, err := h.backend.ListOrders(ctx, token, page, h.perPage)
	switch {
	case isNotFound(err):
		result = &domain.OrderPage{Orders: []domain.Order{}, Page: 1, PerPage: h.perPage, TotalPages: 1}
	case err != nil:
		logger.WithTrace(ctx, h.logger).Warn("order history load failed", zap.Int("page", page), zap.Error(err))
		return nil, h.fail(func(st *State) { st.Loading = false }, MsgLoadFailed, fmt.Errorf("load order history: %w", err))
	}

	h.update(func(st *State) {
		st.Loading = false
		st.Orders = result.Orders
		st.Page = result.Page
		st.TotalPages = result.TotalPages
		st.Total = result.Total
	})
	return result, nil
}

// Next loads the following page. It is a no-op on the last page.
func (h *History) Next(ctx context.Context) (*domain.OrderPage, error) {
	st := h.State()
	if st.Page >= st.TotalPages {
		return nil, nil
	}
	return h.Load(ctx, st.Page+1)
}

// Previous loads the preceding page. It is a no-op on the first page.
func (h *History) Previous(ctx context.Context) (*domain.OrderPage, error) {
	st := h.State()
	if st.Page <= 1 {
		return nil, nil
	}
	return h.Load(ctx, st.Page-1)
}

// Open fetches one order and makes it the selected detail.
func (h *History) Open(ctx context.Context, orderID int64) (*domain.Order, error) {
	h.update(func(st *State) {
		st.LoadingDetail = true
		st.LastError = ""
	})
	done := func(st *State) { st.LoadingDetail = false }

	token, ok := h.auth.Credential(ctx)
	if !ok {
		return nil, h.fail(done, MsgSessionExpired, ErrSessionExpired)
	}

	order, err := h.backend.GetOrder(ctx, token, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, h.fail(done, MsgOrderNotFound, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound))
		}
		logger.WithTrace(ctx, h.logger).Warn("order load failed", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, h.fail(done, MsgOrderFailed, fmt.Errorf("load order %d: %w", orderID, err))
	}

	h.update(func(st *State) {
		st.LoadingDetail = false
		st.Selected = order
	})
	return order, nil
}

func (h *History) fail(fn func(st *State), msg string, err error) error {
	h.update(func(st *State) {
		fn(st)
		st.LastError = msg
	})
	return err
}

func (h *History) update(fn func(st *State)) {
	h.mu.Lock()
	fn(&h.state)
	st := h.state
	h.mu.Unlock()

	if h.onChange != nil {
		h.onChange(st)
	}
}
