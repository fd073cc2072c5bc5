package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/cartsync/internal/domain"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("unexpected status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

// mockBackend serves a fixed set of orders split into pages.
type mockBackend struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error

	listCalls []int
	getCalls  []int64
}

func (m *mockBackend) ListOrders(_ context.Context, _ string, page, perPage int) (*domain.OrderPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls = append(m.listCalls, page)
	if m.err != nil {
		return nil, m.err
	}

	totalPages := (len(m.orders) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(m.orders) {
		start = len(m.orders)
	}
	if end > len(m.orders) {
		end = len(m.orders)
	}
	return &domain.OrderPage{
		Orders:     append([]domain.Order{}, m.orders[start:end]...),
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		Total:      len(m.orders),
	}, nil
}

func (m *mockBackend) GetOrder(_ context.Context, _ string, orderID int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls = append(m.getCalls, orderID)
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.orders {
		if m.orders[i].ID == orderID {
			o := m.orders[i]
			return &o, nil
		}
	}
	return nil, statusErr(404)
}

func orders(n int) []domain.Order {
	out := make([]domain.Order, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, domain.Order{ID: int64(i), Description: fmt.Sprintf("order %d", i)})
	}
	return out
}
