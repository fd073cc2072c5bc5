package cartsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/cartsync/internal/domain"
	"github.com/shopspring/decimal"
)

// statusErr is a backend error carrying an HTTP status.
type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("unexpected status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

type call struct {
	Method      string
	Token       string
	ProductID   int64
	LineID      int64
	Quantity    int
	Description string
}

// mockBackend implements Backend for testing. Static fields configure the
// responses; the optional hooks override them per call.
type mockBackend struct {
	mu    sync.Mutex
	calls []call

	inFlight    int
	maxInFlight int

	GetResp      *domain.CartSnapshot
	GetErr       error
	AddResp      *domain.CartSnapshot
	AddErr       error
	UpdateResp   *domain.CartSnapshot
	UpdateErr    error
	RemoveErr    error
	ClearErr     error
	CheckoutResp *domain.CheckoutResult
	CheckoutErr  error

	// AfterRemove replaces GetResp once a removal succeeds.
	AfterRemove *domain.CartSnapshot

	OnUpdate func(lineID int64, quantity int) (*domain.CartSnapshot, error)
	// Gate, when set, blocks every mutating call until it is closed or
	// receives a value.
	Gate chan struct{}
}

func (m *mockBackend) record(c call) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

func (m *mockBackend) enter() {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	gate := m.Gate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (m *mockBackend) leave() {
	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
}

func (m *mockBackend) Calls() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *mockBackend) Methods() []string {
	calls := m.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Method)
	}
	return out
}

func (m *mockBackend) CountOf(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *mockBackend) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

func (m *mockBackend) getCartLocked() (*domain.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GetResp, m.GetErr
}

func (m *mockBackend) GetCart(_ context.Context, token string) (*domain.CartSnapshot, error) {
	m.record(call{Method: "GetCart", Token: token})
	return m.getCartLocked()
}

func (m *mockBackend) AddItem(_ context.Context, token string, productID int64, quantity int) (*domain.CartSnapshot, error) {
	m.record(call{Method: "AddItem", Token: token, ProductID: productID, Quantity: quantity})
	m.enter()
	defer m.leave()
	if m.AddErr != nil {
		return nil, m.AddErr
	}
	return m.AddResp, nil
}

func (m *mockBackend) UpdateItemQuantity(_ context.Context, token string, lineID int64, quantity int) (*domain.CartSnapshot, error) {
	m.record(call{Method: "UpdateItemQuantity", Token: token, LineID: lineID, Quantity: quantity})
	m.enter()
	defer m.leave()
	if m.OnUpdate != nil {
		return m.OnUpdate(lineID, quantity)
	}
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	return m.UpdateResp, nil
}

func (m *mockBackend) RemoveItem(_ context.Context, token string, lineID int64) error {
	m.record(call{Method: "RemoveItem", Token: token, LineID: lineID})
	m.enter()
	defer m.leave()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.mu.Lock()
	if m.AfterRemove != nil {
		m.GetResp = m.AfterRemove
	}
	m.mu.Unlock()
	return nil
}

func (m *mockBackend) ClearCart(_ context.Context, token string) error {
	m.record(call{Method: "ClearCart", Token: token})
	m.enter()
	defer m.leave()
	return m.ClearErr
}

func (m *mockBackend) Checkout(_ context.Context, token string, description string) (*domain.CheckoutResult, error) {
	m.record(call{Method: "Checkout", Token: token, Description: description})
	m.enter()
	defer m.leave()
	if m.CheckoutErr != nil {
		return nil, m.CheckoutErr
	}
	return m.CheckoutResp, nil
}

func cartWith(lines ...domain.CartLine) *domain.CartSnapshot {
	cart := &domain.CartSnapshot{Items: lines, TotalAmount: decimal.Zero}
	for _, l := range lines {
		cart.TotalItemCount += l.Quantity
		cart.TotalAmount = cart.TotalAmount.Add(l.Subtotal)
	}
	return cart
}

func line(lineID, productID int64, quantity int) domain.CartLine {
	price := decimal.NewFromInt(10)
	return domain.CartLine{
		LineID:    lineID,
		ProductID: productID,
		Quantity:  quantity,
		Product:   &domain.ProductSummary{ProductID: productID, Name: fmt.Sprintf("product-%d", productID), UnitPrice: price},
		Subtotal:  price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}
