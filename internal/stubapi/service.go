package stubapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fjod/cartsync/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Route names a stub endpoint for fault injection.
type Route string

const (
	RouteGetCart    Route = "get_cart"
	RouteAddItem    Route = "add_item"
	RouteUpdateItem Route = "update_item"
	RouteRemoveItem Route = "remove_item"
	RouteClearCart  Route = "clear_cart"
	RouteCheckout   Route = "checkout"
	RouteListOrders Route = "list_orders"
	RouteGetOrder   Route = "get_order"
)

// Fault is a canned response served instead of the real one.
type Fault struct {
	Status int
	Body   string
}

// Service implements the sales API rules on top of the repositories. All
// mutations go through one lock so stock checks and writes stay consistent.
type Service struct {
	catalog *Catalog
	carts   CartRepository
	orders  OrderRepository
	logger  *zap.Logger
	now     func() time.Time

	mu sync.Mutex

	faultMu         sync.Mutex
	faults          map[Route][]Fault
	businessFailure string
}

func NewService(catalog *Catalog, carts CartRepository, orders OrderRepository, logger *zap.Logger) *Service {
	return &Service{
		catalog: catalog,
		carts:   carts,
		orders:  orders,
		logger:  logger,
		now:     time.Now,
		faults:  make(map[Route][]Fault),
	}
}

// FailNext makes the next request to route answer with status and body.
// Calls queue up: each one is consumed by one request.
func (s *Service) FailNext(route Route, status int, body string) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[route] = append(s.faults[route], Fault{Status: status, Body: body})
}

// SetBusinessFailure makes every checkout answer 200 with message and no
// order until it is called with an empty message.
func (s *Service) SetBusinessFailure(message string) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.businessFailure = message
}

func (s *Service) takeFault(route Route) (Fault, bool) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	queue := s.faults[route]
	if len(queue) == 0 {
		return Fault{}, false
	}
	s.faults[route] = queue[1:]
	return queue[0], true
}

func (s *Service) businessFailureMessage() string {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.businessFailure
}

// GetCart renders the user's cart. A missing or empty cart is ErrCartNotFound.
func (s *Service) GetCart(ctx context.Context, userID string) (*domain.CartSnapshot, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, ErrCartNotFound
	}
	return s.render(cart)
}

// AddItem adds quantity of a product, merging into an existing line.
func (s *Service) AddItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.CartSnapshot, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.catalog.Product(productID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}

	if i, ok := cart.lineForProduct(productID); ok {
		if cart.Lines[i].Quantity+quantity > product.Stock {
			return nil, ErrInsufficientStock
		}
		cart.Lines[i].Quantity += quantity
	} else {
		if quantity > product.Stock {
			return nil, ErrInsufficientStock
		}
		cart.LastLineID++
		cart.Lines = append(cart.Lines, StoredLine{LineID: cart.LastLineID, ProductID: productID, Quantity: quantity})
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.render(cart)
}

// UpdateItem sets the quantity of a line.
func (s *Service) UpdateItem(ctx context.Context, userID string, lineID int64, quantity int) (*domain.CartSnapshot, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		return nil, err
	}
	i, ok := cart.line(lineID)
	if !ok {
		return nil, ErrLineNotFound
	}
	product, err := s.catalog.Product(cart.Lines[i].ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, ErrInsufficientStock
	}
	cart.Lines[i].Quantity = quantity

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.render(cart)
}

func (s *Service) RemoveItem(ctx context.Context, userID string, lineID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return ErrLineNotFound
	}
	if err != nil {
		return err
	}
	i, ok := cart.line(lineID)
	if !ok {
		return ErrLineNotFound
	}
	cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	return s.save(ctx, cart)
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts.DeleteCart(ctx, userID)
}

// Checkout turns the cart into an order, deducts stock, and deletes the
// cart. When a business failure is configured it returns the message and no
// order.
func (s *Service) Checkout(ctx context.Context, userID, description string) (*domain.Order, string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, "", ErrEmptyDescription
	}
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if len(cart.Lines) == 0 {
		return nil, "", ErrCartNotFound
	}
	if msg := s.businessFailureMessage(); msg != "" {
		return nil, msg, nil
	}

	snapshot, err := s.render(cart)
	if err != nil {
		return nil, "", err
	}
	quantities := make(map[int64]int, len(cart.Lines))
	for _, l := range cart.Lines {
		quantities[l.ProductID] += l.Quantity
	}
	if err := s.catalog.Deduct(quantities); err != nil {
		return nil, "", err
	}

	id, err := s.orders.NextOrderID(ctx)
	if err != nil {
		return nil, "", err
	}
	order := domain.Order{
		ID:          id,
		Description: description,
		Total:       snapshot.TotalAmount,
		PlacedAt:    s.now().UTC(),
		UserID:      uid,
		Lines:       make([]domain.OrderLine, 0, len(snapshot.Items)),
	}
	for i, l := range snapshot.Items {
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:        int64(i + 1),
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.UnitPrice,
			Subtotal:  l.Subtotal,
			Product:   l.Product,
		})
	}

	if err := s.orders.AddOrder(ctx, userID, order); err != nil {
		return nil, "", err
	}
	if err := s.carts.DeleteCart(ctx, userID); err != nil {
		s.logger.Warn("failed to delete cart after checkout", zap.String("user_id", userID), zap.Error(err))
	}

	s.logger.Info("sale created",
		zap.String("user_id", userID),
		zap.Int64("sale_id", order.ID),
		zap.String("total", order.Total.String()),
	)
	return &order, "", nil
}

// ListOrders returns one page of the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	all, err := s.orders.ListOrders(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	return all[start:end], totalPages, total, nil
}

func (s *Service) GetOrder(ctx context.Context, userID string, orderID int64) (*domain.Order, error) {
	all, err := s.orders.ListOrders(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == orderID {
			return &all[i], nil
		}
	}
	return nil, ErrOrderNotFound
}

func (s *Service) loadOrNew(ctx context.Context, userID string) (*StoredCart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return &StoredCart{UserID: userID}, nil
	}
	return cart, err
}

func (s *Service) save(ctx context.Context, cart *StoredCart) error {
	cart.UpdatedAt = s.now().UTC()
	return s.carts.SaveCart(ctx, cart)
}

// render prices the stored lines from the catalog.
func (s *Service) render(cart *StoredCart) (*domain.CartSnapshot, error) {
	snapshot := &domain.CartSnapshot{
		Items:       make([]domain.CartLine, 0, len(cart.Lines)),
		TotalAmount: decimal.Zero,
	}
	for _, l := range cart.Lines {
		product, err := s.catalog.Product(l.ProductID)
		if err != nil {
			return nil, err
		}
		subtotal := product.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		snapshot.Items = append(snapshot.Items, domain.CartLine{
			LineID:    l.LineID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Product:   &product,
			Subtotal:  subtotal,
		})
		snapshot.TotalItemCount += l.Quantity
		snapshot.TotalAmount = snapshot.TotalAmount.Add(subtotal)
	}
	return snapshot, nil
}
