package stubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fjod/cartsync/internal/domain"
)

// MemoryCartRepository implements CartRepository with in-memory storage.
// Carts are copied on the way in and out so callers never share state.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*StoredCart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*StoredCart)}
}

func (r *MemoryCartRepository) GetCart(_ context.Context, userID string) (*StoredCart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cart, ok := r.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cloneCart(cart), nil
}

func (r *MemoryCartRepository) SaveCart(_ context.Context, cart *StoredCart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.UserID] = cloneCart(cart)
	return nil
}

func (r *MemoryCartRepository) DeleteCart(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}

func cloneCart(c *StoredCart) *StoredCart {
	out := *c
	out.Lines = append([]StoredLine(nil), c.Lines...)
	return &out
}

// MemoryOrderRepository implements OrderRepository with in-memory storage.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	lastID int64
	orders map[string][]domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string][]domain.Order)}
}

func (r *MemoryOrderRepository) NextOrderID(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastID++
	return r.lastID, nil
}

func (r *MemoryOrderRepository) AddOrder(_ context.Context, userID string, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[userID] = append(r.orders[userID], order)
	return nil
}

func (r *MemoryOrderRepository) ListOrders(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Order(nil), r.orders[userID]...), nil
}

// Catalog holds the products that can be added to a cart and their stock.
type Catalog struct {
	mu       sync.RWMutex
	products map[int64]domain.ProductSummary
}

func NewCatalog(products ...domain.ProductSummary) *Catalog {
	c := &Catalog{products: make(map[int64]domain.ProductSummary, len(products))}
	for _, p := range products {
		c.products[p.ProductID] = p
	}
	return c
}

// LoadCatalog reads a JSON array of products.
func LoadCatalog(data []byte) (*Catalog, error) {
	var products []domain.ProductSummary
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(products...), nil
}

func (c *Catalog) SetProduct(p domain.ProductSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ProductID] = p
}

func (c *Catalog) Product(productID int64) (domain.ProductSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	if !ok {
		return domain.ProductSummary{}, ErrProductNotFound
	}
	return p, nil
}

// Deduct removes sold quantities from stock. Either every line fits or
// nothing changes.
func (c *Catalog) Deduct(quantities map[int64]int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, qty := range quantities {
		p, ok := c.products[id]
		if !ok {
			return fmt.Errorf("product %d: %w", id, ErrProductNotFound)
		}
		if p.Stock < qty {
			return fmt.Errorf("product %d: %w", id, ErrInsufficientStock)
		}
	}
	for id, qty := range quantities {
		p := c.products[id]
		p.Stock -= qty
		c.products[id] = p
	}
	return nil
}
