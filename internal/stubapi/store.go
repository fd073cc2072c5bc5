package stubapi

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/cartsync/internal/domain"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrLineNotFound      = errors.New("cart item not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("sale not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrEmptyDescription  = errors.New("sale description is required")
	ErrInvalidUserID     = errors.New("user id is not numeric")
)

// StoredLine is a cart line as persisted. Prices are resolved from the
// catalog when the cart is rendered.
type StoredLine struct {
	LineID    int64 `json:"line_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type StoredCart struct {
	UserID     string       `json:"user_id"`
	Lines      []StoredLine `json:"lines"`
	LastLineID int64        `json:"last_line_id"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (c *StoredCart) line(lineID int64) (int, bool) {
	for i := range c.Lines {
		if c.Lines[i].LineID == lineID {
			return i, true
		}
	}
	return -1, false
}

func (c *StoredCart) lineForProduct(productID int64) (int, bool) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i, true
		}
	}
	return -1, false
}

// CartRepository persists carts per user.
type CartRepository interface {
	// GetCart returns ErrCartNotFound when the user has no cart.
	GetCart(ctx context.Context, userID string) (*StoredCart, error)
	SaveCart(ctx context.Context, cart *StoredCart) error
	DeleteCart(ctx context.Context, userID string) error
}

// OrderRepository persists completed orders per user.
type OrderRepository interface {
	NextOrderID(ctx context.Context) (int64, error)
	AddOrder(ctx context.Context, userID string, order domain.Order) error
	// ListOrders returns the user's orders oldest first.
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
}
