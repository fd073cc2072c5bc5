package cartsync

import (
	"context"

	"github.com/fjod/cartsync/internal/domain"
)

// Backend is the server-authoritative cart API. Implementations report
// non-2xx responses with an error implementing StatusCoder.
type Backend interface {
	GetCart(ctx context.Context, token string) (*domain.CartSnapshot, error)
	AddItem(ctx context.Context, token string, productID int64, quantity int) (*domain.CartSnapshot, error)
	UpdateItemQuantity(ctx context.Context, token string, lineID int64, quantity int) (*domain.CartSnapshot, error)
	// RemoveItem and ClearCart responses carry no usable cart.
	RemoveItem(ctx context.Context, token string, lineID int64) error
	ClearCart(ctx context.Context, token string) error
	Checkout(ctx context.Context, token string, description string) (*domain.CheckoutResult, error)
}

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}
