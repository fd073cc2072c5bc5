package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/cartsync/internal/domain"
)

// POST /checkout
//
// A 2xx response is decoded as is; whether it actually placed an order is
// for the caller to decide from the result. An empty 2xx body is a result
// without an order reference.
func (c *Client) Checkout(ctx context.Context, token string, description string) (*domain.CheckoutResult, error) {
	var resp CheckoutResponseDTO
	body := CheckoutRequestDTO{Description: description}
	err := c.do(ctx, "checkout", http.MethodPost, "/checkout", token, body, &resp)
	if errors.Is(err, errEmptyBody) {
		return &domain.CheckoutResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}
