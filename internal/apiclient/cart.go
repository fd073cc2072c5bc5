package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/cartsync/internal/domain"
)

// GET /cart
func (c *Client) GetCart(ctx context.Context, token string) (*domain.CartSnapshot, error) {
	var cart domain.CartSnapshot
	if err := c.do(ctx, "get cart", http.MethodGet, "/cart", token, nil, &cart); err != nil {
		return nil, err
	}
	return normalize(&cart), nil
}

// POST /cart/add
func (c *Client) AddItem(ctx context.Context, token string, productID int64, quantity int) (*domain.CartSnapshot, error) {
	var cart domain.CartSnapshot
	body := AddItemRequestDTO{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, "add item", http.MethodPost, "/cart/add", token, body, &cart); err != nil {
		return nil, err
	}
	return normalize(&cart), nil
}

// PUT /cart/update/{lineID}
func (c *Client) UpdateItemQuantity(ctx context.Context, token string, lineID int64, quantity int) (*domain.CartSnapshot, error) {
	var cart domain.CartSnapshot
	body := UpdateQuantityRequestDTO{Quantity: quantity}
	path := fmt.Sprintf("/cart/update/%d", lineID)
	if err := c.do(ctx, "update quantity", http.MethodPut, path, token, body, &cart); err != nil {
		return nil, err
	}
	return normalize(&cart), nil
}

// DELETE /cart/remove/{lineID}
func (c *Client) RemoveItem(ctx context.Context, token string, lineID int64) error {
	path := fmt.Sprintf("/cart/remove/%d", lineID)
	return c.do(ctx, "remove item", http.MethodDelete, path, token, nil, nil)
}

// DELETE /cart/clear
func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, "clear cart", http.MethodDelete, "/cart/clear", token, nil, nil)
}

// normalize makes an absent items array an empty one.
func normalize(cart *domain.CartSnapshot) *domain.CartSnapshot {
	if cart.Items == nil {
		cart.Items = []domain.CartLine{}
	}
	return cart
}
