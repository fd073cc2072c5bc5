package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/cartsync/internal/domain"
)

// GET /?page=&per_page=
func (c *Client) ListOrders(ctx context.Context, token string, page, perPage int) (*domain.OrderPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var resp SalesResponseDTO
	if err := c.do(ctx, "list orders", http.MethodGet, "/?"+q.Encode(), token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(page, perPage), nil
}

// GET /{orderID}
func (c *Client) GetOrder(ctx context.Context, token string, orderID int64) (*domain.Order, error) {
	var sale SaleDTO
	path := fmt.Sprintf("/%d", orderID)
	if err := c.do(ctx, "get order", http.MethodGet, path, token, nil, &sale); err != nil {
		return nil, err
	}
	return sale.toDomain(), nil
}
