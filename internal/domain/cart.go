package domain

import "github.com/shopspring/decimal"

// ProductSummary is the product data denormalized onto a cart line at
// snapshot time. It is not reconciled against the live catalog.
type ProductSummary struct {
	ProductID int64           `json:"id_Product"`
	Name      string          `json:"ProductName"`
	UnitPrice decimal.Decimal `json:"Price"`
	Stock     int             `json:"Stock"`
}

// CartLine is one product-and-quantity entry in a cart snapshot.
type CartLine struct {
	LineID    int64           `json:"id_cart_item"`
	ProductID int64           `json:"id_Product"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartSnapshot is the full cart as last confirmed by the server.
// Snapshots are replaced wholesale and never patched in place.
type CartSnapshot struct {
	Items          []CartLine      `json:"items"`
	TotalItemCount int             `json:"total_items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// EmptyCart returns the locally constructed empty cart.
func EmptyCart() *CartSnapshot {
	return &CartSnapshot{
		Items:          []CartLine{},
		TotalItemCount: 0,
		TotalAmount:    decimal.Zero,
	}
}

// ItemCount returns the server reported number of items.
func (c *CartSnapshot) ItemCount() int {
	if c == nil {
		return 0
	}
	return c.TotalItemCount
}

// Total returns the server reported cart amount.
func (c *CartSnapshot) Total() decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	return c.TotalAmount
}

// IsEmpty reports whether the cart is absent or has no lines.
func (c *CartSnapshot) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *CartSnapshot) HasProduct(productID int64) bool {
	if c == nil {
		return false
	}
	for _, line := range c.Items {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}

// ProductQuantity returns the quantity of the first line holding productID.
// The server merges lines per product, so there is at most one.
func (c *CartSnapshot) ProductQuantity(productID int64) int {
	if c == nil {
		return 0
	}
	for _, line := range c.Items {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

func (c *CartSnapshot) Line(lineID int64) (CartLine, bool) {
	if c == nil {
		return CartLine{}, false
	}
	for _, line := range c.Items {
		if line.LineID == lineID {
			return line, true
		}
	}
	return CartLine{}, false
}
