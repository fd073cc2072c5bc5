package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ID        int64           `json:"id_SaleDetail"`
	ProductID int64           `json:"id_Product"`
	Quantity  int             `json:"Quantity"`
	UnitPrice decimal.Decimal `json:"UnitPrice"`
	Subtotal  decimal.Decimal `json:"Subtotal"`
	Product   *ProductSummary `json:"product,omitempty"`
}

// Order is a completed checkout as recorded by the server.
type Order struct {
	ID          int64           `json:"id_Sale"`
	Description string          `json:"DescripcionSale"`
	Total       decimal.Decimal `json:"TotalSale"`
	PlacedAt    time.Time       `json:"DateSale"`
	UserID      int64           `json:"iD_User"`
	Lines       []OrderLine     `json:"sale_details"`
}

// OrderRef identifies the order produced by a successful checkout.
// Order is nil when the server only returned the id.
type OrderRef struct {
	ID    int64
	Order *Order
}

// CheckoutResult is the checkout response body. A transport level success
// can still carry a business failure, see Succeeded.
type CheckoutResult struct {
	OrderID *int64
	Order   *Order
	Message string
}

// Succeeded reports whether the server returned an order reference.
func (r *CheckoutResult) Succeeded() bool {
	return r != nil && (r.OrderID != nil || r.Order != nil)
}

// Ref returns the order reference of a successful checkout.
func (r *CheckoutResult) Ref() *OrderRef {
	if !r.Succeeded() {
		return nil
	}
	ref := &OrderRef{Order: r.Order}
	switch {
	case r.OrderID != nil:
		ref.ID = *r.OrderID
	case r.Order != nil:
		ref.ID = r.Order.ID
	}
	return ref
}

// OrderPage is one page of the user's order history.
type OrderPage struct {
	Orders     []Order
	Page       int
	PerPage    int
	TotalPages int
	Total      int
}
