package apiclient

import (
	"strings"
	"time"

	"github.com/fjod/cartsync/internal/domain"
	"github.com/shopspring/decimal"
)

type AddItemRequestDTO struct {
	ProductID int64 `json:"id_Product"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CheckoutRequestDTO struct {
	Description string `json:"DescripcionSale"`
}

type CheckoutResponseDTO struct {
	Message *string  `json:"message,omitempty"`
	Sale    *SaleDTO `json:"sale,omitempty"`
	SaleID  *int64   `json:"sale_id,omitempty"`
}

// SaleDTO is an order as sent on the wire. DateSale is kept as text since
// the API does not commit to a single timestamp layout.
type SaleDTO struct {
	ID          int64              `json:"id_Sale"`
	Description string             `json:"DescripcionSale"`
	Total       decimal.Decimal    `json:"TotalSale"`
	DateSale    string             `json:"DateSale"`
	UserID      int64              `json:"iD_User"`
	Details     []domain.OrderLine `json:"sale_details"`
}

type PaginationDTO struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

type SalesResponseDTO struct {
	Sales      []SaleDTO      `json:"sales"`
	Pagination *PaginationDTO `json:"pagination,omitempty"`
	Total      int            `json:"total"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate returns the zero time for values in no known layout.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (s *SaleDTO) toDomain() *domain.Order {
	lines := s.Details
	if lines == nil {
		lines = []domain.OrderLine{}
	}
	return &domain.Order{
		ID:          s.ID,
		Description: s.Description,
		Total:       s.Total,
		PlacedAt:    parseDate(s.DateSale),
		UserID:      s.UserID,
		Lines:       lines,
	}
}

func (r *CheckoutResponseDTO) toDomain() *domain.CheckoutResult {
	result := &domain.CheckoutResult{OrderID: r.SaleID}
	if r.Sale != nil {
		result.Order = r.Sale.toDomain()
	}
	if r.Message != nil {
		result.Message = *r.Message
	}
	return result
}

func (r *SalesResponseDTO) toDomain(page, perPage int) *domain.OrderPage {
	out := &domain.OrderPage{
		Orders:     make([]domain.Order, 0, len(r.Sales)),
		Page:       page,
		PerPage:    perPage,
		TotalPages: 1,
		Total:      r.Total,
	}
	for i := range r.Sales {
		out.Orders = append(out.Orders, *r.Sales[i].toDomain())
	}
	if p := r.Pagination; p != nil {
		if p.Page > 0 {
			out.Page = p.Page
		}
		if p.PerPage > 0 {
			out.PerPage = p.PerPage
		}
		if p.TotalPages > 0 {
			out.TotalPages = p.TotalPages
		}
	}
	return out
}

// NewSaleDTO renders an order in wire form.
func NewSaleDTO(o domain.Order) SaleDTO {
	return SaleDTO{
		ID:          o.ID,
		Description: o.Description,
		Total:       o.Total,
		DateSale:    o.PlacedAt.UTC().Format(time.RFC3339),
		UserID:      o.UserID,
		Details:     o.Lines,
	}
}
