package stubapi

import (
	"testing"
	"time"

	"github.com/fjod/cartsync/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	mouseID    int64 = 42
	keyboardID int64 = 43
)

func testCatalog() *Catalog {
	return NewCatalog(
		domain.ProductSummary{ProductID: mouseID, Name: "Mouse", UnitPrice: decimal.RequireFromString("12.50"), Stock: 5},
		domain.ProductSummary{ProductID: keyboardID, Name: "Keyboard", UnitPrice: decimal.NewFromInt(30), Stock: 2},
	)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(testCatalog(), NewMemoryCartRepository(), NewMemoryOrderRepository(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}
