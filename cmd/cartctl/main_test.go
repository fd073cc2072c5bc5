package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/cartsync/internal/domain"
	"github.com/fjod/cartsync/internal/stubapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToken = "cli-token"

func startStub(t *testing.T) string {
	t.Helper()
	catalog := stubapi.NewCatalog(
		domain.ProductSummary{ProductID: 1, Name: "Mouse", UnitPrice: decimal.RequireFromString("19.99"), Stock: 10},
	)
	svc := stubapi.NewService(catalog, stubapi.NewMemoryCartRepository(), stubapi.NewMemoryOrderRepository(), zap.NewNop())
	srv := httptest.NewServer(stubapi.NewRouter(svc, stubapi.RouterConfig{
		Tokens:         map[string]string{testToken: "1"},
		RequestTimeout: time.Second,
	}, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv.URL + "/api/sales"
}

func cartctl(t *testing.T, baseURL string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("CARTSYNC_LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	full := append([]string{"--base-url", baseURL, "--token", testToken}, args...)
	code := run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_CartCommands(t *testing.T) {
	baseURL := startStub(t)

	code, out, _ := cartctl(t, baseURL, "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "cart is empty")

	code, out, _ = cartctl(t, baseURL, "add", "1", "2")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "item added to cart")
	assert.Contains(t, out, "Mouse")
	assert.Contains(t, out, "2 items, total 39.98")

	code, out, _ = cartctl(t, baseURL, "update", "1", "3")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "quantity updated")
	assert.Contains(t, out, "3 items, total 59.97")

	code, out, _ = cartctl(t, baseURL, "checkout", "birthday", "gift")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "order placed successfully: order #1")

	code, out, _ = cartctl(t, baseURL, "orders")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "birthday gift")
	assert.Contains(t, out, "page 1 of 1 (1 orders)")

	code, out, _ = cartctl(t, baseURL, "order", "1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "order #1")
	assert.Contains(t, out, "total 59.97")
}

func TestRun_Errors(t *testing.T) {
	baseURL := startStub(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no command", nil, "usage"},
		{"unknown command", []string{"frobnicate"}, "usage"},
		{"bad product id", []string{"add", "x", "1"}, `invalid id "x"`},
		{"zero quantity", []string{"add", "1", "0"}, "quantity must be at least 1"},
		{"unknown product", []string{"add", "9", "1"}, "product not found"},
		{"empty checkout", []string{"checkout", "gift"}, "cart is empty"},
		{"missing order", []string{"order", "5"}, "order not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := cartctl(t, baseURL, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tt.wantErr)
		})
	}
}

func TestRun_WithoutTokenIsSessionExpired(t *testing.T) {
	baseURL := startStub(t)
	t.Setenv("CARTSYNC_LOG_LEVEL", "error")
	t.Setenv("CARTSYNC_TOKEN", "")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--base-url", baseURL, "show"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "session expired")
}

func TestRun_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--nope"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
}

func TestRun_Metrics(t *testing.T) {
	baseURL := startStub(t)

	code, _, errOut := cartctl(t, baseURL, "--metrics", "show")

	require.Equal(t, 0, code)
	assert.Contains(t, errOut, `cartsync_operations_total{operation="load_cart",outcome="success"}`)
}

func TestRun_AddDefaultsToOne(t *testing.T) {
	baseURL := startStub(t)

	code, out, _ := cartctl(t, baseURL, "add", "1")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "1 items, total 19.99")
}

func TestWatcher_PrintsOnlyChanges(t *testing.T) {
	baseURL := startStub(t)
	t.Setenv("CARTSYNC_LOG_LEVEL", "error")
	code, _, _ := cartctl(t, baseURL, "add", "1", "2")
	require.Equal(t, 0, code)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var stdout, stderr bytes.Buffer
	code = run(ctx, []string{"--base-url", baseURL, "--token", testToken, "watch", "20ms"}, &stdout, &stderr)

	require.Equal(t, 0, code)
	assert.Equal(t, 1, strings.Count(stdout.String(), "2 items, total 39.98"), stdout.String())
}

func TestRun_WatchBadInterval(t *testing.T) {
	baseURL := startStub(t)

	code, _, errOut := cartctl(t, baseURL, "watch", "soon")

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `invalid interval "soon"`)
}

func TestRun_BaseURLOverrideIsValidated(t *testing.T) {
	t.Setenv("CARTSYNC_LOG_LEVEL", "error")

	for _, baseURL := range []string{"/api/sales", "not a url"} {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"--base-url", baseURL, "--token", testToken, "show"}, &stdout, &stderr)

		assert.Equal(t, 1, code, baseURL)
		assert.Contains(t, stderr.String(), "is not an absolute URL", baseURL)
		assert.Empty(t, stdout.String())
	}
}
