package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/cartsync/internal/config"
	"github.com/fjod/cartsync/internal/domain"
	"github.com/fjod/cartsync/internal/logger"
	"github.com/fjod/cartsync/internal/stubapi"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configPath := pflag.String("config", "", "path to a TOML config file")
	catalogPath := pflag.String("catalog", "", "path to a JSON product catalog")
	token := pflag.String("token", "dev-token", "bearer token accepted for user 1")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		log.Fatal("failed to load catalog", zap.String("path", *catalogPath), zap.Error(err))
	}

	var (
		carts  stubapi.CartRepository  = stubapi.NewMemoryCartRepository()
		orders stubapi.OrderRepository = stubapi.NewMemoryOrderRepository()
	)
	if cfg.Stub.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Stub.RedisAddr,
			Password: cfg.Stub.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("redis connection failed", zap.String("addr", cfg.Stub.RedisAddr), zap.Error(err))
		}
		log.Info("redis ping succeeded", zap.String("addr", cfg.Stub.RedisAddr))
		carts = stubapi.NewRedisCartRepository(redisClient)
		orders = stubapi.NewRedisOrderRepository(redisClient)
	}

	svc := stubapi.NewService(catalog, carts, orders, log)
	router := stubapi.NewRouter(svc, stubapi.RouterConfig{
		Tokens:         map[string]string{*token: "1"},
		RequestTimeout: cfg.Stub.RequestTimeout,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Stub.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Stub.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("stub sales API starting", zap.String("port", cfg.Stub.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Stub.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("server exited")
}

func loadCatalog(path string) (*stubapi.Catalog, error) {
	if path == "" {
		return defaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return stubapi.LoadCatalog(data)
}

func defaultCatalog() *stubapi.Catalog {
	return stubapi.NewCatalog(
		domain.ProductSummary{ProductID: 1, Name: "Wireless Mouse", UnitPrice: decimal.RequireFromString("19.99"), Stock: 50},
		domain.ProductSummary{ProductID: 2, Name: "Mechanical Keyboard", UnitPrice: decimal.RequireFromString("89.50"), Stock: 20},
		domain.ProductSummary{ProductID: 3, Name: "USB-C Cable", UnitPrice: decimal.RequireFromString("7.25"), Stock: 200},
		domain.ProductSummary{ProductID: 4, Name: "27\" Monitor", UnitPrice: decimal.RequireFromString("249.00"), Stock: 5},
	)
}
