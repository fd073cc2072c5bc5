// Command cartctl drives a cart against the sales API from the terminal.
//
//	cartctl [flags] show
//	cartctl [flags] add <product-id> [quantity]
//	cartctl [flags] update <line-id> <quantity>
//	cartctl [flags] remove <line-id>
//	cartctl [flags] clear
//	cartctl [flags] checkout <description...>
//	cartctl [flags] orders [page]
//	cartctl [flags] order <order-id>
//	cartctl [flags] watch [interval]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/cartsync/internal/apiclient"
	"github.com/fjod/cartsync/internal/auth"
	"github.com/fjod/cartsync/internal/cartsync"
	"github.com/fjod/cartsync/internal/config"
	"github.com/fjod/cartsync/internal/history"
	"github.com/fjod/cartsync/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("cartctl", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "path to a TOML config file")
	baseURL := flags.String("base-url", "", "sales API base URL (overrides config)")
	token := flags.String("token", "", "bearer token (overrides config)")
	metrics := flags.Bool("metrics", false, "print synchronizer metrics to stderr on exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}
	if *token != "" {
		cfg.Client.Token = *token
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	app := newApp(cfg, log, stdout)
	if *metrics {
		cartsync.RegisterMetrics()
		defer dumpMetrics(stderr)
	}

	if err := app.dispatch(ctx, flags.Args()); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newApp(cfg *config.Config, log *zap.Logger, out io.Writer) *app {
	client := apiclient.New(apiclient.Config{
		BaseURL:               cfg.Client.BaseURL,
		Timeout:               cfg.Client.Timeout,
		DialTimeout:           cfg.Client.Timeout,
		TLSHandshakeTimeout:   cfg.Client.Timeout,
		ResponseHeaderTimeout: cfg.Client.Timeout,
		BreakerEnabled:        cfg.Client.BreakerEnabled,
	}, apiclient.WithLogger(log))

	provider := auth.Static(cfg.Client.Token)

	opts := []cartsync.Option{cartsync.WithLogger(log)}
	if cfg.Client.Serialize {
		opts = append(opts, cartsync.WithSerializedMutations())
	}

	return &app{
		cart:    cartsync.New(client, provider, opts...),
		history: history.New(client, provider, history.WithPerPage(cfg.Client.PerPage), history.WithLogger(log)),
		out:     out,
	}
}

func dumpMetrics(w io.Writer) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return
		}
	}
}
