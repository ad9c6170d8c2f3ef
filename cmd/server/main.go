package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/papertrade/ledger/internal/config"
	"github.com/papertrade/ledger/internal/journal"
	"github.com/papertrade/ledger/internal/ledger"
	"github.com/papertrade/ledger/internal/pricing"
	"github.com/papertrade/ledger/internal/server"
	"github.com/papertrade/ledger/internal/store"
	"github.com/papertrade/ledger/pkg/logger"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		configPath = flag.String("config", getenv("LEDGER_CONFIG", "config.yaml"), "config file path")
		listenAddr = flag.String("listen", "", "HTTP listen address (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.OutputFile,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	st, err := store.Open(store.Options{Path: cfg.DataDir})
	if err != nil {
		logger.Errorf("open store: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	jnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		logger.Errorf("open journal: %v", err)
		os.Exit(1)
	}
	defer jnl.Close()

	var source pricing.Source
	switch cfg.Pricing.Mode {
	case "mock":
		source = pricing.NewMockSource(decimal.NewFromFloat(cfg.Pricing.MockPrice))
	default:
		source = pricing.NewYahooSource(cfg.Pricing.BaseURL, cfg.PricingTimeout())
	}

	engine := ledger.New(st, source, jnl, ledger.Config{
		MarginPerLot:   decimal.NewFromFloat(cfg.Trading.MarginPerLot),
		DefaultLotSize: cfg.Trading.DefaultLotSize,
		LotSizes:       cfg.Trading.LotSizes,
		DepositRate:    decimal.NewFromFloat(cfg.Trading.DepositRate),
	})

	srv := server.New(server.Config{
		Engine:         engine,
		Source:         source,
		Journal:        jnl,
		RequestTimeout: cfg.PricingTimeout() + 5*time.Second,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("ledger listening on %s (pricing=%s)", cfg.Listen, cfg.Pricing.Mode)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)

	logger.Infof("server stopped")
}
