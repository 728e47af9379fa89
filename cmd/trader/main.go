package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/polyexpiry/config"
	"github.com/alejandrodnm/polyexpiry/internal/adapters/notify"
	"github.com/alejandrodnm/polyexpiry/internal/adapters/onchain"
	"github.com/alejandrodnm/polyexpiry/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyexpiry/internal/adapters/storage"
	"github.com/alejandrodnm/polyexpiry/internal/application/scanner"
	"github.com/alejandrodnm/polyexpiry/internal/application/trader"
	"github.com/alejandrodnm/polyexpiry/internal/domain/strategy"
	"github.com/alejandrodnm/polyexpiry/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trade cycle and exit")
	testOnly := flag.Bool("test-only", false, "run every check but simulate the orders")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the opportunity table (overrides config)")
	hours := flag.Float64("hours", 0, "scan markets ending within the next N hours")
	start := flag.Float64("start", -1, "window start in minutes remaining")
	end := flag.Float64("end", -1, "window end in minutes remaining")
	all := flag.Bool("all", false, "scan every open market regardless of time remaining")
	maxTrades := flag.Int("max-trades", -1, "successful trades per cycle (overrides config; 0 = none)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *testOnly {
		cfg.Trader.TestOnly = true
	}
	if *table {
		cfg.Notify.Table = true
	}
	if *maxTrades >= 0 {
		cfg.Trader.MaxTrades = *maxTrades
	}
	setupLogger(cfg.Log)

	window, err := buildWindow(cfg.Window, *all, *hours, *start, *end)
	if err != nil {
		slog.Error("invalid window", "err", err)
		os.Exit(1)
	}

	band := strategy.PriceBandConfig{
		MinPrice:                cfg.Trader.MinPrice,
		MaxPrice:                cfg.Trader.MaxPrice,
		MinTimeRemainingMinutes: cfg.Trader.MinTimeRemainingMinutes,
		TradeSize:               cfg.Trader.TradeAmount,
	}
	if err := band.Validate(); err != nil {
		slog.Error("invalid trading config", "err", err)
		os.Exit(1)
	}

	slog.Info("polyexpiry starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"window", window.String(),
		"band", fmt.Sprintf("%.3f-%.3f", band.MinPrice, band.MaxPrice),
		"trade_amount", band.TradeSize,
		"auto_trade", cfg.Trader.AutoTrade,
		"test_only", cfg.Trader.TestOnly,
		"max_trades", cfg.Trader.MaxTrades,
		"once", *once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase, polymarket.WithTimeout(cfg.HTTPTimeout()))

	orders, wallet, err := setupWallet(ctx, cfg, client)
	if err != nil {
		slog.Error("wallet setup failed", "err", err)
		os.Exit(1)
	}

	var balance ports.BalanceOracle
	if wallet != "" {
		bc, err := onchain.NewBalanceClient(ctx, cfg.Wallet.RPCURLs)
		if err != nil {
			slog.Warn("balance checks disabled", "err", err)
		} else {
			defer bc.Close()
			balance = bc
			if usdc, err := bc.USDCBalance(ctx, wallet); err != nil {
				slog.Warn("initial balance lookup failed", "wallet", wallet, "err", err)
			} else {
				slog.Info("wallet balance", "wallet", wallet, "usdc", fmt.Sprintf("$%.2f", usdc))
			}
		}
	}

	var store ports.CycleStore
	if cfg.Storage.DSN != "-" {
		s, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	executor := trader.NewExecutor(orders, trader.ExecutorConfig{
		Slippage:   cfg.Trader.Slippage,
		RetryDelay: cfg.RetryDelay(),
	})
	cycle := trader.NewCycle(
		trader.CycleConfig{
			MaxTrades:  cfg.Trader.MaxTrades,
			MaxRetries: cfg.Retries(),
			AutoTrade:  cfg.Trader.AutoTrade,
			TestOnly:   cfg.Trader.TestOnly,
		},
		scanner.NewRepository(client, scanner.DefaultQueries()...),
		scanner.NewSampler(client, scanner.SamplerConfig{MaxConcurrentMarkets: cfg.Trader.MaxConcurrentMarkets}),
		strategy.NewPriceBand(band),
		executor,
		balance,
		wallet,
	)

	runner := trader.NewRunner(
		trader.RunnerConfig{Interval: cfg.ScanInterval(), Once: *once},
		cycle,
		window,
		store,
		notify.NewConsole(cfg.Notify.Table, cfg.Notify.MaxRows),
	)

	if err := runner.Run(ctx); err != nil {
		slog.Error("trader exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("polyexpiry stopped cleanly")
}

// setupWallet crea el cliente de trading si hay clave privada.
// Sin clave solo se permite analizar o simular.
func setupWallet(ctx context.Context, cfg *config.Config, client *polymarket.Client) (ports.OrderSubmitter, string, error) {
	live := cfg.Trader.AutoTrade && !cfg.Trader.TestOnly
	if cfg.Wallet.PrivateKey == "" {
		if live {
			return nil, "", fmt.Errorf("auto trading requires POLY_PRIVATE_KEY")
		}
		slog.Info("no wallet configured: orders will not be signed")
		return nil, "", nil
	}

	auth, err := polymarket.NewAuthClient(client, polymarket.AuthConfig{
		PrivateKey:    cfg.Wallet.PrivateKey,
		Funder:        cfg.Wallet.Funder,
		SignatureType: cfg.Wallet.SignatureType,
	})
	if err != nil {
		return nil, "", err
	}

	if live {
		authCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := auth.EnsureCreds(authCtx); err != nil {
			return nil, "", fmt.Errorf("derive API credentials (check POLY_PRIVATE_KEY): %w", err)
		}
		slog.Info("authenticated with Polymarket CLOB", "address", auth.Address())
	}

	tc := polymarket.NewTradingClient(auth, polymarket.OrderLimits{
		Min: cfg.Trader.MinOrderSize,
		Max: cfg.Trader.MaxOrderSize,
	})
	return tc, tc.Address(), nil
}

// buildWindow resuelve la ventana de escaneo: los flags tienen prioridad
// sobre la configuración.
func buildWindow(cfg config.WindowConfig, all bool, hours, start, end float64) (scanner.Window, error) {
	switch {
	case all:
		return scanner.AllWindow(), nil
	case hours > 0:
		return scanner.HorizonWindow(time.Duration(hours * float64(time.Hour))), nil
	case start >= 0 || end >= 0:
		if start < 0 {
			start = cfg.StartMinutes
		}
		if end < 0 {
			end = cfg.EndMinutes
		}
		return scanner.RangeWindow(start, end), nil
	}

	switch cfg.Mode {
	case config.WindowAll:
		return scanner.AllWindow(), nil
	case config.WindowHorizon:
		return scanner.HorizonWindow(time.Duration(cfg.Hours * float64(time.Hour))), nil
	case config.WindowRange:
		return scanner.RangeWindow(cfg.StartMinutes, cfg.EndMinutes), nil
	}
	return scanner.Window{}, fmt.Errorf("unknown window mode %q", cfg.Mode)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
