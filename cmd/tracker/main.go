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

	"github.com/mihirargulkar/polymaster/config"
	"github.com/mihirargulkar/polymaster/internal/adapters/gamma"
	"github.com/mihirargulkar/polymaster/internal/adapters/kalshi"
	"github.com/mihirargulkar/polymaster/internal/adapters/notify"
	"github.com/mihirargulkar/polymaster/internal/adapters/ollama"
	"github.com/mihirargulkar/polymaster/internal/adapters/storage"
	"github.com/mihirargulkar/polymaster/internal/matcher"
	"github.com/mihirargulkar/polymaster/internal/tracker"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one cycle and exit")
	live := flag.Bool("live", false, "enable live order execution (overrides config)")
	table := flag.Bool("table", false, "print snapshot/position tables each cycle")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
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
	if *live {
		cfg.Tracker.LiveTrading = true
	}
	setupLogger(cfg.Log)

	slog.Info("polymaster tracker starting",
		"config", *configPath,
		"interval", cfg.Interval(),
		"once", *once,
		"live_trading", cfg.Tracker.LiveTrading,
	)

	// Credenciales de firma: fallo aquí es fatal — sin cliente firmado no
	// hay resolver de Kalshi, ni balance, ni órdenes.
	venue, err := kalshi.NewClient(cfg.API.KalshiBase, cfg.Kalshi.KeyID, cfg.Kalshi.PrivateKeyPath)
	if err != nil {
		slog.Error("failed to init kalshi client — check KALSHI_PRIVATE_KEY_PATH", "err", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	data := gamma.NewClient(cfg.API.GammaBase)
	oracle := ollama.NewClient(cfg.API.OllamaBase, cfg.Matcher.Model)
	catalog := matcher.NewCatalog(venue, cfg.CatalogTTL())
	m := matcher.New(catalog, oracle, cfg.Matcher.MinConfidence)
	notifier := notify.NewConsole(store, store, *table)

	trkCfg := tracker.DefaultConfig()
	trkCfg.Interval = cfg.Interval()
	trkCfg.StartingBankroll = cfg.Tracker.StartingBankroll
	trkCfg.BetSize = cfg.Tracker.BetSize
	trkCfg.MinReserve = cfg.Tracker.MinReserve
	trkCfg.MaxPrice = cfg.Tracker.MaxPrice
	trkCfg.LiveTrading = cfg.Tracker.LiveTrading
	trkCfg.RecencyWindow = cfg.RecencyWindow()

	t := tracker.New(trkCfg, store, store, venue, data, m, notifier)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Tracker.LiveTrading {
		if !confirmLive(ctx, trkCfg.BetSize) {
			return
		}
	}

	if *once {
		if _, err := t.RunCycle(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := t.Run(ctx); err != nil {
		slog.Error("tracker exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("polymaster stopped cleanly")
}

// confirmLive da una ventana de 5 segundos para abortar antes de operar
// con dinero real.
func confirmLive(ctx context.Context, betSize float64) bool {
	fmt.Printf("\n⚠️  LIVE TRADING MODE — REAL MONEY WILL BE SPENT\n")
	fmt.Printf("   Bet size: $%.2f per qualifying alert\n", betSize)
	fmt.Printf("   Press Ctrl+C within 5 seconds to abort...\n\n")

	timer := time.NewTimer(5 * time.Second)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		slog.Info("live trading aborted by user")
		return false
	}
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
