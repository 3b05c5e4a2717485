package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fog-fraud-lab/internal/config"
	"fog-fraud-lab/internal/dashboard"
	"fog-fraud-lab/internal/observability"
	"fog-fraud-lab/internal/storage"
	"fog-fraud-lab/internal/storage/memory"
	"fog-fraud-lab/internal/storage/migrations"
	"fog-fraud-lab/internal/storage/sqlite"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("FOG_CONFIG", "config.yaml"), "Path to YAML configuration file")
	listenAddr := flag.String("listen-addr", envOr("FOG_DASHBOARD_ADDR", ""), "HTTP listen address (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of SQLite")
	metricsAddr := flag.String("metrics-addr", envOr("FOG_METRICS_ADDR", ""), "Prometheus metrics HTTP address (empty to use config value)")

	flag.Parse()

	logger := log.New(os.Stdout, "[dashboard] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	addr := *listenAddr
	if addr == "" {
		addr = cfg.Dashboard.ListenAddr
	}

	metrics := observability.NewMetrics("", nil)
	mAddr := *metricsAddr
	if mAddr == "" {
		mAddr = cfg.Metrics.Addr
	}
	if mAddr != "" {
		go serveMetrics(logger, mAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go handleSignals(logger, cancel, done)

	var (
		nodeStore  storage.NodeStore
		txStore    storage.TransactionStore
		fraudStore storage.FraudResultStore
	)
	if *useMemory {
		logger.Println("Using in-memory storage")
		store := memory.NewStore()
		nodeStore = store.NodeStore()
		txStore = store.TransactionStore()
		fraudStore = store.FraudResultStore()
	} else {
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			logger.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		db.SetMetrics(metrics)

		// The listener usually creates the schema first, but the dashboard
		// must also come up against a fresh file.
		if err := migrations.RunSQLiteMigrations(ctx, db.DB); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}

		nodeStore = sqlite.NewNodeStore(db)
		txStore = sqlite.NewTransactionStore(db)
		fraudStore = sqlite.NewFraudResultStore(db)
	}

	builder := dashboard.NewBuilder(dashboard.BuilderOptions{
		NodeStore:        nodeStore,
		TransactionStore: txStore,
		FraudResultStore: fraudStore,
		MaxRows:          cfg.Dashboard.MaxRows,
		OfflineThreshold: cfg.Dashboard.OfflineThreshold(),
	})

	refresher := dashboard.NewRefresher(dashboard.RefresherOptions{
		Builder:     builder,
		Interval:    cfg.Dashboard.RefreshInterval(),
		AutoRefresh: cfg.Dashboard.AutoRefresh(),
		Logger:      logger,
		Metrics:     metrics,
	})

	server := dashboard.NewServer(dashboard.ServerOptions{
		Refresher:   refresher,
		Addr:        addr,
		PollSeconds: cfg.Dashboard.RefreshIntervalSec,
		AutoRefresh: cfg.Dashboard.AutoRefresh(),
		Logger:      logger,
	})

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		defer wg.Done()
		if err := server.Run(ctx); err != nil {
			errCh <- err
			cancel()
		}
	}()

	wg.Wait()
	close(errCh)

	var runErr error
	for err := range errCh {
		runErr = err
	}
	done <- runErr

	if runErr != nil {
		logger.Fatalf("Dashboard failed: %v", runErr)
	}
	logger.Println("Dashboard shut down cleanly")
}

func serveMetrics(logger *log.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Printf("Starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("Metrics server error: %v", err)
	}
}

func handleSignals(logger *log.Logger, cancel context.CancelFunc, done chan error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	cancel()

	select {
	case sig := <-sigCh:
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	case <-time.After(30 * time.Second):
		logger.Println("Graceful shutdown timed out after 30s, forcing exit")
		os.Exit(1)
	case <-done:
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
