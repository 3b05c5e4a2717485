package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fog-fraud-lab/internal/bus"
	"fog-fraud-lab/internal/config"
	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/ingestion"
	"fog-fraud-lab/internal/observability"
	"fog-fraud-lab/internal/storage"
	"fog-fraud-lab/internal/storage/memory"
	"fog-fraud-lab/internal/storage/migrations"
	"fog-fraud-lab/internal/storage/sqlite"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("FOG_CONFIG", "config.yaml"), "Path to YAML configuration file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of SQLite")
	metricsAddr := flag.String("metrics-addr", envOr("FOG_METRICS_ADDR", ""), "Prometheus metrics HTTP address (empty to use config value)")

	flag.Parse()

	logger := log.New(os.Stdout, "[listener] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	metrics := observability.NewMetrics("", nil)

	addr := *metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		go serveMetrics(logger, addr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go handleSignals(logger, cancel, done)

	// Storage
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

		if err := migrations.RunSQLiteMigrations(ctx, db.DB); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Printf("Database ready at %s", cfg.Database.Path)

		nodeStore = sqlite.NewNodeStore(db)
		txStore = sqlite.NewTransactionStore(db)
		fraudStore = sqlite.NewFraudResultStore(db)
	}

	// Bus
	mqttBus, err := bus.NewMQTTBus(bus.MQTTConfig{
		Host:      cfg.MQTT.Broker.Host,
		Port:      cfg.MQTT.Broker.Port,
		Username:  cfg.MQTT.Broker.Username,
		Password:  cfg.MQTT.Broker.Password,
		ClientID:  "fog-listener",
		KeepAlive: cfg.MQTT.Broker.KeepAlive(),
	})
	if err != nil {
		logger.Fatalf("Failed to connect to broker: %v", err)
	}
	defer mqttBus.Close()
	logger.Printf("Connected to MQTT broker %s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)

	listener := ingestion.NewListener(ingestion.Options{
		Bus:              mqttBus,
		NodeStore:        nodeStore,
		TransactionStore: txStore,
		FraudResultStore: fraudStore,
		RawTopic:         cfg.MQTT.Topics.RawData,
		ResultsTopic:     cfg.MQTT.Topics.FraudResults,
		Logger:           logger,
		Metrics:          metrics,
	})

	if err := listener.RegisterNodes(ctx, configNodes(cfg)); err != nil {
		logger.Fatalf("Failed to register fog nodes: %v", err)
	}

	err = listener.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Listener failed: %v", err)
	}
	logger.Println("Listener shut down cleanly")
}

func configNodes(cfg *config.Config) []*domain.Node {
	nodes := make([]*domain.Node, 0, len(cfg.FogNodes))
	for _, n := range cfg.FogNodes {
		nodes = append(nodes, &domain.Node{
			ID:          n.ID,
			Name:        n.Name,
			Location:    n.Location,
			Description: n.Description,
			StringID:    n.StringID(),
			Status:      domain.StatusOffline,
		})
	}
	return nodes
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
