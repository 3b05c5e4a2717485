package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fog-fraud-lab/internal/alert"
	"fog-fraud-lab/internal/bus"
	"fog-fraud-lab/internal/config"
	"fog-fraud-lab/internal/dataset"
	"fog-fraud-lab/internal/emitter"
	"fog-fraud-lab/internal/model"
	"fog-fraud-lab/internal/observability"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("FOG_CONFIG", "config.yaml"), "Path to YAML configuration file")
	nodeName := flag.String("node-name", envOr("FOG_NODE_NAME", ""), "Display name of this fog node (overrides config)")
	datasetPath := flag.String("dataset", "", "CSV dataset to replay (overrides config)")
	modelPath := flag.String("model", "", "Classifier artifact JSON (overrides config)")
	delay := flag.Duration("delay", 0, "Pause between rows (overrides config)")
	metricsAddr := flag.String("metrics-addr", envOr("FOG_METRICS_ADDR", ""), "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[edge] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	name := *nodeName
	if name == "" {
		name = cfg.Edge.NodeName
	}
	node, err := findNode(cfg, name)
	if err != nil {
		logger.Fatal(err)
	}

	path := *datasetPath
	if path == "" {
		path = cfg.Edge.DatasetPath
	}
	artifactPath := *modelPath
	if artifactPath == "" {
		artifactPath = cfg.Edge.ModelPath
	}
	rowDelay := *delay
	if rowDelay == 0 {
		rowDelay = cfg.Edge.PublishDelay()
	}

	metrics := observability.NewMetrics("", nil)
	if *metricsAddr != "" {
		go serveMetrics(logger, *metricsAddr)
	}

	artifact, err := model.Load(artifactPath)
	if err != nil {
		logger.Fatalf("Failed to load model artifact: %v", err)
	}
	logger.Printf("Loaded classifier artifact from %s", artifactPath)

	reader, err := dataset.Open(path)
	if err != nil {
		logger.Fatalf("Failed to open dataset: %v", err)
	}
	defer reader.Close()
	logger.Printf("Replaying dataset %s as %s", path, node.StringID())

	var alerter alert.Sender
	if cfg.Alerts.Enabled {
		alerter = alert.NewMailer(alert.SMTPOptions{
			Host:     cfg.Alerts.SMTP.Host,
			Port:     cfg.Alerts.SMTP.Port,
			Username: cfg.Alerts.SMTP.Username,
			Password: cfg.Alerts.SMTP.Password,
			From:     cfg.Alerts.SMTP.From,
			To:       cfg.Alerts.SMTP.To,
		})
	}

	mqttBus, err := bus.NewMQTTBus(bus.MQTTConfig{
		Host:      cfg.MQTT.Broker.Host,
		Port:      cfg.MQTT.Broker.Port,
		Username:  cfg.MQTT.Broker.Username,
		Password:  cfg.MQTT.Broker.Password,
		ClientID:  "fog-edge-" + node.StringID(),
		KeepAlive: cfg.MQTT.Broker.KeepAlive(),
	})
	if err != nil {
		logger.Fatalf("Failed to connect to broker: %v", err)
	}
	defer mqttBus.Close()
	logger.Printf("Connected to MQTT broker %s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go handleSignals(logger, cancel, done)

	em := emitter.New(emitter.Options{
		Bus:          mqttBus,
		Artifact:     artifact,
		Alerter:      alerter,
		NodeStringID: node.StringID(),
		RawTopic:     cfg.MQTT.Topics.RawData,
		ResultsTopic: cfg.MQTT.Topics.FraudResults,
		Delay:        rowDelay,
		Logger:       logger,
		Metrics:      metrics,
	})

	result, err := em.Replay(ctx, reader)
	done <- err

	if result != nil {
		logger.Printf("Replay finished: %d rows published, %d flagged as fraud in %s",
			result.RowsPublished, result.FraudDetected, result.Duration.Round(time.Millisecond))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Replay failed: %v", err)
	}
}

func findNode(cfg *config.Config, name string) (config.FogNodeConfig, error) {
	if name == "" {
		return config.FogNodeConfig{}, fmt.Errorf("no node name given: set edge.node_name or --node-name")
	}
	for _, n := range cfg.FogNodes {
		if n.Name == name {
			return n, nil
		}
	}
	return config.FogNodeConfig{}, fmt.Errorf("node %q is not in the configured fog_nodes list", name)
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
	logger.Printf("Received signal %v, stopping replay...", sig)
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
