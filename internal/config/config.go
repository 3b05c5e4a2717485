// Package config loads the shared YAML configuration consumed by the
// listener, edge emitter and dashboard processes.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration file. Durations are plain integers in the
// file (seconds unless noted) and are exposed as time.Duration accessors.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	FogNodes  []FogNodeConfig `yaml:"fog_nodes"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Edge      EdgeConfig      `yaml:"edge"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// FogNodeConfig is one statically configured edge device. The string id
// used on the wire is derived from Name (spaces become underscores).
type FogNodeConfig struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Location    string `yaml:"location"`
	Description string `yaml:"description"`
}

// StringID derives the wire identifier, e.g. "Fog Node 1" -> "Fog_Node_1".
func (n FogNodeConfig) StringID() string {
	return strings.ReplaceAll(n.Name, " ", "_")
}

// MQTTConfig holds broker coordinates and the two topic names.
type MQTTConfig struct {
	Broker BrokerConfig `yaml:"broker"`
	Topics TopicsConfig `yaml:"topics"`
}

// BrokerConfig holds the MQTT broker connection parameters.
type BrokerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	KeepAliveSec int    `yaml:"keepalive"`
}

// KeepAlive returns the keepalive interval.
func (b BrokerConfig) KeepAlive() time.Duration {
	return time.Duration(b.KeepAliveSec) * time.Second
}

// TopicsConfig names the two bus channels.
type TopicsConfig struct {
	RawData      string `yaml:"raw_data"`
	FraudResults string `yaml:"fraud_results"`
}

// DashboardConfig holds the read-model settings. Auto refresh is on unless
// explicitly disabled.
type DashboardConfig struct {
	ListenAddr          string `yaml:"listen_addr"`
	RefreshIntervalSec  int    `yaml:"refresh_interval"`
	OfflineThresholdSec int    `yaml:"node_offline_threshold"`
	MaxRows             int    `yaml:"max_transactions_display"`
	DisableAutoRefresh  bool   `yaml:"disable_auto_refresh"`
}

// RefreshInterval returns the snapshot refresh interval, already clamped.
func (d DashboardConfig) RefreshInterval() time.Duration {
	return time.Duration(d.RefreshIntervalSec) * time.Second
}

// OfflineThreshold returns the node liveness threshold.
func (d DashboardConfig) OfflineThreshold() time.Duration {
	return time.Duration(d.OfflineThresholdSec) * time.Second
}

// AutoRefresh reports whether the snapshot refresher should run on a timer.
func (d DashboardConfig) AutoRefresh() bool {
	return !d.DisableAutoRefresh
}

// AlertsConfig holds the SMTP side-channel settings.
type AlertsConfig struct {
	Enabled bool       `yaml:"enabled"`
	SMTP    SMTPConfig `yaml:"smtp"`
}

// SMTPConfig holds the mail relay coordinates.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// EdgeConfig holds the edge emitter's replay settings. PublishDelay is in
// milliseconds in the file.
type EdgeConfig struct {
	NodeName       string `yaml:"node_name"`
	DatasetPath    string `yaml:"dataset_path"`
	ModelPath      string `yaml:"model_path"`
	PublishDelayMs int    `yaml:"publish_delay_ms"`
}

// PublishDelay returns the inter-row delay during dataset replay.
func (e EdgeConfig) PublishDelay() time.Duration {
	return time.Duration(e.PublishDelayMs) * time.Millisecond
}

// MetricsConfig holds the Prometheus endpoint address.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Refresh interval bounds for the dashboard render loop, in seconds.
const (
	MinRefreshIntervalSec = 1
	MaxRefreshIntervalSec = 30
)

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "fog_monitoring.db"
	}
	if c.MQTT.Broker.Port == 0 {
		c.MQTT.Broker.Port = 1883
	}
	if c.MQTT.Broker.KeepAliveSec == 0 {
		c.MQTT.Broker.KeepAliveSec = 60
	}
	if c.MQTT.Topics.RawData == "" {
		c.MQTT.Topics.RawData = "fog/transactions/raw"
	}
	if c.MQTT.Topics.FraudResults == "" {
		c.MQTT.Topics.FraudResults = "fog/transactions/results"
	}
	if c.Dashboard.ListenAddr == "" {
		c.Dashboard.ListenAddr = ":8080"
	}
	if c.Dashboard.RefreshIntervalSec == 0 {
		c.Dashboard.RefreshIntervalSec = 5
	}
	// Refresh interval is bounded to [1,30] seconds.
	if c.Dashboard.RefreshIntervalSec < MinRefreshIntervalSec {
		c.Dashboard.RefreshIntervalSec = MinRefreshIntervalSec
	}
	if c.Dashboard.RefreshIntervalSec > MaxRefreshIntervalSec {
		c.Dashboard.RefreshIntervalSec = MaxRefreshIntervalSec
	}
	if c.Dashboard.OfflineThresholdSec == 0 {
		c.Dashboard.OfflineThresholdSec = 60
	}
	if c.Dashboard.MaxRows == 0 {
		c.Dashboard.MaxRows = 100
	}
	if c.Edge.PublishDelayMs == 0 {
		c.Edge.PublishDelayMs = 100
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

func (c *Config) validate() error {
	if c.MQTT.Broker.Host == "" {
		return fmt.Errorf("mqtt.broker.host is required")
	}

	seenIDs := make(map[int64]struct{}, len(c.FogNodes))
	seenStringIDs := make(map[string]struct{}, len(c.FogNodes))
	for _, n := range c.FogNodes {
		if n.ID == 0 {
			return fmt.Errorf("fog node %q: id is required", n.Name)
		}
		if n.Name == "" {
			return fmt.Errorf("fog node %d: name is required", n.ID)
		}
		if _, dup := seenIDs[n.ID]; dup {
			return fmt.Errorf("fog node %d: duplicate id", n.ID)
		}
		if _, dup := seenStringIDs[n.StringID()]; dup {
			return fmt.Errorf("fog node %d: string id %q is not unique", n.ID, n.StringID())
		}
		seenIDs[n.ID] = struct{}{}
		seenStringIDs[n.StringID()] = struct{}{}
	}

	if c.Alerts.Enabled {
		if c.Alerts.SMTP.Host == "" || c.Alerts.SMTP.From == "" || c.Alerts.SMTP.To == "" {
			return fmt.Errorf("alerts.smtp requires host, from and to when alerts are enabled")
		}
	}

	return nil
}
