package bus

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	ClientID  string
	KeepAlive time.Duration
}

// MQTTBus implements Bus over an MQTT broker using paho. Connect failures
// are fatal to the caller; there is no automatic reconnect, matching the
// at-most-once, best-effort delivery model of the pipeline.
type MQTTBus struct {
	client mqtt.Client
}

// Compile-time interface check.
var _ Bus = (*MQTTBus)(nil)

// connectTimeout bounds the initial broker handshake.
const connectTimeout = 10 * time.Second

// NewMQTTBus connects to the broker and returns the bus. The returned error
// is the startup-fatal transport error path.
func NewMQTTBus(cfg MQTTConfig) (*MQTTBus, error) {
	keepAlive := cfg.KeepAlive
	if keepAlive == 0 {
		keepAlive = 60 * time.Second
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetKeepAlive(keepAlive).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(connectTimeout)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s:%d: timeout", cfg.Host, cfg.Port)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &MQTTBus{client: client}, nil
}

// Publish sends payload to topic at QoS 0.
func (b *MQTTBus) Publish(ctx context.Context, topic string, payload []byte) error {
	token := b.client.Publish(topic, 0, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers a handler for topic at QoS 0.
func (b *MQTTBus) Subscribe(ctx context.Context, topic string, h Handler) error {
	token := b.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	})
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (b *MQTTBus) Close() {
	b.client.Disconnect(250)
}
