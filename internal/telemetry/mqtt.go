package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures a Publisher's broker connection and topic.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
}

// Publisher periodically publishes a queue's Stats() snapshot to an
// MQTT broker as a health payload.
type Publisher struct {
	cfg    MQTTConfig
	log    *slog.Logger
	source StatsSource
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewPublisher creates a Publisher that is not yet connected.
func NewPublisher(log *slog.Logger, source StatsSource, cfg MQTTConfig) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{cfg: cfg, log: log, source: source}
}

// Connect establishes the MQTT connection, auto-reconnecting on loss.
func (p *Publisher) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", p.cfg.Broker))
	opts.SetClientID(p.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		p.mu.Lock()
		p.connected = true
		p.mu.Unlock()
		p.log.Info("mqtt connection established", "broker", p.cfg.Broker, "client_id", p.cfg.ClientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		p.mu.Lock()
		p.connected = false
		p.mu.Unlock()
		p.log.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", p.cfg.Broker)
	}

	p.client = mqtt.NewClient(opts)

	p.log.Info("connecting to mqtt broker", "broker", p.cfg.Broker)
	token := p.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()
	return nil
}

// PublishOnce publishes a single stats snapshot to the configured
// topic.
func (p *Publisher) PublishOnce() error {
	if !p.IsConnected() {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(p.source.Stats())
	if err != nil {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		return fmt.Errorf("marshal stats: %w", err)
	}

	token := p.client.Publish(p.cfg.Topic, p.cfg.QoS, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		return fmt.Errorf("publish failed: %w", err)
	}

	p.mu.Lock()
	p.published++
	p.mu.Unlock()
	return nil
}

// Run publishes a stats snapshot every interval until ctx-equivalent
// stop is closed.
func (p *Publisher) Run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := p.PublishOnce(); err != nil {
				p.log.Debug("telemetry publish failed", "error", err)
			}
		}
	}
}

// Disconnect closes the MQTT connection.
func (p *Publisher) Disconnect() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
}

// IsConnected reports the last known connection state.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// Stats returns the publisher's own bookkeeping, distinct from the
// queue Stats it publishes.
func (p *Publisher) Stats() (published, errors uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.published, p.errors
}
