package builtinunits

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// TelemetryEmitter publishes per-frame telemetry snapshots to an MQTT
// broker. It implements scheduler.AsyncPoller: Start connects, Poll
// flushes whatever snapshots were queued via Publish since the last
// frame, and Stop disconnects gracefully.
type TelemetryEmitter struct {
	broker   string
	clientID string
	topic    string
	qos      byte

	client mqtt.Client

	mu        sync.Mutex
	connected bool
	published uint64
	errors    uint64
	queue     chan any

	logger *slog.Logger
}

// TelemetryConfig configures a TelemetryEmitter.
type TelemetryConfig struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
	Logger   *slog.Logger
}

// NewTelemetryEmitter constructs an emitter from cfg. The connection is
// not opened until Start is called by the scheduler.
func NewTelemetryEmitter(cfg TelemetryConfig) *TelemetryEmitter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TelemetryEmitter{
		broker:   cfg.Broker,
		clientID: cfg.ClientID,
		topic:    cfg.Topic,
		qos:      cfg.QoS,
		queue:    make(chan any, 64),
		logger:   logger,
	}
}

// Start connects to the broker, satisfying scheduler.AsyncPoller.
func (e *TelemetryEmitter) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", e.broker))
	opts.SetClientID(e.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		e.mu.Lock()
		e.connected = true
		e.mu.Unlock()
		e.logger.Info("telemetry mqtt connection established", "broker", e.broker, "client_id", e.clientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		e.mu.Lock()
		e.connected = false
		e.mu.Unlock()
		e.logger.Warn("telemetry mqtt connection lost, auto-reconnecting", "error", err)
	}

	e.client = mqtt.NewClient(opts)
	token := e.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("telemetry mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry mqtt connection failed: %w", err)
	}

	e.mu.Lock()
	e.connected = true
	e.mu.Unlock()
	return nil
}

// Publish enqueues a snapshot for the next Poll to flush. Never blocks:
// a full queue drops the oldest pending snapshot's slot in favor of the
// newest, matching the scheduler's own drop-frames-not-queue stance.
func (e *TelemetryEmitter) Publish(snapshot any) {
	select {
	case e.queue <- snapshot:
	default:
		select {
		case <-e.queue:
		default:
		}
		e.queue <- snapshot
	}
}

// Poll flushes every snapshot queued since the last frame, satisfying
// scheduler.AsyncPoller. Called once per frame.
func (e *TelemetryEmitter) Poll(ctx context.Context) error {
	for {
		select {
		case snapshot := <-e.queue:
			if err := e.publishOne(snapshot); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (e *TelemetryEmitter) publishOne(snapshot any) error {
	e.mu.Lock()
	connected := e.connected
	e.mu.Unlock()
	if !connected {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("telemetry mqtt not connected")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("marshal telemetry snapshot: %w", err)
	}

	token := e.client.Publish(e.topic, e.qos, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("telemetry publish timeout")
	}
	if err := token.Error(); err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("telemetry publish failed: %w", err)
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()
	return nil
}

// Stats reports emitter counters for health checks.
type Stats struct {
	Connected bool
	Published uint64
	Errors    uint64
}

// Stats returns a snapshot of the emitter's counters.
func (e *TelemetryEmitter) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{Connected: e.connected, Published: e.published, Errors: e.errors}
}

// Stop disconnects from the broker, satisfying scheduler.AsyncPoller.
func (e *TelemetryEmitter) Stop() error {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(250)
	}
	e.mu.Lock()
	e.connected = false
	e.mu.Unlock()
	return nil
}
