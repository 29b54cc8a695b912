package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/tankd/internal/control"
	"github.com/sweeney/tankd/internal/leak"
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("tankd").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealPublisher{client: client}, nil
}

// PublishPump sends a pump transition event to the MQTT broker.
func (p *RealPublisher) PublishPump(event control.Event) error {
	payload, err := FormatPumpPayload(event)
	if err != nil {
		return fmt.Errorf("format pump payload: %w", err)
	}

	// QoS 1 (at-least-once): pump transitions matter for downstream automation.
	return p.publish(TopicPump, 1, false, payload)
}

// PublishLevel sends a telemetry sample to the MQTT broker.
func (p *RealPublisher) PublishLevel(sample control.Sample, pumpOn bool) error {
	payload, err := FormatLevelPayload(sample, pumpOn)
	if err != nil {
		return fmt.Errorf("format level payload: %w", err)
	}

	// QoS 0 (at-most-once), retained: only the latest level is interesting.
	return p.publish(TopicLevel, 0, true, payload)
}

// PublishScan sends a leak scan result to the MQTT broker.
func (p *RealPublisher) PublishScan(res leak.Result) error {
	payload, err := FormatScanPayload(res)
	if err != nil {
		return fmt.Errorf("format scan payload: %w", err)
	}

	return p.publish(TopicLeak, 1, ScanRetained(res), payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 for lifecycle events - we want to ensure delivery.
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the client currently has a broker connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
