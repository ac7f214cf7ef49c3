package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/oven-controller/internal/control"
)

// queueCapacity bounds the number of messages held while disconnected.
const queueCapacity = 256

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the broker is unreachable are queued and replayed, oldest first,
// when the connection comes back.
type RealPublisher struct {
	client paho.Client

	mu    sync.Mutex
	queue *offlineQueue
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{queue: newOfflineQueue(queueCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("oven-controller").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			p.drain()
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// Publish sends a controller event to the MQTT broker.
func (p *RealPublisher) Publish(event control.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 1 (at-least-once): safety events must not be lost silently
	return p.publish(Topic, payload, 1, false)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, payload, 1, event.Retained)
}

func (p *RealPublisher) publish(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.queue.add(outbound{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// drain replays queued messages after a reconnect.
func (p *RealPublisher) drain() {
	p.mu.Lock()
	msgs, dropped := p.queue.takeAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	if dropped > 0 {
		log.Printf("mqtt: queue overflowed while offline, %d oldest messages lost", dropped)
	}
	log.Printf("mqtt: replaying %d queued messages", len(msgs))
	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: replay timeout on %s", m.topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: replay error on %s: %v", m.topic, err)
			return
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
