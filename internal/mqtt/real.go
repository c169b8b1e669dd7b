package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/dht11-sensor/internal/logic"
)

// outboxCapacity bounds how many messages are kept while disconnected.
const outboxCapacity = 256

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Name        string // sensor name carried in reading payloads
	Username    string
	Password    string
}

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the connection is down are kept in an outbox
// and replayed, oldest first, when paho reconnects.
type RealPublisher struct {
	client      paho.Client
	name        string
	topic       string
	systemTopic string
	outbox      *outbox

	mu        sync.Mutex
	connected bool
	everUp    bool
}

// NewRealPublisher creates a publisher for the given broker. The broker
// does not need to be reachable: paho keeps retrying in the background.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = DefaultTopicPrefix
	}
	if opts.ClientID == "" {
		opts.ClientID = "dht11-sensor"
	}

	p := &RealPublisher{
		name:        opts.Name,
		topic:       ReadingsTopic(opts.TopicPrefix),
		systemTopic: SystemTopic(opts.TopicPrefix),
		outbox:      newOutbox(outboxCapacity),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, errors.Wrap(err, "format will payload")
	}

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetWill(p.systemTopic, string(will), 1, true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(co)
	token := p.client.Connect()
	// With ConnectRetry the token only completes once connected; don't block
	// startup on an unreachable broker.
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "connect to broker")
	}

	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connected = true
	reconnect := p.everUp
	p.everUp = true
	p.mu.Unlock()

	log.WithField("reconnect", reconnect).Info("mqtt: connected")

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		c.Publish(p.systemTopic, 1, false, payload)
	}

	msgs, dropped := p.outbox.drain()
	if dropped > 0 {
		log.Warnf("mqtt: %d buffered messages were dropped while disconnected", dropped)
	}
	for _, m := range msgs {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Warnf("mqtt: replay to %s timed out", m.topic)
		} else if err := token.Error(); err != nil {
			log.WithError(err).Warnf("mqtt: replay to %s", m.topic)
		}
	}
	if len(msgs) > 0 {
		log.Infof("mqtt: replayed %d buffered messages", len(msgs))
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.WithError(err).Warn("mqtt: connection lost")
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Publish sends a reading event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event, p.name)
	if err != nil {
		return errors.Wrap(err, "format payload")
	}

	// QoS 0 (at-most-once), not retained
	return p.send(bufferedMsg{topic: p.topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return errors.Wrap(err, "format system payload")
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.send(bufferedMsg{topic: p.systemTopic, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) send(m bufferedMsg) error {
	if !p.IsConnected() {
		p.outbox.push(m)
		return nil
	}

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.outbox.push(m)
		return errors.Errorf("publish to %s timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		p.outbox.push(m)
		return errors.Wrapf(err, "publish to %s", m.topic)
	}
	return nil
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
