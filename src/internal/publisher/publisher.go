package publisher

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"forumhub-activity-svc/src/internal/config"
	"forumhub-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// State is the connection lifecycle of the shared broker client.
type State int32

const (
	StateUninitialized State = iota
	StateConnecting
	StateConnected
	StateDraining
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDraining:
		return "draining"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

const (
	defaultQueueSize        = 256
	defaultHeartbeatSeconds = 3
	fallbackKey             = "activity"
)

// Client is a broker producer connection. The real implementation lives in
// the clients package; tests supply fakes.
type Client interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, key, value []byte) error
	Close() error
}

// ClientFactory constructs the broker client. It is invoked lazily on the
// first delivery attempt and the result is memoized.
type ClientFactory func(cfg *config.KafkaConfig) (Client, error)

// Publisher delivers event payloads to the broker, best effort. Callers hand
// payloads to Publish and never wait on broker I/O: payloads go through a
// bounded channel consumed by a single delivery loop, which owns the lazy
// connect and the failure logging.
type Publisher struct {
	cfg     *config.KafkaConfig
	factory ClientFactory
	enabled bool

	mu            sync.Mutex
	state         State
	client        Client
	heartbeatStop chan struct{}

	connectErrLogged bool
	sendErrLogged    bool
	dropLogged       bool

	events    chan models.EventPayload
	done      chan struct{}
	loopDone  sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Publisher and starts its delivery loop. With publishing
// disabled by configuration (or no brokers configured) the loop is not
// started and Publish is a silent no-op.
func New(cfg *config.KafkaConfig, factory ClientFactory) *Publisher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	p := &Publisher{
		cfg:     cfg,
		factory: factory,
		enabled: cfg.Enabled && len(cfg.BrokerList()) > 0,
		state:   StateUninitialized,
		events:  make(chan models.EventPayload, queueSize),
		done:    make(chan struct{}),
	}

	if p.enabled {
		p.loopDone.Add(1)
		go p.loop()
	}

	return p
}

// Enabled reports whether publishing is active.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// State returns the current connection state.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Publish queues a payload for delivery and returns immediately. It never
// blocks and never reports an error to the caller; delivery failures are
// handled inside the loop.
func (p *Publisher) Publish(payload models.EventPayload) {
	if !p.enabled {
		return
	}

	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.events <- payload:
	default:
		p.logDropOnce(payload)
	}
}

func (p *Publisher) loop() {
	defer p.loopDone.Done()

	for {
		select {
		case <-p.done:
			return
		case payload := <-p.events:
			p.deliver(payload)
		}
	}
}

func (p *Publisher) deliver(payload models.EventPayload) {
	if err := p.ensureConnected(); err != nil {
		p.logConnectErrOnce(err)
		return
	}

	value, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("event_type", payload.EventType).
			Error("Failed to encode event payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout())
	defer cancel()

	if err := p.client.Send(ctx, []byte(MessageKey(payload)), value); err != nil {
		p.logSendErrOnce(err, payload)
		return
	}

	p.resetErrorSuppression()
}

// ensureConnected lazily constructs and connects the shared client. The
// client is built at most once; a failed connect leaves the publisher
// uninitialized so the next delivery retries from scratch.
func (p *Publisher) ensureConnected() error {
	p.mu.Lock()

	switch p.state {
	case StateConnected:
		p.mu.Unlock()
		return nil
	case StateConnecting:
		// A connect attempt is already in flight; skip rather than stack
		// a second one.
		p.mu.Unlock()
		return models.ErrPublisherConnect
	case StateDraining:
		// Queued payloads are still flushed over the live client while
		// draining.
		if p.client != nil {
			p.mu.Unlock()
			return nil
		}
		p.mu.Unlock()
		return models.ErrPublisherClosed
	case StateDisconnected:
		p.mu.Unlock()
		return models.ErrPublisherClosed
	}

	p.state = StateConnecting

	if p.client == nil {
		client, err := p.factory(p.cfg)
		if err != nil {
			p.state = StateUninitialized
			p.mu.Unlock()
			return err
		}
		p.client = client
	}
	client := p.client
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.dialTimeout())
	defer cancel()
	err := client.Connect(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		if p.state == StateConnecting {
			p.state = StateUninitialized
		}
		return err
	}

	if p.state != StateConnecting {
		// Closed while the connect was in flight.
		return models.ErrPublisherClosed
	}

	p.state = StateConnected
	p.startHeartbeatLocked()

	logrus.WithFields(logrus.Fields{
		"brokers": p.cfg.Brokers,
		"topic":   p.cfg.Topic,
	}).Info("Connected to broker")

	return nil
}

// Close drains queued payloads and disconnects the client. It is safe to call
// from multiple shutdown paths; only the first call does any work.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if !p.enabled {
			p.mu.Lock()
			p.state = StateDisconnected
			p.mu.Unlock()
			return
		}

		p.mu.Lock()
		wasConnected := p.state == StateConnected
		p.state = StateDraining
		p.mu.Unlock()

		close(p.done)
		p.loopDone.Wait()

		if wasConnected {
			p.flushPending()
		}

		p.mu.Lock()
		p.stopHeartbeatLocked()
		client := p.client
		p.state = StateDisconnected
		p.mu.Unlock()

		if client != nil && wasConnected {
			if err := client.Close(); err != nil {
				logrus.WithError(err).Error("Error disconnecting broker client")
			} else {
				logrus.Info("Broker client disconnected")
			}
		}
	})
}

// flushPending sends whatever is still queued, best effort. The process is
// exiting, so failures are logged and dropped.
func (p *Publisher) flushPending() {
	for {
		select {
		case payload := <-p.events:
			p.deliver(payload)
		default:
			return
		}
	}
}

func (p *Publisher) startHeartbeatLocked() {
	if p.heartbeatStop != nil {
		return
	}

	interval := time.Duration(p.cfg.HeartbeatSeconds) * time.Second
	if interval <= 0 {
		interval = defaultHeartbeatSeconds * time.Second
	}

	stop := make(chan struct{})
	p.heartbeatStop = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				logrus.WithFields(logrus.Fields{
					"topic": p.cfg.Topic,
					"state": StateConnected.String(),
				}).Debug("Broker connection healthy")
			}
		}
	}()
}

func (p *Publisher) stopHeartbeatLocked() {
	if p.heartbeatStop != nil {
		close(p.heartbeatStop)
		p.heartbeatStop = nil
	}
}

// logConnectErrOnce logs one connect failure per outage; repeats are
// suppressed until a payload is delivered successfully.
func (p *Publisher) logConnectErrOnce(err error) {
	p.mu.Lock()
	logged := p.connectErrLogged
	p.connectErrLogged = true
	p.mu.Unlock()

	if !logged {
		logrus.WithError(err).WithField("brokers", p.cfg.Brokers).
			Error("Failed to connect to broker, dropping events until it recovers")
	}
}

func (p *Publisher) logSendErrOnce(err error, payload models.EventPayload) {
	p.mu.Lock()
	logged := p.sendErrLogged
	p.sendErrLogged = true
	p.mu.Unlock()

	if !logged {
		logrus.WithError(err).WithFields(logrus.Fields{
			"topic":      p.cfg.Topic,
			"event_type": payload.EventType,
		}).Error("Failed to publish event")
	}
}

func (p *Publisher) logDropOnce(payload models.EventPayload) {
	p.mu.Lock()
	logged := p.dropLogged
	p.dropLogged = true
	p.mu.Unlock()

	if !logged {
		logrus.WithField("event_type", payload.EventType).
			Warn("Publish queue full, dropping event")
	}
}

func (p *Publisher) resetErrorSuppression() {
	p.mu.Lock()
	p.connectErrLogged = false
	p.sendErrLogged = false
	p.dropLogged = false
	p.mu.Unlock()
}

func (p *Publisher) dialTimeout() time.Duration {
	if p.cfg.DialTimeout > 0 {
		return time.Duration(p.cfg.DialTimeout) * time.Second
	}
	return 10 * time.Second
}

func (p *Publisher) writeTimeout() time.Duration {
	if p.cfg.WriteTimeout > 0 {
		return time.Duration(p.cfg.WriteTimeout) * time.Second
	}
	return 10 * time.Second
}

// MessageKey builds the partition/ordering key for a payload: user id, event
// type and session id joined with colons, empty parts omitted. All-empty
// payloads fall back to a constant key.
func MessageKey(payload models.EventPayload) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{payload.UserID, payload.EventType, payload.SessionID} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		return fallbackKey
	}
	return strings.Join(parts, ":")
}
