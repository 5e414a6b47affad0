package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"forumhub-activity-svc/src/internal/config"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// KafkaProducer is the broker client behind the event publisher. One shared
// instance serves all publish calls; the writer manages its own connection
// pool.
type KafkaProducer struct {
	cfg    *config.KafkaConfig
	writer *kafka.Writer
	dialer *kafka.Dialer
}

func NewKafkaProducer(cfg *config.KafkaConfig) (*KafkaProducer, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are not configured")
	}

	mechanism, tlsConfig, err := securitySettings(&cfg.Security)
	if err != nil {
		return nil, err
	}

	dialTimeout := time.Duration(cfg.DialTimeout) * time.Second
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	writeTimeout := time.Duration(cfg.WriteTimeout) * time.Second
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	transport := &kafka.Transport{
		ClientID: cfg.ClientID,
		SASL:     mechanism,
		TLS:      tlsConfig,
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           writeTimeout,
		Transport:              transport,
		MaxAttempts:            5,
		AllowAutoTopicCreation: false,
	}

	dialer := &kafka.Dialer{
		ClientID:      cfg.ClientID,
		Timeout:       dialTimeout,
		SASLMechanism: mechanism,
		TLS:           tlsConfig,
	}

	return &KafkaProducer{
		cfg:    cfg,
		writer: writer,
		dialer: dialer,
	}, nil
}

// Connect probes the first broker so misconfiguration surfaces at connect
// time instead of on the first send.
func (k *KafkaProducer) Connect(ctx context.Context) error {
	brokers := k.cfg.BrokerList()

	conn, err := k.dialer.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	if _, err := conn.ApiVersions(); err != nil {
		return fmt.Errorf("broker %s rejected handshake: %w", brokers[0], err)
	}

	return nil
}

func (k *KafkaProducer) Send(ctx context.Context, key, value []byte) error {
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

func (k *KafkaProducer) Close() error {
	return k.writer.Close()
}

// securitySettings maps the configured security mode onto a SASL mechanism
// and TLS config. Plaintext mode returns neither; TLS is only enabled for
// sasl_ssl.
func securitySettings(sec *config.KafkaSecurity) (sasl.Mechanism, *tls.Config, error) {
	var tlsConfig *tls.Config

	switch sec.Mode {
	case "", "plaintext":
		return nil, nil, nil
	case "sasl":
	case "sasl_ssl":
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	default:
		return nil, nil, fmt.Errorf("unknown kafka security mode %q", sec.Mode)
	}

	var mechanism sasl.Mechanism
	switch sec.Mechanism {
	case "", "plain":
		mechanism = plain.Mechanism{
			Username: sec.Username,
			Password: sec.Password,
		}
	case "scram-sha-256":
		m, err := scram.Mechanism(scram.SHA256, sec.Username, sec.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build scram mechanism: %w", err)
		}
		mechanism = m
	case "scram-sha-512":
		m, err := scram.Mechanism(scram.SHA512, sec.Username, sec.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build scram mechanism: %w", err)
		}
		mechanism = m
	default:
		return nil, nil, fmt.Errorf("unknown kafka sasl mechanism %q", sec.Mechanism)
	}

	return mechanism, tlsConfig, nil
}
