package kafka

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	"github.com/kutuphane/library-service/pkg/breaker"
)

const LoansTopic = "loans"

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

type Publisher interface {
	Publish(topic string, v any) error
}

// NewPublisher wraps the producer in a circuit breaker so that a broker
// outage fails publishes fast instead of stalling every request.
func NewPublisher(producer sarama.SyncProducer) Publisher {
	const (
		windowSize = 20
		timeout    = 10 * time.Second
		threshold  = 0.5
		recovery   = 3
	)
	return &publisherImpl{
		producer: producer,
		cb:       breaker.New(windowSize, timeout, threshold, recovery),
	}
}

type publisherImpl struct {
	producer sarama.SyncProducer
	cb       breaker.Breaker
}

func (p *publisherImpl) Publish(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.StringEncoder(data)}
	return p.cb.Call(func() error {
		_, _, err := p.producer.SendMessage(msg)
		return err
	})
}

// NopPublisher drops every event. Used when kafka is disabled and in tests.
func NopPublisher() Publisher {
	return nopPublisher{}
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) error { return nil }
