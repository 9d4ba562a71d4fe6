package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON-encoded messages to a single topic.
type Producer struct {
	writer MessageWriter
	topic  string

	published *prometheus.CounterVec
	latency   prometheus.Histogram
}

// NewProducer builds a kafka-go writer from opts. reg may be nil.
func NewProducer(reg prometheus.Registerer, opts ...Option) (*Producer, error) {
	cfg := &Config{
		RequiredAcks: -1,
		Compression:  "snappy",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            parseCompression(cfg.Compression),
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           cfg.BatchTimeout,
		Async:                  cfg.Async,
		AllowAutoTopicCreation: true,
	}
	return NewProducerWithWriter(w, cfg.Topic, reg), nil
}

// NewProducerWithWriter wraps an existing writer, e.g. a fake in tests.
func NewProducerWithWriter(w MessageWriter, topic string, reg prometheus.Registerer) *Producer {
	p := &Producer{
		writer: w,
		topic:  topic,
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mandipulse_kafka_messages_total",
			Help: "Messages published to Kafka by result.",
		}, []string{"topic", "result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mandipulse_kafka_publish_seconds",
			Help:    "Kafka publish latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(p.published, p.latency)
	}
	return p
}

func (p *Producer) Topic() string { return p.topic }

// Publish marshals value as JSON unless it is already []byte.
func (p *Producer) Publish(ctx context.Context, key []byte, value interface{}) error {
	var v []byte
	switch val := value.(type) {
	case []byte:
		v = val
	default:
		var err error
		if v, err = json.Marshal(value); err != nil {
			return fmt.Errorf("marshal value: %w", err)
		}
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: v, Time: start})
	p.latency.Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.published.WithLabelValues(p.topic, result).Inc()
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Snappy
	}
}
