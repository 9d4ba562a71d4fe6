package kafka

import "time"

// Option configures a Producer.
type Option func(*Config)

type Config struct {
	Brokers      []string
	Topic        string
	RequiredAcks int
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	BatchTimeout time.Duration
	Async        bool
	ClientID     string
}

func WithBrokers(brokers []string) Option {
	return func(c *Config) { c.Brokers = brokers }
}

// WithTopic sets the topic every message is written to.
func WithTopic(topic string) Option {
	return func(c *Config) { c.Topic = topic }
}

// WithCompression accepts gzip, snappy, lz4 or zstd.
func WithCompression(compression string) Option {
	return func(c *Config) { c.Compression = compression }
}

// WithRequiredAcks sets required acknowledgements (-1 = all).
func WithRequiredAcks(acks int) Option {
	return func(c *Config) { c.RequiredAcks = acks }
}

func WithMaxAttempts(n int) Option {
	return func(c *Config) { c.MaxAttempts = n }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) { c.WriteTimeout = d }
}

func WithBatchTimeout(d time.Duration) Option {
	return func(c *Config) { c.BatchTimeout = d }
}

// WithAsync toggles fire-and-forget writes.
func WithAsync(async bool) Option {
	return func(c *Config) { c.Async = async }
}
