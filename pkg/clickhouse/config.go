package clickhouse

import "time"

// Option configures a Client.
type Option func(*Config)

// Config holds connection settings for a read-mostly ClickHouse pool.
type Config struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	UseHTTP         bool
	ReadOnly        bool
	MaxExecTime     time.Duration
}

func WithHost(host string) Option {
	return func(c *Config) { c.Host = host }
}

func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

func WithDatabase(database string) Option {
	return func(c *Config) { c.Database = database }
}

// WithCredentials sets username and password.
func WithCredentials(user, password string) Option {
	return func(c *Config) {
		c.User = user
		c.Password = password
	}
}

// WithMaxConnections sets max open and idle connections.
func WithMaxConnections(maxOpen, maxIdle int) Option {
	return func(c *Config) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
	}
}

// WithTimeouts sets dial and read timeouts.
func WithTimeouts(dial, read time.Duration) Option {
	return func(c *Config) {
		c.DialTimeout = dial
		c.ReadTimeout = read
	}
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(useHTTP bool) Option {
	return func(c *Config) { c.UseHTTP = useHTTP }
}

// WithReadOnly sets the readonly=1 session setting.
func WithReadOnly(ro bool) Option {
	return func(c *Config) { c.ReadOnly = ro }
}

// WithMaxExecutionTime sets max_execution_time per query.
func WithMaxExecutionTime(d time.Duration) Option {
	return func(c *Config) { c.MaxExecTime = d }
}
