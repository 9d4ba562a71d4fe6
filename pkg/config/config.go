package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`

	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"5000" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	Dataset struct {
		Source string `yaml:"source" default:"csv" validate:"oneof=csv clickhouse"`
		Path   string `yaml:"path" default:"data/market_prices.csv"`
		Table  string `yaml:"table" default:"market_prices"`
	} `yaml:"dataset"`

	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"mandipulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"60s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`

	Forecast struct {
		Trees       int   `yaml:"trees" default:"200" validate:"min=1"`
		MaxDepth    int   `yaml:"max_depth" default:"10" validate:"min=1"`
		Seed        int64 `yaml:"seed" default:"42"`
		HorizonDays int   `yaml:"horizon_days" default:"30" validate:"min=1"`
		MinPoints   int   `yaml:"min_points" default:"30" validate:"min=2"`
		CacheSize   int   `yaml:"cache_size" default:"256" validate:"min=1"`
		Workers     int   `yaml:"workers"`
	} `yaml:"forecast"`

	Analytics struct {
		TrendMinPoints     int `yaml:"trend_min_points" default:"10" validate:"min=2"`
		SegmentedMinPoints int `yaml:"segmented_min_points" default:"20" validate:"min=3"`
		StabilityMinPoints int `yaml:"stability_min_points" default:"10" validate:"min=2"`
		MaxMarkets         int `yaml:"max_markets" default:"15" validate:"min=1"`
	} `yaml:"analytics"`

	Live struct {
		Timeout        time.Duration `yaml:"timeout" default:"12s"`
		ResultTTL      time.Duration `yaml:"result_ttl" default:"10m"`
		RateCapacity   float64       `yaml:"rate_capacity" default:"10"`
		RatePerSecond  float64       `yaml:"rate_per_second" default:"0.5"`
		DataGovAPIKey  string        `yaml:"data_gov_api_key"`
		DataGovBaseURL string        `yaml:"data_gov_base_url" default:"https://api.data.gov.in/resource"`
		Resources      []string      `yaml:"resources"`
		CEDAAPIKey     string        `yaml:"ceda_api_key"`
		CEDABaseURL    string        `yaml:"ceda_base_url" default:"https://api.ceda.ashoka.edu.in/v1/agmarknet"`
		CatalogTTL     time.Duration `yaml:"catalog_ttl" default:"6h"`
	} `yaml:"live"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"mandipulse:"`
	} `yaml:"redis"`

	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"mandi.live-prices"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
	} `yaml:"kafka"`
}

var validate = validator.New()

// Default returns a configuration holding only default values.
func Default() (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return c, nil
}

// Load reads a YAML file on top of the defaults and validates the result.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), then the YAML file, then applies
// environment overrides and validates again.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	// AGMARKET_API_KEY is the older name of the data.gov.in key.
	for _, k := range []string{"AGMARKET_API_KEY", "DATA_GOV_IN_API_KEY"} {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			c.Live.DataGovAPIKey = v
		}
	}
	if v := strings.TrimSpace(getenv("CEDA_API_KEY")); v != "" {
		c.Live.CEDAAPIKey = v
	}
	if v := getenv("DATASET_PATH"); v != "" {
		c.Dataset.Path = v
	}
	if v := getenv("DATASET_SOURCE"); v != "" {
		c.Dataset.Source = strings.ToLower(v)
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Dataset.Source == "csv" && c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required for the csv source")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
