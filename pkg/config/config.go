package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Storage struct {
		Backend    string `yaml:"backend"`
		ClickHouse struct {
			Host             string        `yaml:"host"`
			Port             int           `yaml:"port"`
			Database         string        `yaml:"database"`
			User             string        `yaml:"user"`
			Password         string        `yaml:"password"`
			AsyncInsert      bool          `yaml:"async_insert"`
			WaitForAsync     bool          `yaml:"wait_for_async_insert"`
			DialTimeout      time.Duration `yaml:"dial_timeout"`
			ReadTimeout      time.Duration `yaml:"read_timeout"`
			WriteTimeout     time.Duration `yaml:"write_timeout"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		} `yaml:"clickhouse"`
		Postgres struct {
			Host         string `yaml:"host"`
			Port         int    `yaml:"port"`
			Database     string `yaml:"database"`
			User         string `yaml:"user"`
			Password     string `yaml:"password"`
			SSLMode      string `yaml:"ssl_mode"`
			MaxOpenConns int    `yaml:"max_open_conns"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"postgres"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"storage"`
	Ingest struct {
		Source       string        `yaml:"source"`
		Timeframe    string        `yaml:"timeframe"`
		CSVPath      string        `yaml:"csv_path"`
		CSVSymbol    string        `yaml:"csv_symbol"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"ingest"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		BarsTopic     string   `yaml:"bars_topic"`
		DatasetsTopic string   `yaml:"datasets_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Cache struct {
		Mode       string        `yaml:"mode"`
		TTL        time.Duration `yaml:"ttl"`
		MaxEntries int           `yaml:"max_entries"`
	} `yaml:"cache"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Name       string        `yaml:"name"`
		Workers    int           `yaml:"workers"`
		RetryMax   int           `yaml:"retry_max"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	Pipeline struct {
		WindowSize  int     `yaml:"window_size"`
		WMAWindows  []int   `yaml:"wma_windows"`
		MACDShort   int     `yaml:"macd_short"`
		MACDLong    int     `yaml:"macd_long"`
		MACDSignal  int     `yaml:"macd_signal"`
		RSIPeriod   int     `yaml:"rsi_period"`
		StochPeriod int     `yaml:"stoch_period"`
		StochSmooth int     `yaml:"stoch_smooth"`
		BiasPeriod  int     `yaml:"bias_period"`
		BollPeriod  int     `yaml:"boll_period"`
		BollStd     float64 `yaml:"boll_std"`
		ATRPeriod   int     `yaml:"atr_period"`

		PriceColumns   []string `yaml:"price_columns"`
		VolumeColumns  []string `yaml:"volume_columns"`
		PercentColumns []string `yaml:"percent_columns"`
		SignedColumns  []string `yaml:"signed_columns"`
	} `yaml:"pipeline"`
	Collector struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
		Topic    string        `yaml:"topic"`
	} `yaml:"collector"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BARS_TOPIC"); v != "" {
		c.Kafka.BarsTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.Storage.ClickHouse.Password = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Storage.Postgres.Password = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Storage.Backend {
	case "clickhouse", "postgres", "sqlite":
	case "":
		return fmt.Errorf("storage.backend is required")
	default:
		return fmt.Errorf("storage.backend must be 'clickhouse', 'postgres' or 'sqlite', got '%s'", c.Storage.Backend)
	}
	switch c.Ingest.Source {
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when ingest.source is 'kafka'")
		}
	case "csv":
		if c.Ingest.CSVPath == "" {
			return fmt.Errorf("ingest.csv_path is required when ingest.source is 'csv'")
		}
		if c.Ingest.CSVSymbol == "" {
			return fmt.Errorf("ingest.csv_symbol is required when ingest.source is 'csv'")
		}
	case "", "none":
	default:
		return fmt.Errorf("ingest.source must be 'kafka', 'csv' or 'none', got '%s'", c.Ingest.Source)
	}
	switch c.Cache.Mode {
	case "", "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.mode must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Mode)
	}
	if c.Pipeline.WindowSize < 0 {
		return fmt.Errorf("pipeline.window_size cannot be negative")
	}
	return nil
}
