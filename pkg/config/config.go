package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Market struct {
		Timezone        string   `yaml:"timezone"`
		OpenTime        string   `yaml:"open_time"`  // HH:MM, pre-open included
		CloseTime       string   `yaml:"close_time"` // HH:MM
		Weekdays        []string `yaml:"weekdays"`   // Mon..Sun
		ReferenceSymbol string   `yaml:"reference_symbol"`
		IndexSymbol     string   `yaml:"index_symbol"`
		LookbackDays    int      `yaml:"lookback_days"` // calendar days of history to pull
	} `yaml:"market"`
	Universe struct {
		Size             int      `yaml:"size"`
		CodeLength       int      `yaml:"code_length"`
		ExcludePrefixes  []string `yaml:"exclude_prefixes"`
		ExcludeSymbols   []string `yaml:"exclude_symbols"`
		MinTableRows     int      `yaml:"min_table_rows"`
		BaselineFallback int      `yaml:"baseline_fallback"` // extra earlier days to try
	} `yaml:"universe"`
	Breadth struct {
		HotThreshold        float64       `yaml:"hot_threshold"`
		ColdThreshold       float64       `yaml:"cold_threshold"`
		EntryThreshold      float64       `yaml:"entry_threshold"`
		RapidWindow         time.Duration `yaml:"rapid_window"`
		RapidTolerance      time.Duration `yaml:"rapid_tolerance"`
		RapidThreshold      float64       `yaml:"rapid_threshold"`
		BaselineMinCoverage int           `yaml:"baseline_min_coverage"`
		TrendDeviation      float64       `yaml:"trend_deviation"`
		ReversalThreshold   float64       `yaml:"reversal_threshold"`
		PrevDayLagTolerance int           `yaml:"prev_day_lag_tolerance"` // calendar days
	} `yaml:"breadth"`
	Poll struct {
		Interval        time.Duration `yaml:"interval"`
		Workers         int           `yaml:"workers"`
		ProviderTimeout time.Duration `yaml:"provider_timeout"`
	} `yaml:"poll"`
	Providers struct {
		Broker struct {
			Enabled         bool          `yaml:"enabled"`
			URL             string        `yaml:"url"`
			SnapshotTimeout time.Duration `yaml:"snapshot_timeout"`
		} `yaml:"broker"`
		Exchange struct {
			Enabled   bool          `yaml:"enabled"`
			BaseURL   string        `yaml:"base_url"`
			WarmupURL string        `yaml:"warmup_url"`
			UserAgent string        `yaml:"user_agent"`
			Timeout   time.Duration `yaml:"timeout"`
			BatchSize int           `yaml:"batch_size"`
		} `yaml:"exchange"`
		FinMind struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"finmind"`
		Yahoo struct {
			Enabled  bool     `yaml:"enabled"`
			Suffixes []string `yaml:"suffixes"`
		} `yaml:"yahoo"`
	} `yaml:"providers"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		Table        string        `yaml:"table"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`

	Secrets Secrets `yaml:"-"`
}

// Secrets are provider credentials, never read from YAML.
type Secrets struct {
	FinMindToken string `envconfig:"FINMIND_TOKEN"`
	BrokerToken  string `envconfig:"BROKER_TOKEN"`
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

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML, hydrates secrets from the
// environment, and applies environment overrides for deployment knobs.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := envconfig.Process("", &c.Secrets); err != nil {
		return nil, fmt.Errorf("process secrets: %w", err)
	}

	if v := os.Getenv("UNIVERSE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("UNIVERSE_SIZE: %w", err)
		}
		c.Universe.Size = n
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		c.Poll.Interval = d
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Universe.Size <= 0 {
		return fmt.Errorf("universe.size must be positive")
	}
	if c.Market.Timezone == "" {
		return fmt.Errorf("market.timezone is required")
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}
	if c.Market.ReferenceSymbol == "" {
		return fmt.Errorf("market.reference_symbol is required")
	}
	if c.Market.IndexSymbol == "" {
		return fmt.Errorf("market.index_symbol is required")
	}
	if _, err := c.TradingWeekdays(); err != nil {
		return err
	}
	open, close := clockMinutes(c.Market.OpenTime), clockMinutes(c.Market.CloseTime)
	if open < 0 || close < 0 {
		return fmt.Errorf("market open/close times must be HH:MM")
	}
	if open >= close {
		return fmt.Errorf("market.open_time must precede close_time")
	}
	if c.Breadth.HotThreshold <= c.Breadth.ColdThreshold {
		return fmt.Errorf("breadth.hot_threshold must exceed cold_threshold")
	}
	if c.Breadth.RapidThreshold <= 0 || c.Breadth.TrendDeviation <= 0 || c.Breadth.ReversalThreshold <= 0 {
		return fmt.Errorf("breadth thresholds must be positive")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.Poll.Workers <= 0 {
		return fmt.Errorf("poll.workers must be positive")
	}
	return nil
}

var weekdayNames = map[string]time.Weekday{
	"Sun": time.Sunday, "Mon": time.Monday, "Tue": time.Tuesday,
	"Wed": time.Wednesday, "Thu": time.Thursday, "Fri": time.Friday,
	"Sat": time.Saturday,
}

// TradingWeekdays resolves the configured weekday names into a set.
func (c *Config) TradingWeekdays() (map[time.Weekday]bool, error) {
	if len(c.Market.Weekdays) == 0 {
		return nil, fmt.Errorf("market.weekdays is required")
	}
	set := make(map[time.Weekday]bool, len(c.Market.Weekdays))
	for _, name := range c.Market.Weekdays {
		wd, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("market.weekdays: unknown weekday %q", name)
		}
		set[wd] = true
	}
	return set, nil
}

// Location resolves the configured market timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Market.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// OpenMinute returns the session open as minutes since midnight.
func (c *Config) OpenMinute() int { return clockMinutes(c.Market.OpenTime) }

// CloseMinute returns the session close as minutes since midnight.
func (c *Config) CloseMinute() int { return clockMinutes(c.Market.CloseTime) }

func clockMinutes(clock string) int {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}
