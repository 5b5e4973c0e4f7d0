// Package config holds the todo-service configuration.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/fluxorio/todo-service/pkg/config"
)

// EnvPrefix prefixes every environment override, e.g. TODO_SERVER_ADDR
const EnvPrefix = "TODO"

// Config is the service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server" json:"server"`
	Log       LogConfig       `yaml:"log" toml:"log" json:"log"`
	Todos     TodosConfig     `yaml:"todos" toml:"todos" json:"todos"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage" json:"storage"`
	Events    EventsConfig    `yaml:"events" toml:"events" json:"events"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth" json:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`
	Tracing   TracingConfig   `yaml:"tracing" toml:"tracing" json:"tracing"`
	Text      TextConfig      `yaml:"text" toml:"text" json:"text"`
}

type ServerConfig struct {
	Name               string        `yaml:"name" toml:"name" json:"name"`
	Addr               string        `yaml:"addr" toml:"addr" json:"addr"`
	MaxCCU             int           `yaml:"max_ccu" toml:"max_ccu" json:"max_ccu"`
	UtilizationPercent int           `yaml:"utilization_percent" toml:"utilization_percent" json:"utilization_percent"`
	ReadTimeout        time.Duration `yaml:"read_timeout" toml:"read_timeout" json:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout" toml:"write_timeout" json:"write_timeout"`
	RequestTimeout     time.Duration `yaml:"request_timeout" toml:"request_timeout" json:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxRequestBodySize int           `yaml:"max_request_body_size" toml:"max_request_body_size" json:"max_request_body_size"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// TodosConfig selects the id assignment strategy: "count" or "sequence"
type TodosConfig struct {
	IDStrategy string `yaml:"id_strategy" toml:"id_strategy" json:"id_strategy"`
}

// StorageConfig selects the repository backend. Driver "memory" keeps todos
// in process; "sqlite3", "postgres" and "pgx" use the SQL repository.
type StorageConfig struct {
	Driver       string `yaml:"driver" toml:"driver" json:"driver"`
	DSN          string `yaml:"dsn" toml:"dsn" json:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns" toml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns" toml:"max_idle_conns" json:"max_idle_conns"`
}

// EventsConfig selects the event publisher: "none", "memory" or "nats"
type EventsConfig struct {
	Driver  string `yaml:"driver" toml:"driver" json:"driver"`
	NATSURL string `yaml:"nats_url" toml:"nats_url" json:"nats_url"`
	Subject string `yaml:"subject" toml:"subject" json:"subject"`
}

// AuthConfig enables JWT authentication of /api routes when JWTSecret is set
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret" json:"jwt_secret"`
	Issuer    string `yaml:"issuer" toml:"issuer" json:"issuer"`
}

// RateLimitConfig limits /api requests per client IP. Zero disables it.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" toml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int `yaml:"burst" toml:"burst" json:"burst"`
}

type TracingConfig struct {
	Exporter    string  `yaml:"exporter" toml:"exporter" json:"exporter"`
	ZipkinURL   string  `yaml:"zipkin_url" toml:"zipkin_url" json:"zipkin_url"`
	ServiceName string  `yaml:"service_name" toml:"service_name" json:"service_name"`
	SampleRate  float64 `yaml:"sample_rate" toml:"sample_rate" json:"sample_rate"`
}

type TextConfig struct {
	ExtraStopWords  []string `yaml:"extra_stop_words" toml:"extra_stop_words" json:"extra_stop_words"`
	MaxKeywords     int      `yaml:"max_keywords" toml:"max_keywords" json:"max_keywords"`
	// SummaryLanguage is "en" or "zh"
	SummaryLanguage string   `yaml:"summary_language" toml:"summary_language" json:"summary_language"`
}

// Default returns a runnable configuration: in-memory store, no auth,
// no events and no tracing.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:               "todo-service",
			Addr:               ":8080",
			MaxCCU:             5000,
			UtilizationPercent: 67,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			RequestTimeout:     5 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			MaxRequestBodySize: 1 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Todos: TodosConfig{
			IDStrategy: "count",
		},
		Storage: StorageConfig{
			Driver:       "memory",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Events: EventsConfig{
			Driver:  "none",
			Subject: "events",
		},
		RateLimit: RateLimitConfig{},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "todo-service",
			SampleRate:  1,
		},
		Text: TextConfig{
			MaxKeywords:     10,
			SummaryLanguage: "en",
		},
	}
}

// Load reads path over the defaults, applies TODO_* environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	var err error
	if path != "" {
		err = pkgconfig.LoadWithEnv(path, EnvPrefix, &cfg)
	} else {
		err = pkgconfig.ApplyEnvOverrides(EnvPrefix, &cfg)
	}
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and cross-field requirements
func (c Config) Validate() error {
	err := pkgconfig.Validate(c,
		pkgconfig.RequiredFields("Server.Addr", "Server.Name"),
		pkgconfig.RangeValidator("Server.MaxCCU", 1, 1_000_000),
		pkgconfig.RangeValidator("Server.UtilizationPercent", 1, 100),
		pkgconfig.OneOfValidator("Log.Level", "debug", "info", "warn", "error"),
		pkgconfig.OneOfValidator("Log.Format", "text", "json", "logfmt"),
		pkgconfig.OneOfValidator("Todos.IDStrategy", "count", "sequence"),
		pkgconfig.OneOfValidator("Storage.Driver", "memory", "sqlite3", "postgres", "pgx"),
		pkgconfig.OneOfValidator("Events.Driver", "none", "memory", "nats"),
		pkgconfig.OneOfValidator("Tracing.Exporter", "none", "stdout", "zipkin"),
		pkgconfig.RangeValidator("Tracing.SampleRate", 0, 1),
		pkgconfig.RangeValidator("Text.MaxKeywords", 1, 1000),
		pkgconfig.OneOfValidator("Text.SummaryLanguage", "en", "zh"),
		pkgconfig.RangeValidator("RateLimit.RequestsPerMinute", 0, 1_000_000),
	)
	if err != nil {
		return err
	}

	if c.Storage.Driver != "memory" && c.Storage.DSN == "" {
		return fmt.Errorf("validation failed: storage.dsn is required for driver %s", c.Storage.Driver)
	}
	if c.Events.Driver == "nats" && c.Events.NATSURL == "" {
		return fmt.Errorf("validation failed: events.nats_url is required for the nats driver")
	}
	if c.Tracing.Exporter == "zipkin" && c.Tracing.ZipkinURL == "" {
		return fmt.Errorf("validation failed: tracing.zipkin_url is required for the zipkin exporter")
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("validation failed: server.request_timeout cannot be negative")
	}
	return nil
}
