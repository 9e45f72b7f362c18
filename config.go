package rexster

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"gopkg.in/yaml.v3"
)

// Config describes how to reach a Rexster server and how the transport stack
// in front of it is built.
//
//	host: http://localhost:8182
//	graph: tinkergraph
//	timeout: 30s
//	rate_limit:
//	  per_second: 50
//	  burst: 10
//	tracing: true
//	log_level: debug
type Config struct {
	Host      string          `yaml:"host"`
	Graph     string          `yaml:"graph"`
	Timeout   Duration        `yaml:"timeout"`
	UserAgent string          `yaml:"user_agent"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Tracing   bool            `yaml:"tracing"`
	LogLevel  string          `yaml:"log_level"`
	Neo4j     Neo4jConfig     `yaml:"neo4j"`
}

// RateLimitConfig bounds the request rate. Zero PerSecond means unlimited.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Neo4jConfig is the target of the mirror command.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Label    string `yaml:"label"`
}

// Duration is a time.Duration that reads "30s"-style strings from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// DefaultConfig returns the settings of a stock local Rexster install.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a YAML config file. Missing fields take their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "http://localhost:8182"
	}
	if c.Graph == "" {
		c.Graph = "tinkergraph"
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(30 * time.Second)
	}
	if c.UserAgent == "" {
		c.UserAgent = "go-rexster"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Neo4j.URI == "" {
		c.Neo4j.URI = "neo4j://localhost:7687"
	}
	if c.Neo4j.Database == "" {
		c.Neo4j.Database = "neo4j"
	}
	if c.Neo4j.Label == "" {
		c.Neo4j.Label = "RexsterVertex"
	}
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Transport builds the transport stack the config describes: HTTP, then rate
// limiting, then tracing through the global tracer provider.
func (c *Config) Transport(logger *slog.Logger) Transport {
	var t Transport = NewHTTPTransport(
		WithHTTPClient(&http.Client{Timeout: time.Duration(c.Timeout)}),
		WithUserAgent(c.UserAgent),
		WithTransportLogger(logger),
	)
	if c.RateLimit.PerSecond > 0 {
		t = NewRateLimitedTransport(t, c.RateLimit.PerSecond, c.RateLimit.Burst)
	}
	if c.Tracing {
		t = NewTracedTransport(t, otel.Tracer("github.com/saulfrancisco-ruizacevedo/go-rexster"))
	}
	return t
}

// Dial connects to the configured server.
func (c *Config) Dial(ctx context.Context, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = discardLogger
	}
	return Connect(ctx, c.Host, WithTransport(c.Transport(logger)), WithLogger(logger))
}
