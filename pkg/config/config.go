// Kunhua Huang 2026

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ecstasoy/echoadd/pkg/protocol"
	"github.com/ecstasoy/echoadd/pkg/server"
)

// EnvPrefix is prepended to every environment override, e.g. ECHOADD_SERVER_ADDRESS.
const EnvPrefix = "ECHOADD_"

type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

type ServerConfig struct {
	Address        string   `yaml:"address" env:"ADDRESS"`
	Codec          string   `yaml:"codec" env:"CODEC"`
	Compress       string   `yaml:"compress" env:"COMPRESS"`
	Framing        string   `yaml:"framing" env:"FRAMING"`
	MaxFrameSize   int      `yaml:"max_frame_size" env:"MAX_FRAME_SIZE"`
	ReadBufferSize int      `yaml:"read_buffer_size" env:"READ_BUFFER_SIZE"`
	PollInterval   Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	WriteTimeout   Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	MaxConnections int      `yaml:"max_connections" env:"MAX_CONNECTIONS"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// MetricsConfig enables the prometheus endpoint when Address is set.
type MetricsConfig struct {
	Address string `yaml:"address" env:"ADDRESS"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d *Duration) UnmarshalText(text []byte) error {
	dd, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = dd
	return nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        "127.0.0.1:8080",
			Codec:          "protobuf",
			Compress:       "none",
			Framing:        "raw",
			MaxFrameSize:   1024 * 1024,
			ReadBufferSize: 1024,
			PollInterval:   Duration{10 * time.Millisecond},
		},
		Log: LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			ServiceName: "echoadd",
		},
	}
}

// Load reads path over the defaults and then applies ECHOADD_* overrides from
// the process environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := ApplyEnv(cfg, environ()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the ECHOADD_* entries of environment.
// Unset variables leave the current value alone.
func ApplyEnv(cfg *Config, environment map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environment,
	}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if _, err := protocol.ParseCodecType(c.Server.Codec); err != nil {
		errs = append(errs, fmt.Errorf("server.codec: %w", err))
	}
	if _, err := protocol.ParseCompressType(c.Server.Compress); err != nil {
		errs = append(errs, fmt.Errorf("server.compress: %w", err))
	}
	if _, err := protocol.ParseFramingType(c.Server.Framing); err != nil {
		errs = append(errs, fmt.Errorf("server.framing: %w", err))
	}
	if c.Server.MaxFrameSize <= 0 {
		errs = append(errs, errors.New("server.max_frame_size must be positive"))
	}
	if c.Server.ReadBufferSize <= 0 {
		errs = append(errs, errors.New("server.read_buffer_size must be positive"))
	}
	if c.Server.PollInterval.Duration <= 0 {
		errs = append(errs, errors.New("server.poll_interval must be positive"))
	}
	if c.Server.WriteTimeout.Duration < 0 {
		errs = append(errs, errors.New("server.write_timeout must not be negative"))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, errors.New("server.max_connections must not be negative"))
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint is required when telemetry is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ServerOptions converts the server section into server options.
// The config must have passed Validate.
func (c *Config) ServerOptions() ([]server.Option, error) {
	codecType, err := protocol.ParseCodecType(c.Server.Codec)
	if err != nil {
		return nil, err
	}
	compressType, err := protocol.ParseCompressType(c.Server.Compress)
	if err != nil {
		return nil, err
	}
	framing, err := protocol.ParseFramingType(c.Server.Framing)
	if err != nil {
		return nil, err
	}

	return []server.Option{
		server.WithAddress(c.Server.Address),
		server.WithCodec(codecType, compressType),
		server.WithFraming(framing, c.Server.MaxFrameSize),
		server.WithReadBufferSize(c.Server.ReadBufferSize),
		server.WithPollInterval(c.Server.PollInterval.Duration),
		server.WithWriteTimeout(c.Server.WriteTimeout.Duration),
		server.WithMaxConnections(c.Server.MaxConnections),
	}, nil
}
