package config

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/scaffold/internal/bytesize"
	"github.com/marmos91/scaffold/pkg/store"
	"github.com/marmos91/scaffold/pkg/validation"
)

func init() {
	if err := validation.RegisterRule("database_url", isDatabaseURL, validation.CodeInvalidString, "Invalid url"); err != nil {
		panic(err)
	}
}

// isDatabaseURL accepts the URLs the store can open: postgres and sqlite.
func isDatabaseURL(s string) bool {
	_, err := store.ParseDSN(s)
	return err == nil
}

// Env is the raw environment as the service reads it. Every value is a
// string; Parse checks their shape before coercing them into a Config.
type Env struct {
	Port        string `mapstructure:"PORT" json:"PORT" validate:"required,number" jsonschema:"description=TCP port to listen on (1-65535),pattern=^[0-9]+$"`
	LogName     string `mapstructure:"LOG_NAME" json:"LOG_NAME" validate:"required" jsonschema:"description=Logger name attached to every record"`
	LogLevel    string `mapstructure:"LOG_LEVEL" json:"LOG_LEVEL" validate:"required,oneof=silent trace debug info warn error fatal" jsonschema:"description=Minimum log level,enum=silent,enum=trace,enum=debug,enum=info,enum=warn,enum=error,enum=fatal"`
	DatabaseURL string `mapstructure:"DATABASE_URL" json:"DATABASE_URL" validate:"required,database_url" jsonschema:"description=Database connection URL (postgres or sqlite),format=uri"`

	Host                string `mapstructure:"HOST" json:"HOST,omitempty" validate:"omitempty,hostname|ip" jsonschema:"description=Interface to bind,default=0.0.0.0"`
	LogFormat           string `mapstructure:"LOG_FORMAT" json:"LOG_FORMAT,omitempty" validate:"omitempty,oneof=json text" jsonschema:"description=Log output format,enum=json,enum=text,default=json"`
	ShutdownTimeout     string `mapstructure:"SHUTDOWN_TIMEOUT" json:"SHUTDOWN_TIMEOUT,omitempty" jsonschema:"description=Maximum time to wait for the listener to stop (Go duration or milliseconds),default=2s"`
	TelemetryEndpoint   string `mapstructure:"TELEMETRY_ENDPOINT" json:"TELEMETRY_ENDPOINT,omitempty" validate:"omitempty,hostname_port" jsonschema:"description=OTLP gRPC collector (host:port); enables tracing"`
	TelemetrySampleRate string `mapstructure:"TELEMETRY_SAMPLE_RATE" json:"TELEMETRY_SAMPLE_RATE,omitempty" validate:"omitempty,numeric" jsonschema:"description=Trace sampling ratio between 0 and 1,default=1"`
	ProfilingEndpoint   string `mapstructure:"PROFILING_ENDPOINT" json:"PROFILING_ENDPOINT,omitempty" validate:"omitempty,url" jsonschema:"description=Pyroscope server URL; enables continuous profiling"`
	BodyLimit           string `mapstructure:"BODY_LIMIT" json:"BODY_LIMIT,omitempty" jsonschema:"description=Largest accepted request body (e.g. 1MiB or 512k),default=1MiB"`
}

// Config is the validated configuration record. A *Config only exists once
// every constraint has passed; treat it as read-only.
type Config struct {
	Port        int    `json:"port" yaml:"port" validate:"min=1,max=65535"`
	LogName     string `json:"logName" yaml:"logName" validate:"required"`
	LogLevel    string `json:"logLevel" yaml:"logLevel" validate:"oneof=silent trace debug info warn error fatal"`
	DatabaseURL string `json:"databaseUrl" yaml:"databaseUrl" validate:"required,database_url"`

	Host                string        `json:"host" yaml:"host" validate:"required"`
	LogFormat           string        `json:"logFormat" yaml:"logFormat" validate:"oneof=json text"`
	ShutdownTimeout     time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout" validate:"gt=0"`
	TelemetryEndpoint   string        `json:"telemetryEndpoint,omitempty" yaml:"telemetryEndpoint,omitempty"`
	TelemetrySampleRate float64       `json:"telemetrySampleRate" yaml:"telemetrySampleRate" validate:"gte=0,lte=1"`
	ProfilingEndpoint   string        `json:"profilingEndpoint,omitempty" yaml:"profilingEndpoint,omitempty"`
	BodyLimit           bytesize.Size `json:"bodyLimit" yaml:"bodyLimit" validate:"gt=0"`
}

// Parse validates a raw environment and returns the configuration record.
//
// Validation runs in two stages. First every raw value's shape is checked and
// all failures are reported together, keyed by variable name (e.g. "PORT").
// Then values are coerced and the resulting record is checked again, keyed by
// field name (e.g. "port"). Either failure yields a *ConfigError.
func Parse(env map[string]string) (*Config, error) {
	var raw Env
	if err := mapstructure.Decode(env, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if report := validation.Validate(&raw); report != nil {
		return nil, newConfigError(report)
	}

	cfg, issues := coerce(raw)
	if len(issues) > 0 {
		return nil, newConfigError(validation.NewError(issues...))
	}

	if report := validation.Validate(cfg); report != nil {
		return nil, newConfigError(report)
	}

	return cfg, nil
}

// coerce converts checked strings into typed fields, applying defaults for
// unset optional values.
func coerce(raw Env) (*Config, []validation.Issue) {
	var issues []validation.Issue

	cfg := &Config{
		LogName:           raw.LogName,
		LogLevel:          strings.ToLower(raw.LogLevel),
		DatabaseURL:       raw.DatabaseURL,
		Host:              raw.Host,
		LogFormat:         raw.LogFormat,
		TelemetryEndpoint: raw.TelemetryEndpoint,
		ProfilingEndpoint: raw.ProfilingEndpoint,
	}

	port, err := strconv.Atoi(raw.Port)
	if err != nil {
		issues = append(issues, validation.Issue{
			Path:    []any{"port"},
			Code:    validation.CodeInvalidType,
			Message: "Expected integer",
		})
	}
	cfg.Port = port

	if raw.ShutdownTimeout != "" {
		d, err := parseDuration(raw.ShutdownTimeout)
		if err != nil {
			issues = append(issues, validation.Issue{
				Path:    []any{"shutdownTimeout"},
				Code:    validation.CodeInvalidType,
				Message: "Expected duration (e.g. 2s, 500ms) or milliseconds",
			})
		}
		cfg.ShutdownTimeout = d
	}

	cfg.TelemetrySampleRate = DefaultTelemetrySampleRate
	if raw.TelemetrySampleRate != "" {
		rate, err := strconv.ParseFloat(raw.TelemetrySampleRate, 64)
		if err != nil {
			issues = append(issues, validation.Issue{
				Path:    []any{"telemetrySampleRate"},
				Code:    validation.CodeInvalidType,
				Message: "Expected number",
			})
		}
		cfg.TelemetrySampleRate = rate
	}

	cfg.BodyLimit = DefaultBodyLimit
	if raw.BodyLimit != "" {
		size, err := bytesize.Parse(raw.BodyLimit)
		if err != nil {
			issues = append(issues, validation.Issue{
				Path:    []any{"bodyLimit"},
				Code:    validation.CodeInvalidType,
				Message: "Expected size (e.g. 1MiB, 512k)",
			})
		}
		cfg.BodyLimit = size
	}

	applyDefaults(cfg)
	return cfg, issues
}

// parseDuration accepts Go durations and bare millisecond counts.
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// Keys returns the environment variable names the service reads, in declaration order.
func Keys() []string {
	t := reflect.TypeOf(Env{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Address returns host:port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Redacted returns a copy safe to print: credentials in DatabaseURL are masked.
func (c Config) Redacted() Config {
	if u, err := url.Parse(c.DatabaseURL); err == nil {
		c.DatabaseURL = u.Redacted()
	}
	return c
}

// TelemetryEnabled reports whether tracing export is configured.
func (c *Config) TelemetryEnabled() bool {
	return c.TelemetryEndpoint != ""
}

// ProfilingEnabled reports whether continuous profiling is configured.
func (c *Config) ProfilingEnabled() bool {
	return c.ProfilingEndpoint != ""
}
