package config

import (
	"time"

	"github.com/marmos91/scaffold/internal/bytesize"
)

// Defaults for optional settings.
const (
	DefaultHost                = "0.0.0.0"
	DefaultLogFormat           = "json"
	DefaultShutdownTimeout     = 2 * time.Second
	DefaultTelemetrySampleRate = 1.0
	DefaultBodyLimit           = bytesize.MiB
)

// applyDefaults fills unset optional fields.
//
// Default Strategy:
//   - Zero values are replaced with defaults
//   - Explicit values are preserved
//   - TelemetrySampleRate and BodyLimit are defaulted during coercion, so an
//     explicit 0 reaches validation
func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}
