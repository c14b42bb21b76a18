package api

import "time"

// ServerConfig configures the HTTP server. Host and port are not part of it:
// they are handed to Listen by the lifecycle service.
type ServerConfig struct {
	// ServiceName names the service in health responses and trace spans.
	// Default: "scaffold"
	ServiceName string

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 10s
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 10s
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration

	// RequestTimeout bounds the context handed to route handlers.
	// Default: 30s
	RequestTimeout time.Duration

	// BodyLimit is the largest accepted request body in bytes.
	// Default: 1 MiB
	BodyLimit int64
}

// applyDefaults fills in zero values with sensible defaults.
func (c *ServerConfig) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "scaffold"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.BodyLimit <= 0 {
		c.BodyLimit = 1 << 20
	}
}
