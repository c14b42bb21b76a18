package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	KeyName = "name" // Logger name

	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// HTTP Requests
	// ========================================================================
	KeyRequestID = "request_id" // Request correlation ID
	KeyMethod    = "method"     // HTTP method
	KeyPath      = "path"       // Request path
	KeyStatus    = "status"     // Response status code
	KeyBytes     = "bytes"      // Response body size
	KeyClientIP  = "client_ip"  // Client IP address
	KeyHeaders   = "headers"    // Request or response headers (redacted)

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Symbolic error code
	KeyComponent  = "component"   // Subsystem emitting the record
	KeyAddress    = "address"     // Listen or dial address
	KeyDatabase   = "database"    // Database driver / host
	KeyState      = "state"       // Lifecycle state
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for the request correlation ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Method returns a slog.Attr for the HTTP method
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Path returns a slog.Attr for the request path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Status returns a slog.Attr for the response status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Bytes returns a slog.Attr for a response body size
func Bytes(n int) slog.Attr {
	return slog.Int(KeyBytes, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a symbolic error code
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Component returns a slog.Attr naming the emitting subsystem
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Address returns a slog.Attr for a network address
func Address(addr string) slog.Attr {
	return slog.String(KeyAddress, addr)
}

// State returns a slog.Attr for a lifecycle state
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}
