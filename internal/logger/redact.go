package logger

import (
	"log/slog"
	"net/http"
	"strings"
)

// Redacted replaces the value of sensitive attributes.
const Redacted = "[Redacted]"

// sensitiveKeys are matched case-insensitively against attribute keys.
var sensitiveKeys = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"set-cookie":    {},
}

// IsSensitive reports whether an attribute or header name must never be logged verbatim.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// redactAttr masks sensitive attributes, descending into groups.
func redactAttr(a slog.Attr) slog.Attr {
	if IsSensitive(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// Headers returns a group attribute for HTTP headers with sensitive values redacted.
// Multi-valued headers are joined with ", ".
func Headers(key string, h http.Header) slog.Attr {
	attrs := make([]any, 0, len(h))
	for name, values := range h {
		if IsSensitive(name) {
			attrs = append(attrs, slog.String(strings.ToLower(name), Redacted))
			continue
		}
		attrs = append(attrs, slog.String(strings.ToLower(name), strings.Join(values, ", ")))
	}
	return slog.Group(key, attrs...)
}
