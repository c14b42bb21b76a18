// Package lifecycle provides process startup and shutdown orchestration.
//
// The Service connects persistence, then starts the listener, and tears both
// down in the reverse order. Shutdown goes through an at-most-once guard
// (Once) and a deadline guard (WithTimeout), so any number of signals or
// callers can trigger it and it always finishes within a bounded time.
package lifecycle
