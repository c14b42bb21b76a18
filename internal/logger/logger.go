package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents log levels, ordered from most to least verbose.
// LevelSilent sits above every other level so that it filters everything.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelSilent
)

// slog has no trace or fatal levels; these sit outside the built-in range.
const (
	slogLevelTrace = slog.LevelDebug - 4
	slogLevelFatal = slog.LevelError + 4
)

// levelNames lists the accepted level names in their documented order.
var levelNames = []string{"silent", "trace", "debug", "info", "warn", "error", "fatal"}

// Levels returns the accepted level names: silent, trace, debug, info, warn, error, fatal.
func Levels() []string {
	return append([]string(nil), levelNames...)
}

// Config holds logger configuration
type Config struct {
	Name   string // Logger name, attached to every record as "name"
	Level  string // silent, trace, debug, info, warn, error, fatal
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	currentLevel  atomic.Int32
	currentFormat atomic.Value // stores "text" or "json"
	currentName   atomic.Value // stores the logger name

	mu       sync.RWMutex
	handler  slog.Handler
	slogger  *slog.Logger
	output   io.Writer = os.Stdout
	useColor bool      = true
)

func init() {
	currentLevel.Store(int32(LevelInfo))
	currentFormat.Store("json")
	currentName.Store("")

	if f, ok := output.(*os.File); ok {
		useColor = isTerminal(f)
	}

	reconfigure()
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	case LevelSilent:
		return "SILENT"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (case-insensitive) to a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "silent":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// toSlogLevel converts internal level to slog.Level
func toSlogLevel(l Level) slog.Level {
	switch l {
	case LevelTrace:
		return slogLevelTrace
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelFatal:
		return slogLevelFatal
	default:
		return slog.LevelInfo
	}
}

// slogLevelName names the two levels slog does not know about.
func slogLevelName(l slog.Level) string {
	switch {
	case l <= slogLevelTrace:
		return "TRACE"
	case l >= slogLevelFatal:
		return "FATAL"
	default:
		return l.String()
	}
}

// replaceAttr renames custom levels and redacts sensitive attributes.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(slogLevelName(l))
		}
		return a
	}
	return redactAttr(a)
}

// reconfigure rebuilds the slog handler based on current settings
func reconfigure() {
	mu.Lock()
	defer mu.Unlock()

	level := Level(currentLevel.Load())
	format, _ := currentFormat.Load().(string)
	name, _ := currentName.Load().(string)

	if level == LevelSilent {
		handler = slog.DiscardHandler
		slogger = slog.New(handler)
		return
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(toSlogLevel(level))

	opts := &slog.HandlerOptions{
		Level:       levelVar,
		ReplaceAttr: replaceAttr,
	}

	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = NewColorTextHandler(output, opts, useColor)
	}

	slogger = slog.New(handler)
	if name != "" {
		slogger = slogger.With(KeyName, name)
	}
}

// Init initializes the logger with the given configuration.
// Output can be "stdout", "stderr", or a file path.
func Init(cfg Config) error {
	if cfg.Output != "" {
		mu.Lock()
		var newOutput io.Writer
		var newUseColor bool

		switch strings.ToLower(cfg.Output) {
		case "stdout":
			newOutput = os.Stdout
			newUseColor = isTerminal(os.Stdout)
		case "stderr":
			newOutput = os.Stderr
			newUseColor = isTerminal(os.Stderr)
		default:
			f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				mu.Unlock()
				return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
			}
			newOutput = f
			newUseColor = false
		}

		output = newOutput
		useColor = newUseColor
		mu.Unlock()
	}

	currentName.Store(cfg.Name)

	if cfg.Level != "" {
		if _, err := ParseLevel(cfg.Level); err != nil {
			return err
		}
		SetLevel(cfg.Level)
	}

	if cfg.Format != "" {
		SetFormat(cfg.Format)
	}

	reconfigure()
	return nil
}

// InitWithWriter initializes the logger with a custom io.Writer.
// This is primarily useful for testing.
func InitWithWriter(w io.Writer, level, format string, enableColor bool) {
	mu.Lock()
	output = w
	useColor = enableColor
	mu.Unlock()

	if level != "" {
		SetLevel(level)
	}
	if format != "" {
		SetFormat(format)
	}
	reconfigure()
}

// SetLevel sets the minimum log level. Unknown names are ignored.
func SetLevel(level string) {
	l, err := ParseLevel(level)
	if err != nil {
		return
	}
	currentLevel.Store(int32(l))
	reconfigure()
}

// SetFormat sets the output format (text or json)
func SetFormat(format string) {
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return
	}
	currentFormat.Store(format)
	reconfigure()
}

// SetName sets the logger name attached to every record.
func SetName(name string) {
	currentName.Store(name)
	reconfigure()
}

// CurrentLevel returns the active minimum level.
func CurrentLevel() Level {
	return Level(currentLevel.Load())
}

// enabled reports whether records at l pass the current threshold.
func enabled(l Level) bool {
	return l >= Level(currentLevel.Load()) && Level(currentLevel.Load()) != LevelSilent
}

// getLogger returns the current slog logger
func getLogger() *slog.Logger {
	mu.RLock()
	l := slogger
	mu.RUnlock()
	return l
}

// ============================================================================
// Structured Logging API
// ============================================================================

// Log logs at an arbitrary level with structured fields.
func Log(level Level, msg string, args ...any) {
	if !enabled(level) {
		return
	}
	getLogger().Log(context.Background(), toSlogLevel(level), msg, args...)
}

// Trace logs at trace level with structured fields
func Trace(msg string, args ...any) {
	Log(LevelTrace, msg, args...)
}

// Debug logs at debug level with structured fields
// Usage: Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) {
	if !enabled(LevelDebug) {
		return
	}
	getLogger().Debug(msg, args...)
}

// Info logs at info level with structured fields
// Usage: Info("message", "key1", value1, "key2", value2)
func Info(msg string, args ...any) {
	if !enabled(LevelInfo) {
		return
	}
	getLogger().Info(msg, args...)
}

// Warn logs at warn level with structured fields
func Warn(msg string, args ...any) {
	if !enabled(LevelWarn) {
		return
	}
	getLogger().Warn(msg, args...)
}

// Error logs at error level with structured fields
func Error(msg string, args ...any) {
	if !enabled(LevelError) {
		return
	}
	getLogger().Error(msg, args...)
}

// Fatal logs at fatal level. It does not exit the process; callers decide that.
func Fatal(msg string, args ...any) {
	Log(LevelFatal, msg, args...)
}

// ============================================================================
// Context-aware Logging API
// ============================================================================

// LogCtx logs at an arbitrary level with request context fields.
func LogCtx(ctx context.Context, level Level, msg string, args ...any) {
	if !enabled(level) {
		return
	}
	args = appendContextFields(ctx, args)
	getLogger().Log(ctx, toSlogLevel(level), msg, args...)
}

// DebugCtx logs at debug level with context (auto-injects request_id, trace_id, etc.)
func DebugCtx(ctx context.Context, msg string, args ...any) {
	LogCtx(ctx, LevelDebug, msg, args...)
}

// InfoCtx logs at info level with context
func InfoCtx(ctx context.Context, msg string, args ...any) {
	LogCtx(ctx, LevelInfo, msg, args...)
}

// WarnCtx logs at warn level with context
func WarnCtx(ctx context.Context, msg string, args ...any) {
	LogCtx(ctx, LevelWarn, msg, args...)
}

// ErrorCtx logs at error level with context
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	LogCtx(ctx, LevelError, msg, args...)
}

// appendContextFields adds LogContext fields to args
func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	// Prepend context fields so they appear first in output
	ctxArgs := make([]any, 0, 12+len(args))

	if lc.RequestID != "" {
		ctxArgs = append(ctxArgs, KeyRequestID, lc.RequestID)
	}
	if lc.TraceID != "" {
		ctxArgs = append(ctxArgs, KeyTraceID, lc.TraceID)
	}
	if lc.SpanID != "" {
		ctxArgs = append(ctxArgs, KeySpanID, lc.SpanID)
	}
	if lc.Method != "" {
		ctxArgs = append(ctxArgs, KeyMethod, lc.Method)
	}
	if lc.Path != "" {
		ctxArgs = append(ctxArgs, KeyPath, lc.Path)
	}
	if lc.ClientIP != "" {
		ctxArgs = append(ctxArgs, KeyClientIP, lc.ClientIP)
	}

	ctxArgs = append(ctxArgs, args...)
	return ctxArgs
}

// With returns a new slog.Logger with additional attributes
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}

// Duration returns duration since start time in milliseconds
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// isTerminal reports whether f is attached to a character device.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
