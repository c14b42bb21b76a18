package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false // Disable colors for easier testing
	mu.Unlock()

	originalLevel := CurrentLevel()
	originalFormat, _ := currentFormat.Load().(string)
	originalName, _ := currentName.Load().(string)

	currentFormat.Store("text")
	currentName.Store("")
	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		currentLevel.Store(int32(originalLevel))
		currentFormat.Store(originalFormat)
		currentName.Store(originalName)
		reconfigure()
	}

	return buf, cleanup
}

// decodeLines parses newline-delimited JSON records.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		records = append(records, rec)
	}
	return records
}

// ============================================================================
// Level Filtering Tests
// ============================================================================

func TestLevelFiltering(t *testing.T) {
	t.Run("TraceLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("trace")

		Trace("trace message")
		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")
		Fatal("fatal message")

		output := buf.String()
		for _, want := range []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"} {
			assert.Contains(t, output, want)
		}
		assert.Contains(t, output, "trace message")
		assert.Contains(t, output, "fatal message")
	})

	t.Run("InfoLevelFiltersDebugAndTrace", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("info")

		Trace("trace message")
		Debug("debug message")
		Info("info message")
		Warn("warn message")

		output := buf.String()
		assert.NotContains(t, output, "trace message")
		assert.NotContains(t, output, "debug message")
		assert.Contains(t, output, "info message")
		assert.Contains(t, output, "warn message")
	})

	t.Run("ErrorLevelShowsOnlyErrorsAndFatal", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("error")

		Info("info message")
		Warn("warn message")
		Error("error message")
		Fatal("fatal message")

		output := buf.String()
		assert.NotContains(t, output, "info message")
		assert.NotContains(t, output, "warn message")
		assert.Contains(t, output, "error message")
		assert.Contains(t, output, "fatal message")
	})

	t.Run("SilentDiscardsEverything", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("silent")

		Trace("trace message")
		Info("info message")
		Error("error message")
		Fatal("fatal message")
		InfoCtx(context.Background(), "ctx message")

		assert.Empty(t, buf.String())
	})
}

// ============================================================================
// SetLevel / ParseLevel Tests
// ============================================================================

func TestSetLevel(t *testing.T) {
	t.Run("SetLevelChangesFilteringBehavior", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("error")
		Info("should not appear")
		assert.Empty(t, buf.String())

		SetLevel("info")
		Info("should appear")
		assert.Contains(t, buf.String(), "should appear")
	})

	t.Run("SetLevelIsCaseInsensitive", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")
		assert.Equal(t, LevelWarn, CurrentLevel())
		SetLevel("Trace")
		assert.Equal(t, LevelTrace, CurrentLevel())
	})

	t.Run("SetLevelIgnoresInvalidValues", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		SetLevel("debug")
		SetLevel("verbose")
		assert.Equal(t, LevelDebug, CurrentLevel())
	})
}

func TestParseLevel(t *testing.T) {
	for _, name := range Levels() {
		t.Run(name, func(t *testing.T) {
			l, err := ParseLevel(name)
			require.NoError(t, err)
			assert.Equal(t, strings.ToUpper(name), l.String())
		})
	}

	t.Run("UnknownLevel", func(t *testing.T) {
		_, err := ParseLevel("loud")
		assert.Error(t, err)
	})
}

// ============================================================================
// Formatting Tests
// ============================================================================

func TestMessageFormatting(t *testing.T) {
	t.Run("FormatsMessagesWithStructuredFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("info")

		Info("server listening", KeyAddress, "0.0.0.0:3000", KeyStatus, 200)

		output := buf.String()
		assert.Contains(t, output, "[INFO] server listening")
		assert.Contains(t, output, "address=0.0.0.0:3000")
		assert.Contains(t, output, "status=200")
	})

	t.Run("GroupsAreFlattenedWithDots", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("info")

		With("component", "api").WithGroup("req").Info("incoming", "method", "GET")

		output := buf.String()
		assert.Contains(t, output, "component=api")
		assert.Contains(t, output, "req.method=GET")
	})
}

func TestJSONFormat(t *testing.T) {
	t.Run("JSONFormatProducesValidJSON", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("info")
		SetFormat("json")

		Info("json message", "key", "value")

		records := decodeLines(t, buf)
		require.Len(t, records, 1)
		assert.Equal(t, "json message", records[0]["msg"])
		assert.Equal(t, "value", records[0]["key"])
		assert.Equal(t, "INFO", records[0]["level"])
		assert.Contains(t, records[0], "time")
	})

	t.Run("CustomLevelsAreNamed", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("trace")
		SetFormat("json")

		Trace("t")
		Fatal("f")

		records := decodeLines(t, buf)
		require.Len(t, records, 2)
		assert.Equal(t, "TRACE", records[0]["level"])
		assert.Equal(t, "FATAL", records[1]["level"])
	})

	t.Run("NameIsAttached", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("info")
		SetFormat("json")
		SetName("scaffold")

		Info("named")

		records := decodeLines(t, buf)
		require.Len(t, records, 1)
		assert.Equal(t, "scaffold", records[0]["name"])
	})

	t.Run("InvalidFormatIgnored", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("info")
		SetFormat("json")
		SetFormat("xml")

		Info("still json")

		records := decodeLines(t, buf)
		require.Len(t, records, 1)
	})
}

// ============================================================================
// Redaction Tests
// ============================================================================

func TestRedaction(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer secret-token")
	headers.Set("Cookie", "session=abc")
	headers.Set("Accept", "application/json")

	t.Run("JSONRedactsSensitiveHeaders", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("info")
		SetFormat("json")

		Info("request", Headers(KeyHeaders, headers), "set-cookie", "id=1")

		output := buf.String()
		assert.NotContains(t, output, "secret-token")
		assert.NotContains(t, output, "session=abc")
		assert.NotContains(t, output, "id=1")

		records := decodeLines(t, buf)
		require.Len(t, records, 1)
		hdrs, ok := records[0][KeyHeaders].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, Redacted, hdrs["authorization"])
		assert.Equal(t, Redacted, hdrs["cookie"])
		assert.Equal(t, "application/json", hdrs["accept"])
		assert.Equal(t, Redacted, records[0]["set-cookie"])
	})

	t.Run("TextRedactsSensitiveHeaders", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("info")

		Info("request", Headers(KeyHeaders, headers), "Authorization", "Basic xyz")

		output := buf.String()
		assert.NotContains(t, output, "secret-token")
		assert.NotContains(t, output, "Basic xyz")
		assert.Contains(t, output, "headers.authorization="+Redacted)
		assert.Contains(t, output, "headers.accept=application/json")
	})

	t.Run("IsSensitiveIsCaseInsensitive", func(t *testing.T) {
		assert.True(t, IsSensitive("AUTHORIZATION"))
		assert.True(t, IsSensitive("Set-Cookie"))
		assert.False(t, IsSensitive("Accept"))
	})
}

// ============================================================================
// Context Tests
// ============================================================================

func TestContextLogging(t *testing.T) {
	t.Run("LogContextInjectsFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("info")

		lc := NewLogContext("01HZX", "GET", "/health", "10.0.0.1").WithTrace("trace-1", "span-1")
		ctx := WithContext(context.Background(), lc)

		InfoCtx(ctx, "handled")

		output := buf.String()
		assert.Contains(t, output, "request_id=01HZX")
		assert.Contains(t, output, "trace_id=trace-1")
		assert.Contains(t, output, "span_id=span-1")
		assert.Contains(t, output, "method=GET")
		assert.Contains(t, output, "path=/health")
		assert.Contains(t, output, "client_ip=10.0.0.1")
	})

	t.Run("NilContextHandled", func(t *testing.T) {
		assert.Nil(t, FromContext(nil)) //nolint:staticcheck
	})

	t.Run("ContextWithoutLogContextHandled", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("info")

		WarnCtx(context.Background(), "plain")
		assert.Contains(t, buf.String(), "plain")
	})
}

func TestLogContext(t *testing.T) {
	t.Run("CloneIsIndependent", func(t *testing.T) {
		lc := NewLogContext("id", "POST", "/items", "127.0.0.1")
		clone := lc.WithTrace("t", "s")

		assert.Empty(t, lc.TraceID)
		assert.Equal(t, "t", clone.TraceID)
		assert.Equal(t, lc.RequestID, clone.RequestID)
	})

	t.Run("CloneNil", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
		assert.Zero(t, lc.DurationMs())
	})
}

func TestFieldHelpers(t *testing.T) {
	t.Run("ErrHandlesNil", func(t *testing.T) {
		assert.Empty(t, Err(nil).Key)
	})

	t.Run("ErrFormatsError", func(t *testing.T) {
		attr := Err(errors.New("boom"))
		assert.Equal(t, KeyError, attr.Key)
		assert.Equal(t, "boom", attr.Value.String())
	})
}

// ============================================================================
// Concurrency / Init Tests
// ============================================================================

func TestConcurrentLogging(t *testing.T) {
	t.Run("ConcurrentLogsAndLevelChanges", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					Info("concurrent", "n", j)
				}
			}()
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					SetLevel("debug")
				} else {
					SetLevel("warn")
				}
			}(i)
		}
		wg.Wait()
	})
}

func TestInit(t *testing.T) {
	t.Run("InitWithWriter", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		buf := new(bytes.Buffer)
		InitWithWriter(buf, "debug", "text", false)
		Debug("via writer")
		assert.Contains(t, buf.String(), "via writer")
	})

	t.Run("InitRejectsUnknownLevel", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		err := Init(Config{Level: "chatty"})
		assert.Error(t, err)
	})

	t.Run("InitSetsName", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		require.NoError(t, Init(Config{Name: "svc", Level: "info", Format: "json"}))
		Info("hello")

		records := decodeLines(t, buf)
		require.Len(t, records, 1)
		assert.Equal(t, "svc", records[0]["name"])
	})
}

func BenchmarkLogDisabled(b *testing.B) {
	InitWithWriter(io.Discard, "error", "text", false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Debug("disabled", "i", i)
	}
}

func BenchmarkLogJSON(b *testing.B) {
	InitWithWriter(io.Discard, "info", "json", false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Info("enabled", "i", i)
	}
}
