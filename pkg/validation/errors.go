package validation

import (
	"fmt"
	"strconv"
	"strings"
)

// Issue codes.
const (
	CodeInvalidType      = "invalid_type"
	CodeInvalidString    = "invalid_string"
	CodeInvalidEnumValue = "invalid_enum_value"
	CodeTooSmall         = "too_small"
	CodeTooBig           = "too_big"
	CodeInvalidJSON      = "invalid_json"
	CodeCustom           = "custom"
)

// Issue is a single constraint violation.
type Issue struct {
	// Path locates the offending value. Segments are string keys or int indices.
	Path    []any  `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PathString joins the path with dots, e.g. "body.items.0.name".
func (i Issue) PathString() string {
	parts := make([]string, len(i.Path))
	for n, seg := range i.Path {
		switch v := seg.(type) {
		case int:
			parts[n] = strconv.Itoa(v)
		default:
			parts[n] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, ".")
}

// Error is a validation report: one or more issues found in a single input.
type Error struct {
	Message string  `json:"message"`
	Issues  []Issue `json:"issues"`
}

// NewError builds a report from issues.
func NewError(issues ...Issue) *Error {
	return &Error{
		Message: "Validation failed",
		Issues:  issues,
	}
}

func (e *Error) Error() string {
	if len(e.Issues) == 0 {
		return strings.ToLower(e.Message)
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(e.Message))
	b.WriteString(": ")
	for n, issue := range e.Issues {
		if n > 0 {
			b.WriteString("; ")
		}
		if p := issue.PathString(); p != "" {
			b.WriteString(p)
			b.WriteString(": ")
		}
		b.WriteString(issue.Message)
	}
	return b.String()
}

// prefixed returns a copy of path with prefix in front.
func prefixed(prefix []any, path ...any) []any {
	out := make([]any, 0, len(prefix)+len(path))
	out = append(out, prefix...)
	return append(out, path...)
}
