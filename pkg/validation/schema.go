package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Schema parses raw input into a typed value or reports why it cannot.
//
// prefix is prepended to every issue path, so a schema used for a request
// body reports paths such as ["body", "name"]. Parse returns a *Error for
// invalid input; any other error is treated by callers as a defect.
type Schema interface {
	Parse(raw any, prefix ...any) (any, error)
}

// SchemaFunc adapts a plain function to Schema.
type SchemaFunc func(raw any, prefix ...any) (any, error)

// Parse calls f.
func (f SchemaFunc) Parse(raw any, prefix ...any) (any, error) {
	return f(raw, prefix...)
}

// StructSchema decodes input into T and checks its validate tags.
type StructSchema[T any] struct{}

// Struct returns a schema for T.
//
// Accepted input: JSON bytes, a decoded JSON value (maps, slices, scalars),
// or string maps as produced by URL params, query strings and headers. String
// maps are decoded weakly so "42" fills an int field. Field names follow json
// tags. Parse returns a *T.
func Struct[T any]() StructSchema[T] {
	return StructSchema[T]{}
}

// Parse implements Schema.
func (StructSchema[T]) Parse(raw any, prefix ...any) (any, error) {
	v := new(T)

	var err *Error
	switch in := raw.(type) {
	case nil:
		return nil, NewError(Issue{Path: prefixed(prefix), Code: CodeInvalidType, Message: "Required"})
	case []byte:
		err = decodeJSON(in, v, prefix)
	case json.RawMessage:
		err = decodeJSON(in, v, prefix)
	case map[string]string:
		err = decodeWeak(stringMap(in), v, prefix)
	case url.Values:
		err = decodeWeak(multiMap(in, false), v, prefix)
	case http.Header:
		err = decodeWeak(multiMap(in, true), v, prefix)
	case map[string][]string:
		err = decodeWeak(multiMap(in, false), v, prefix)
	default:
		data, merr := json.Marshal(in)
		if merr != nil {
			return nil, fmt.Errorf("failed to re-encode input: %w", merr)
		}
		err = decodeJSON(data, v, prefix)
	}
	if err != nil {
		return nil, err
	}

	if verr := Validate(v, prefix...); verr != nil {
		return nil, verr
	}
	return v, nil
}

// decodeJSON unmarshals data into v, reporting type mismatches as issues.
func decodeJSON(data []byte, v any, prefix []any) *Error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return NewError(Issue{
			Path:    prefixed(prefix, dottedPath(typeErr.Field)...),
			Code:    CodeInvalidType,
			Message: fmt.Sprintf("Expected %s, received %s", jsonKind(typeErr.Type.Kind().String()), typeErr.Value),
		})
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return NewError(Issue{Path: prefixed(prefix), Code: CodeInvalidJSON, Message: "Invalid JSON"})
	}

	return NewError(Issue{Path: prefixed(prefix), Code: CodeInvalidType, Message: err.Error()})
}

// mapstructure reports the offending field as the first quoted token.
var mapstructureField = regexp.MustCompile(`'([^']*)'`)

// decodeWeak decodes a string map into v with weak typing.
func decodeWeak(in map[string]any, v any, prefix []any) *Error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           v,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return NewError(Issue{Path: prefixed(prefix), Code: CodeCustom, Message: err.Error()})
	}

	if err := decoder.Decode(in); err != nil {
		var mErr *mapstructure.Error
		if !errors.As(err, &mErr) {
			return NewError(Issue{Path: prefixed(prefix), Code: CodeInvalidType, Message: err.Error()})
		}
		issues := make([]Issue, 0, len(mErr.Errors))
		for _, msg := range mErr.Errors {
			var path []any
			if m := mapstructureField.FindStringSubmatch(msg); m != nil {
				path = dottedPath(strings.ReplaceAll(strings.ReplaceAll(m[1], "[", "."), "]", ""))
			}
			issues = append(issues, Issue{
				Path:    prefixed(prefix, path...),
				Code:    CodeInvalidType,
				Message: weakMessage(msg),
			})
		}
		return NewError(issues...)
	}
	return nil
}

// weakMessage shortens mapstructure's conversion errors.
func weakMessage(msg string) string {
	switch {
	case strings.Contains(msg, "as int"), strings.Contains(msg, "as uint"):
		return "Expected integer"
	case strings.Contains(msg, "as float"):
		return "Expected number"
	case strings.Contains(msg, "as bool"):
		return "Expected boolean"
	default:
		return msg
	}
}

// dottedPath splits "items.0.name" into ["items", 0, "name"].
func dottedPath(field string) []any {
	if field == "" {
		return nil
	}
	parts := strings.Split(field, ".")
	path := make([]any, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil {
			path = append(path, n)
			continue
		}
		path = append(path, p)
	}
	return path
}

func jsonKind(goKind string) string {
	switch goKind {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "float32", "float64":
		return "number"
	case "bool":
		return "boolean"
	case "slice", "array":
		return "array"
	case "struct", "map":
		return "object"
	default:
		return goKind
	}
}

func stringMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// multiMap flattens single-valued entries so they decode into scalar fields.
func multiMap(in map[string][]string, lowerKeys bool) map[string]any {
	out := make(map[string]any, len(in))
	for k, values := range in {
		if lowerKeys {
			k = strings.ToLower(k)
		}
		switch len(values) {
		case 0:
		case 1:
			out[k] = values[0]
		default:
			out[k] = append([]string(nil), values...)
		}
	}
	return out
}
