package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator instance. Field names in reported
// paths come from json tags.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			switch name {
			case "-":
				return ""
			case "":
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks v against its validate tags and reports every failure
// with paths rooted at prefix. It returns nil when v is valid or is not a struct.
func Validate(v any, prefix ...any) *Error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewError(Issue{Path: prefixed(prefix), Code: CodeCustom, Message: err.Error()})
	}

	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		code, msg := issueFor(fe)
		issues = append(issues, Issue{
			Path:    prefixed(prefix, namespacePath(fe.Namespace())...),
			Code:    code,
			Message: msg,
		})
	}
	return NewError(issues...)
}

// namespacePath converts "Body.items[0].name" into ["items", 0, "name"].
// The leading segment is the root struct type and is dropped.
func namespacePath(ns string) []any {
	segments := strings.Split(ns, ".")
	if len(segments) > 0 {
		segments = segments[1:]
	}

	var path []any
	for _, seg := range segments {
		for seg != "" {
			open := strings.IndexByte(seg, '[')
			if open < 0 {
				path = append(path, seg)
				break
			}
			if open > 0 {
				path = append(path, seg[:open])
			}
			end := strings.IndexByte(seg[open:], ']')
			if end < 0 {
				path = append(path, seg[open:])
				break
			}
			key := seg[open+1 : open+end]
			if n, err := strconv.Atoi(key); err == nil {
				path = append(path, n)
			} else {
				path = append(path, key)
			}
			seg = seg[open+end+1:]
		}
	}
	return path
}
