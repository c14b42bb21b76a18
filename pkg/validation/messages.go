package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// issueFor maps a validator failure onto an issue code and message.
func issueFor(fe validator.FieldError) (string, string) {
	kind := fe.Kind()
	if kind == reflect.Ptr {
		kind = fe.Type().Elem().Kind()
	}

	if r, ok := registeredRule(fe.Tag()); ok {
		return r.code, r.message
	}

	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return CodeInvalidType, "Required"
	case "oneof":
		options := strings.Fields(fe.Param())
		return CodeInvalidEnumValue, "Invalid enum value. Expected one of: " + strings.Join(options, ", ")
	case "url", "uri", "http_url":
		return CodeInvalidString, "Invalid url"
	case "email":
		return CodeInvalidString, "Invalid email"
	case "uuid", "uuid4":
		return CodeInvalidString, "Invalid uuid"
	case "ulid":
		return CodeInvalidString, "Invalid ulid"
	case "number", "numeric":
		return CodeInvalidString, "Expected numeric string"
	case "hostname|ip":
		return CodeInvalidString, "Invalid host"
	case "hostname", "hostname_port", "ip", "ipv4", "ipv6":
		return CodeInvalidString, fmt.Sprintf("Invalid %s", fe.Tag())
	case "min", "gte":
		return CodeTooSmall, boundMessage(kind, "at least", "greater than or equal to", fe.Param())
	case "gt":
		return CodeTooSmall, boundMessage(kind, "more than", "greater than", fe.Param())
	case "max", "lte":
		return CodeTooBig, boundMessage(kind, "at most", "less than or equal to", fe.Param())
	case "lt":
		return CodeTooBig, boundMessage(kind, "fewer than", "less than", fe.Param())
	case "len":
		return CodeInvalidType, boundMessage(kind, "exactly", "equal to", fe.Param())
	default:
		return CodeCustom, fmt.Sprintf("Failed on the '%s' validation", fe.Tag())
	}
}

func boundMessage(kind reflect.Kind, countWord, cmpWord, param string) string {
	switch kind {
	case reflect.String:
		return fmt.Sprintf("String must contain %s %s character(s)", countWord, param)
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("Array must contain %s %s element(s)", countWord, param)
	case reflect.Map:
		return fmt.Sprintf("Object must contain %s %s key(s)", countWord, param)
	default:
		return fmt.Sprintf("Number must be %s %s", cmpWord, param)
	}
}
