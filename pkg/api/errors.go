package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/marmos91/scaffold/internal/logger"
	"github.com/marmos91/scaffold/pkg/validation"
)

// Error codes written in the "code" field of an Envelope.
const (
	CodeValidationError      = "VALIDATION_ERROR"
	CodeInternalServerError  = "INTERNAL_SERVER_ERROR"
	CodeRouteNotHandled      = "ROUTE_NOT_HANDLED"
	CodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeInvalidJSONBody      = "INVALID_JSON_BODY"
	CodeBodyTooLarge         = "BODY_TOO_LARGE"
)

// Error is a failure raised by the HTTP layer itself (malformed body, unknown
// method, ...) or by a handler that wants a specific status. It is reported
// with its own status, code and message.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// NewError creates a framework error.
func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status to report.
func (e *Error) StatusCode() int { return e.Status }

// ErrorCode returns the machine-readable code.
func (e *Error) ErrorCode() string { return e.Code }

// Envelope is the JSON body written for every failed request.
type Envelope struct {
	Code       string             `json:"code"`
	Message    string             `json:"message,omitempty"`
	Error      string             `json:"error,omitempty"`
	Details    []validation.Issue `json:"details,omitempty"`
	StatusCode int                `json:"statusCode"`
}

type statusCoder interface {
	StatusCode() int
}

type errorCoder interface {
	ErrorCode() string
}

// Classify maps err to the status and envelope reported to the client.
//
// Precedence:
//  1. a *validation.Error anywhere in the chain: 422 VALIDATION_ERROR with details
//  2. anything exposing StatusCode() int: that status, its code and message
//  3. everything else: 500 INTERNAL_SERVER_ERROR without a message
func Classify(err error) (int, Envelope) {
	var report *validation.Error
	if errors.As(err, &report) {
		return http.StatusUnprocessableEntity, Envelope{
			Code:       CodeValidationError,
			Details:    report.Issues,
			StatusCode: http.StatusUnprocessableEntity,
		}
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		status := sc.StatusCode()
		if status < 400 || status > 599 {
			status = http.StatusInternalServerError
		}
		env := Envelope{StatusCode: status, Code: statusCodeName(status)}
		if ec, ok := sc.(errorCoder); ok && ec.ErrorCode() != "" {
			env.Code = ec.ErrorCode()
		}
		var fe *Error
		if errors.As(err, &fe) {
			env.Message = fe.Message
		} else {
			env.Message = err.Error()
		}
		return status, env
	}

	return http.StatusInternalServerError, Envelope{
		Code:       CodeInternalServerError,
		StatusCode: http.StatusInternalServerError,
	}
}

// statusCodeName turns a status into an upper snake case code, e.g. 409 -> CONFLICT.
func statusCodeName(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return CodeInternalServerError
	}
	text = strings.ReplaceAll(text, "-", " ")
	return strings.ToUpper(strings.Join(strings.Fields(text), "_"))
}

// HandleError classifies err, logs it and writes the envelope.
//
// Internal failures are logged at error level with the request context;
// client errors are logged at debug level.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status, env := Classify(err)

	switch {
	case env.Code == CodeInternalServerError:
		logger.ErrorCtx(r.Context(), "Request failed", logger.Err(err), logger.Status(status))
	case status >= http.StatusInternalServerError:
		logger.WarnCtx(r.Context(), "Request failed", logger.Err(err), logger.Status(status), logger.ErrorCode(env.Code))
	default:
		logger.DebugCtx(r.Context(), "Request rejected", logger.Err(err), logger.Status(status), logger.ErrorCode(env.Code))
	}

	JSON(w, status, env)
}

// NotFound answers requests that match no route.
func NotFound(w http.ResponseWriter, r *http.Request) {
	logger.DebugCtx(r.Context(), "Route not handled")
	JSON(w, http.StatusNotFound, Envelope{
		Code:       CodeRouteNotHandled,
		Message:    fmt.Sprintf("Route %s:%s not found", r.Method, r.URL.RequestURI()),
		Error:      http.StatusText(http.StatusNotFound),
		StatusCode: http.StatusNotFound,
	})
}

// MethodNotAllowed answers requests whose path matches a route registered
// for other methods.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	HandleError(w, r, NewError(http.StatusMethodNotAllowed, CodeMethodNotAllowed,
		fmt.Sprintf("Method %s is not allowed on %s", r.Method, r.URL.Path)))
}

// responseError marks a reply that failed its own schema. It deliberately
// hides the validation report from Classify so the client sees a 500.
type responseError struct {
	report error
}

func (e *responseError) Error() string {
	return fmt.Sprintf("response failed schema validation: %v", e.report)
}

// panicError carries a recovered handler panic.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.value)
}
