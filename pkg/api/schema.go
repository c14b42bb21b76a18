package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/scaffold/pkg/validation"
)

// RouteSchema declares how each part of a request, and the reply, is checked.
// A nil schema leaves that part unvalidated.
type RouteSchema struct {
	Params      validation.Schema
	Body        validation.Schema
	Querystring validation.Schema
	Headers     validation.Schema
	Response    validation.Schema
}

// Request is the validated view of an incoming request handed to a HandlerFunc.
//
// Each field holds what the matching schema returned (a *T for
// validation.Struct[T]). Parts without a schema carry the raw input:
// map[string]string for params, json.RawMessage for the body (nil when
// empty), url.Values for the query and http.Header for headers.
type Request struct {
	HTTP    *http.Request
	Params  any
	Body    any
	Query   any
	Headers any
}

// HandlerFunc serves a validated request. It returns the status to write and
// the payload to encode. A zero status means 200. A nil payload writes no body.
type HandlerFunc func(req *Request) (int, any, error)

// Handle bridges schemas and a handler into an http.HandlerFunc.
//
// Request parts are validated in order: params, body, querystring, headers.
// The first failing part aborts the request with a 422 whose issue paths
// start with the part name. Handler errors and a reply rejected by the
// Response schema go through HandleError; the latter is reported as a 500.
func Handle(schema RouteSchema, h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := bind(schema, r)
		if err != nil {
			HandleError(w, r, err)
			return
		}

		status, payload, err := h(req)
		if err != nil {
			HandleError(w, r, err)
			return
		}
		if status == 0 {
			status = http.StatusOK
		}

		if schema.Response != nil {
			payload, err = schema.Response.Parse(payload, "response")
			if err != nil {
				HandleError(w, r, &responseError{report: err})
				return
			}
		}

		if payload == nil {
			NoContent(w, status)
			return
		}
		JSON(w, status, payload)
	}
}

// bind runs the framework body checks, then every schema in order.
func bind(schema RouteSchema, r *http.Request) (*Request, error) {
	raw, err := readBody(r)
	if err != nil {
		return nil, err
	}

	req := &Request{
		HTTP:    r,
		Params:  urlParams(r),
		Query:   r.URL.Query(),
		Headers: r.Header,
	}
	if raw != nil {
		req.Body = raw
	}

	if schema.Params != nil {
		if req.Params, err = schema.Params.Parse(req.Params, "params"); err != nil {
			return nil, err
		}
	}
	if schema.Body != nil {
		var in any
		if raw != nil {
			in = raw
		}
		if req.Body, err = schema.Body.Parse(in, "body"); err != nil {
			return nil, err
		}
	}
	if schema.Querystring != nil {
		if req.Query, err = schema.Querystring.Parse(req.Query, "querystring"); err != nil {
			return nil, err
		}
	}
	if schema.Headers != nil {
		if req.Headers, err = schema.Headers.Parse(req.Headers, "headers"); err != nil {
			return nil, err
		}
	}
	return req, nil
}

var (
	errUnsupportedMediaType = NewError(http.StatusUnsupportedMediaType, CodeUnsupportedMediaType, "Body must be application/json")
	errInvalidJSONBody      = NewError(http.StatusBadRequest, CodeInvalidJSONBody, "Body is not valid JSON")
	errBodyTooLarge         = NewError(http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "Request body is too large")
)

// readBody returns the request body, or nil when there is none. A non-empty
// body must be well-formed JSON with a JSON content type.
func readBody(r *http.Request) (json.RawMessage, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge.Wrap(err)
		}
		return nil, errInvalidJSONBody.Wrap(err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	if !isJSONContentType(r.Header.Get("Content-Type")) {
		return nil, errUnsupportedMediaType
	}
	if !json.Valid(data) {
		return nil, errInvalidJSONBody
	}
	return json.RawMessage(data), nil
}

func isJSONContentType(value string) bool {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// urlParams collects chi's URL parameters for the matched route.
func urlParams(r *http.Request) map[string]string {
	params := make(map[string]string)
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return params
	}
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// BodyAs returns the validated body as *T, or nil when it has another type.
func BodyAs[T any](req *Request) *T {
	v, _ := req.Body.(*T)
	return v
}

// QueryAs returns the validated querystring as *T, or nil.
func QueryAs[T any](req *Request) *T {
	v, _ := req.Query.(*T)
	return v
}

// ParamsAs returns the validated URL parameters as *T, or nil.
func ParamsAs[T any](req *Request) *T {
	v, _ := req.Params.(*T)
	return v
}

// HeadersAs returns the validated headers as *T, or nil.
func HeadersAs[T any](req *Request) *T {
	v, _ := req.Headers.(*T)
	return v
}
