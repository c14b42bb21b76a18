package api

import (
	"encoding/json"
	"net/http"

	"github.com/marmos91/scaffold/internal/logger"
)

// JSON writes data as a JSON response with the given status code.
//
// The payload is encoded before any header is written, so an encoding
// failure is still reported as a proper 500 envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to encode response", logger.Err(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(Envelope{
			Code:       CodeInternalServerError,
			StatusCode: http.StatusInternalServerError,
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// NoContent writes an empty response.
func NoContent(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}
