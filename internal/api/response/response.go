// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/cryptodesk/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// statusByCode maps error codes to HTTP statuses
var statusByCode = map[string]int{
	core.ErrTickerNotFound.Code:        http.StatusNotFound,
	core.ErrDataUnavailable.Code:       http.StatusBadGateway,
	core.ErrConversionUnsupported.Code: http.StatusUnprocessableEntity,
	core.ErrInvalidAmount.Code:         http.StatusBadRequest,
	core.ErrInvalidRequest.Code:        http.StatusBadRequest,
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, status int, data any) {
	resp := SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}

	resp := ErrorResponse{Error: detail}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// StatusFor returns the HTTP status for err: 404 for unknown tickers, 502 for
// upstream failures, 422 for unsupported conversions, 400 for bad input and
// 500 otherwise.
func StatusFor(err error) int {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		if status, ok := statusByCode[coreErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// FromError writes err with the status StatusFor picks.
func FromError(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}
