package errors

import "net/http"

// ErrorResponse is the JSON structure returned to HTTP clients.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details sent to clients.
type ErrorBody struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		},
	}
}

// httpStatus maps error codes to HTTP status codes.
var httpStatus = map[ErrorCode]int{
	ErrCodeMissingVariable:      http.StatusBadRequest,
	ErrCodeMalformedCommand:     http.StatusBadRequest,
	ErrCodeInvalidInput:         http.StatusBadRequest,
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeCanceled:             http.StatusConflict,
	ErrCodeUnacceptableExitCode: http.StatusUnprocessableEntity,
	ErrCodeSpawnFailure:         http.StatusBadGateway,
	ErrCodeUnavailable:          http.StatusServiceUnavailable,
	ErrCodeRateLimited:          http.StatusTooManyRequests,
	ErrCodeWatchdogTermination:  http.StatusGatewayTimeout,
}

// HTTPStatus returns the HTTP status for an error code. Unknown codes map
// to 500.
func HTTPStatus(code ErrorCode) int {
	if s, ok := httpStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// HTTPStatus returns the HTTP status for this error's code.
func (e *AppError) HTTPStatus() int {
	return HTTPStatus(e.Code)
}
