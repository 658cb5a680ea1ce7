package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/brianfending/contact-service/internal/adapters/clients"
	"github.com/brianfending/contact-service/internal/domain"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// ErrRejected indicates the remote service refused the request (4xx).
var ErrRejected = errors.New("request rejected by remote service")

// RemoteError describes a 4xx answer from a remote service.
type RemoteError struct {
	Service   string
	Operation string
	Status    int
	Message   string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Service, e.Operation, e.Status, e.Message)
}

// Unwrap returns ErrRejected for errors.Is support.
func (e *RemoteError) Unwrap() error {
	return ErrRejected
}

// ErrorResponse is the union of the error bodies the adapters meet:
// Jira's {"errorMessages": [...], "errors": {...}} and the Google style
// {"error": {"code": ..., "message": ...}}.
type ErrorResponse struct {
	ErrorMessages []string          `json:"errorMessages,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
	Error         *ErrorDetail      `json:"error,omitempty"`
	Message       string            `json:"message,omitempty"`
}

// ErrorDetail is the nested Google style error.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GetMessage flattens the body into one line. Field errors are sorted by name.
func (e *ErrorResponse) GetMessage() string {
	parts := make([]string, 0, len(e.ErrorMessages)+len(e.Errors)+1)
	parts = append(parts, e.ErrorMessages...)

	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		parts = append(parts, field+": "+e.Errors[field])
	}

	if e.Error != nil && e.Error.Message != "" {
		parts = append(parts, e.Error.Message)
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	return strings.Join(parts, "; ")
}

// ParseErrorResponse attempts to parse an error response body.
// Returns nil if the body is empty or cannot be parsed.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError maps a failed exchange with a remote service to an error.
//
// Parameters:
//   - resp: The HTTP response (may be nil for transport errors)
//   - clientErr: Any error from the HTTP client (may be nil)
//   - serviceName: Name of the external service for error context
//   - operation: The operation being performed (e.g., "create issue")
//
// Returns nil for 2xx responses.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	return mapStatusCode(resp.StatusCode, errResp, serviceName, operation)
}

// mapClientError translates client-level errors to domain errors.
func mapClientError(err error, serviceName, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("circuit breaker open during %s", operation))

	default:
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("%s failed: %v", operation, err))
	}
}

// mapStatusCode translates HTTP status codes to errors.
func mapStatusCode(status int, errResp *ErrorResponse, serviceName, operation string) error {
	message := defaultMessageForStatus(status, operation)
	if errResp != nil {
		message = errResp.GetMessage()
	}

	switch {
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, "rate limit exceeded")

	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(serviceName, message)

	default:
		return &RemoteError{
			Service:   serviceName,
			Operation: operation,
			Status:    status,
			Message:   message,
		}
	}
}

// defaultMessageForStatus returns a default message for an HTTP status.
func defaultMessageForStatus(status int, operation string) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	default:
		return fmt.Sprintf("%s failed with status %d", operation, status)
	}
}
