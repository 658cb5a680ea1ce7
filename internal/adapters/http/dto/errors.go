// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/brianfending/contact-service/internal/domain"
	"github.com/brianfending/contact-service/internal/platform/logging"
)

// Client-facing messages. Internal details never reach the response body.
const (
	MessageSent               = "Your message has been sent! I'll get back to you soon."
	MessageVerificationFailed = "Verification failed. Please try again."
	MessageInternal           = "There was an error processing your request. Please try again."
	MessageTimeout            = "The request took too long. Please try again."
	MessageTooLarge           = "Your message is too large. Please shorten it and try again."
	MessageNotFound           = "Not found"
)

// headerRequestID mirrors middleware.HeaderRequestID; middleware imports this package.
const headerRequestID = "X-Request-ID"

// MessageResponse is the body of every response on the public API.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewMessageResponse creates a response carrying msg.
func NewMessageResponse(msg string) *MessageResponse {
	return &MessageResponse{Message: msg}
}

// StatusAndMessage maps an error from the app layer to an HTTP status and a
// client-safe message. Unknown errors become 500 with a generic message.
func StatusAndMessage(err error) (int, string) {
	var tooLarge *http.MaxBytesError

	switch {
	case err == nil:
		return http.StatusOK, MessageSent

	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, MessageTooLarge

	case domain.IsVerification(err):
		return http.StatusBadRequest, MessageVerificationFailed

	case domain.IsValidation(err):
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Message != "" {
			return http.StatusBadRequest, validationErr.Message
		}

		return http.StatusBadRequest, domain.MessageFieldsRequired

	default:
		return http.StatusInternalServerError, MessageInternal
	}
}

// HandleError writes the response for err and logs it. Client errors are
// logged at INFO, everything else at ERROR with the full cause.
func HandleError(c *gin.Context, err error) {
	status, msg := StatusAndMessage(err)
	logger := logging.FromContext(c.Request.Context())

	attrs := []any{
		slog.Int("status", status),
		slog.String("trace_id", GetTraceID(c)),
		slog.Any("error", err),
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	c.JSON(status, NewMessageResponse(msg))
}

// AbortWithMessage aborts the handler chain with status and msg.
// Use this in middleware when a response has not been written yet.
func AbortWithMessage(c *gin.Context, status int, msg string) {
	if c.Writer.Written() {
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(status, NewMessageResponse(msg))
}

// GetTraceID returns the trace ID for the request: the active span's trace ID,
// then a "trace_id" value set on the gin context, then the request ID header.
func GetTraceID(c *gin.Context) string {
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	if v, ok := c.Get("trace_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}

		return ""
	}

	return c.GetHeader(headerRequestID)
}
