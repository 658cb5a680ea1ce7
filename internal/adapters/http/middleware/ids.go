// Package middleware provides HTTP middleware for the Gin framework.
package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brianfending/contact-service/internal/platform/logging"
)

const (
	// HeaderRequestID identifies one HTTP request.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID identifies a chain of requests across services.
	// Outbound calls to Jira and Google carry it unchanged.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin context key for the request ID.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin context key for the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

// maxIDLength caps IDs accepted from callers; longer values are replaced.
const maxIDLength = 128

type idKey int

const (
	requestIDKey idKey = iota
	correlationIDKey
)

// propagatedID describes one ID that is read from a header, echoed back,
// stored on both contexts and attached to the context logger.
type propagatedID struct {
	header string
	ginKey string
	ctxKey idKey
}

var (
	requestID     = propagatedID{header: HeaderRequestID, ginKey: ContextKeyRequestID, ctxKey: requestIDKey}
	correlationID = propagatedID{header: HeaderCorrelationID, ginKey: ContextKeyCorrelationID, ctxKey: correlationIDKey}
)

// RequestID returns middleware that accepts the caller's X-Request-ID or
// generates a UUID v4, then echoes it on the response.
func RequestID() gin.HandlerFunc {
	return requestID.middleware()
}

// CorrelationID returns middleware that propagates X-Correlation-ID the same
// way. A request without one starts a new correlation.
func CorrelationID() gin.HandlerFunc {
	return correlationID.middleware()
}

func (p propagatedID) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(p.header)
		if !validID(id) {
			id = uuid.New().String()
		}

		c.Set(p.ginKey, id)
		c.Header(p.header, id)

		ctx := p.withContext(c.Request.Context(), id)
		ctx = logging.With(ctx, slog.String(p.ginKey, id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func (p propagatedID) withContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, p.ctxKey, id)
}

func (p propagatedID) fromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(p.ctxKey).(string)

	return id
}

func (p propagatedID) fromGin(c *gin.Context) string {
	return c.GetString(p.ginKey)
}

// validID accepts caller IDs made of letters, digits and -_.:
// so they are safe to echo in headers and logs.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}

	return true
}

// GetRequestID returns the request ID stored by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return requestID.fromGin(c)
}

// GetCorrelationID returns the correlation ID stored by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string {
	return correlationID.fromGin(c)
}

// RequestIDFromContext returns the request ID for outbound calls.
func RequestIDFromContext(ctx context.Context) string {
	return requestID.fromContext(ctx)
}

// CorrelationIDFromContext returns the correlation ID for outbound calls.
func CorrelationIDFromContext(ctx context.Context) string {
	return correlationID.fromContext(ctx)
}

// ContextWithRequestID stores a request ID for RequestIDFromContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return requestID.withContext(ctx, id)
}

// ContextWithCorrelationID stores a correlation ID for CorrelationIDFromContext.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return correlationID.withContext(ctx, id)
}
