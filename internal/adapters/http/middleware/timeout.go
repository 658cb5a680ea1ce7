package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brianfending/contact-service/internal/adapters/http/dto"
	"github.com/brianfending/contact-service/internal/platform/logging"
)

var errRequestTimeout = errors.New("request timeout")

// Timeout bounds the request context. It never abandons a running handler:
// handlers and the clients under them watch ctx.Done(). A handler that gives
// up without writing anything gets a 503; whatever it did write is kept.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeoutCause(c.Request.Context(), timeout, errRequestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if c.Writer.Written() || !errors.Is(context.Cause(ctx), errRequestTimeout) {
			return
		}

		logging.FromContext(ctx).LogAttrs(ctx, slog.LevelWarn, "request deadline exceeded",
			slog.String("route", routeOf(c)),
			slog.Duration("timeout", timeout),
		)

		dto.AbortWithMessage(c, http.StatusServiceUnavailable, dto.MessageTimeout)
	}
}
