package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/brianfending/contact-service/internal/adapters/http/dto"
	"github.com/brianfending/contact-service/internal/platform/logging"
)

// PanicHook receives a recovered panic value and the goroutine stack.
type PanicHook func(ctx context.Context, value any, stack []byte)

// Recovery turns a handler panic into a logged 500 with the generic message.
// It must run before every other middleware. http.ErrAbortHandler is
// re-raised so net/http can drop the connection as the handler intended.
func Recovery(logger *slog.Logger, hooks ...PanicHook) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			value := recover()
			if value == nil {
				return
			}

			if err, ok := value.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(value)
			}

			ctx := c.Request.Context()
			stack := debug.Stack()

			for _, hook := range hooks {
				hook(ctx, value, stack)
			}

			logging.FromContextOr(ctx, logger).LogAttrs(ctx, slog.LevelError, "panic recovered",
				slog.Any("panic", value),
				slog.String("method", c.Request.Method),
				slog.String("route", routeOf(c)),
				slog.String("stack", string(stack)),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			dto.AbortWithMessage(c, http.StatusInternalServerError, dto.MessageInternal)
		}()

		c.Next()
	}
}
