// Package middleware provides the generic fasthttp middleware chain:
// panic recovery, request deadlines and access logging.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/valyala/fasthttp"
)

// RecoveryConfig configures panic recovery middleware
type RecoveryConfig struct {
	// Logger is the logger to use for panic logging (default: core.NewDefaultLogger())
	Logger core.Logger

	// StackTrace logs the goroutine stack and echoes the panic value to the client.
	// Use with caution in production.
	StackTrace bool
}

// DefaultRecoveryConfig returns a default recovery configuration
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		Logger:     core.NewDefaultLogger(),
		StackTrace: false,
	}
}

// Recovery middleware recovers from panics and returns a 500 JSON error
func Recovery(config RecoveryConfig) web.FastMiddleware {
	logger := config.Logger
	if logger == nil {
		logger = core.NewDefaultLogger()
	}

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				fields := map[string]interface{}{
					"request_id": ctx.RequestID(),
					"method":     string(ctx.Method()),
					"path":       string(ctx.Path()),
				}
				if config.StackTrace {
					fields["stack"] = string(debug.Stack())
				}
				logger.WithFields(fields).Errorf("Panic recovered: %v", r)

				message := "Internal Server Error"
				if config.StackTrace {
					message = fmt.Sprintf("Panic: %v", r)
				}
				ctx.RequestCtx.ResetBody()
				err = ctx.JSONError(fasthttp.StatusInternalServerError, "internal_error", message)
			}()

			return next(ctx)
		}
	}
}
