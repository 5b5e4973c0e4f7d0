package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/valyala/fasthttp"
)

// TimeoutConfig configures request timeout middleware
type TimeoutConfig struct {
	// Timeout is the request deadline
	Timeout time.Duration

	// Logger is the logger to use for timeout logging (default: core.NewDefaultLogger())
	Logger core.Logger

	// Message is the error message when timeout occurs
	Message string

	// SkipPaths are path prefixes without a deadline
	SkipPaths []string
}

// DefaultTimeoutConfig returns a default timeout configuration
func DefaultTimeoutConfig(timeout time.Duration) TimeoutConfig {
	return TimeoutConfig{
		Timeout: timeout,
		Logger:  core.NewDefaultLogger(),
		Message: "Request timeout",
	}
}

// Timeout attaches a deadline to the request context.
// The handler runs on the connection goroutine; blocking work must use
// ctx.Context() so it observes the deadline. A handler that returns an
// error wrapping context.DeadlineExceeded produces a 504.
func Timeout(config TimeoutConfig) web.FastMiddleware {
	if config.Timeout <= 0 {
		panic("Timeout: timeout duration must be positive")
	}

	logger := config.Logger
	if logger == nil {
		logger = core.NewDefaultLogger()
	}

	message := config.Message
	if message == "" {
		message = "Request timeout"
	}

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			path := string(ctx.Path())
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(ctx)
				}
			}

			parent := ctx.Context()
			timeoutCtx, cancel := context.WithTimeout(parent, config.Timeout)
			defer cancel()
			ctx.SetContext(timeoutCtx)
			defer ctx.SetContext(parent)

			err := next(ctx)
			if err == nil || !errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			logger.WithFields(map[string]interface{}{
				"request_id": ctx.RequestID(),
				"method":     string(ctx.Method()),
				"path":       path,
				"timeout":    config.Timeout.String(),
			}).Warnf("Request timeout: %s %s", string(ctx.Method()), path)

			ctx.RequestCtx.ResetBody()
			return ctx.JSONError(fasthttp.StatusGatewayTimeout, "timeout", message)
		}
	}
}
