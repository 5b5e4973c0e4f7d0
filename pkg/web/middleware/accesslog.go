package middleware

import (
	"time"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/fluxorio/todo-service/pkg/web"
)

// AccessLogConfig configures the access log middleware
type AccessLogConfig struct {
	Logger core.Logger

	// SkipPaths are exact paths that are not logged, e.g. /health
	SkipPaths []string
}

// AccessLog writes one structured entry per request after it completes.
// 5xx responses are logged at error level, 4xx at warn, the rest at info.
func AccessLog(config AccessLogConfig) web.FastMiddleware {
	logger := config.Logger
	if logger == nil {
		logger = core.NewDefaultLogger()
	}
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			path := string(ctx.Path())
			if skip[path] {
				return next(ctx)
			}

			start := time.Now()
			err := next(ctx)

			status := ctx.StatusCode()
			entry := logger.WithFields(map[string]interface{}{
				"request_id":  ctx.RequestID(),
				"method":      string(ctx.Method()),
				"path":        path,
				"route":       ctx.Route(),
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
				"bytes":       len(ctx.RequestCtx.Response.Body()),
			})

			switch {
			case err != nil:
				entry.Errorf("request failed: %v", err)
			case status >= 500:
				entry.Error("request completed")
			case status >= 400:
				entry.Warn("request completed")
			default:
				entry.Info("request completed")
			}
			return err
		}
	}
}
