package prometheus

import (
	"time"

	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// unmatchedRoute labels requests that hit no route, keeping label cardinality bounded
const unmatchedRoute = "unmatched"

// FastHTTPMetricsMiddleware records HTTP metrics labelled by route pattern
func FastHTTPMetricsMiddleware(metrics *Metrics) web.FastMiddleware {
	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			start := time.Now()
			requestSize := int64(len(ctx.RequestCtx.PostBody()))

			err := next(ctx)

			route := ctx.Route()
			if route == "" {
				route = unmatchedRoute
			}
			status := statusCodeString(ctx.StatusCode())
			if err != nil {
				// the router turns handler errors into 5xx after the chain returns
				status = "5xx"
			}
			responseSize := int64(len(ctx.RequestCtx.Response.Body()))

			metrics.RecordHTTPRequest(string(ctx.Method()), route, status, time.Since(start), requestSize, responseSize)
			return err
		}
	}
}

// UpdateServerMetrics refreshes the server gauges from server
func UpdateServerMetrics(metrics *Metrics, server *web.FastHTTPServer) {
	snapshot := server.Metrics()
	metrics.UpdateServerMetrics(
		snapshot.RejectedRequests,
		snapshot.CurrentCCU,
		snapshot.NormalCCU,
		snapshot.CCUUtilization,
	)
}

// MetricsHandler serves gatherer in the Prometheus text format.
// before, when non-nil, runs on every scrape to refresh gauges.
func MetricsHandler(gatherer prometheus.Gatherer, before func()) web.FastRequestHandler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return func(ctx *web.FastRequestContext) error {
		if before != nil {
			before()
		}
		handler(ctx.RequestCtx)
		return nil
	}
}

// statusCodeString converts status code to string
func statusCodeString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
