package tracing

import (
	"fmt"

	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/fluxorio/todo-service/pkg/observability/tracing"

// headerCarrier adapts fasthttp request headers to propagation.TextMapCarrier
type headerCarrier struct {
	header *fasthttp.RequestHeader
}

func (c headerCarrier) Get(key string) string {
	return string(c.header.Peek(key))
}

func (c headerCarrier) Set(key, value string) {
	c.header.Set(key, value)
}

func (c headerCarrier) Keys() []string {
	var keys []string
	c.header.VisitAll(func(k, _ []byte) {
		keys = append(keys, string(k))
	})
	return keys
}

// Middleware starts a server span per request. The incoming trace context is
// extracted with propagator, and the span is named "METHOD route" once routing is known.
func Middleware(tp trace.TracerProvider, propagator propagation.TextMapPropagator) web.FastMiddleware {
	tracer := tp.Tracer(instrumentationName)
	if propagator == nil {
		propagator = propagation.TraceContext{}
	}

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			method := string(ctx.Method())
			parent := propagator.Extract(ctx.Context(), headerCarrier{header: &ctx.RequestCtx.Request.Header})

			spanCtx, span := tracer.Start(parent, method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", method),
					attribute.String("url.path", string(ctx.Path())),
					attribute.String("http.request.id", ctx.RequestID()),
				),
			)
			defer span.End()
			ctx.SetContext(spanCtx)

			err := next(ctx)

			if route := ctx.Route(); route != "" {
				span.SetName(method + " " + route)
				span.SetAttributes(attribute.String("http.route", route))
			}
			status := ctx.StatusCode()
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else if status >= 500 {
				span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
			}
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			return err
		}
	}
}
