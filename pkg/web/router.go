package web

import (
	"errors"
	"strings"
	"sync"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/valyala/fasthttp"
)

// FastRequestHandler handles fasthttp requests
type FastRequestHandler func(ctx *FastRequestContext) error

// FastMiddleware is middleware for fasthttp
type FastMiddleware func(handler FastRequestHandler) FastRequestHandler

// ErrorHandler writes the response for an error returned by a handler
type ErrorHandler func(ctx *FastRequestContext, err error)

// FastRouter matches method and path to handlers.
// Patterns use ":name" segments for path parameters. When several patterns
// match, the one with the fewest parameters wins, so /todos/stats beats /todos/:id.
type FastRouter struct {
	mu           sync.RWMutex
	routes       []*fastRoute
	middleware   []FastMiddleware
	errorHandler ErrorHandler
	logger       core.Logger
}

type fastRoute struct {
	method   string
	pattern  string
	segments []string
	params   int
	handler  FastRequestHandler
}

// NewFastRouter creates a new fasthttp router
func NewFastRouter(logger core.Logger) *FastRouter {
	if logger == nil {
		logger = core.NewNopLogger()
	}
	r := &FastRouter{
		routes:     make([]*fastRoute, 0),
		middleware: make([]FastMiddleware, 0),
		logger:     logger,
	}
	r.errorHandler = r.defaultErrorHandler
	return r
}

// Use appends global middleware. Global middleware also wraps 404 and 405 responses.
func (r *FastRouter) Use(middleware ...FastMiddleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// SetErrorHandler replaces the handler for errors returned by route handlers
func (r *FastRouter) SetErrorHandler(h ErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorHandler = h
}

// RouteFast registers a handler with optional route-level middleware.
// Route middleware runs inside the global chain, first argument outermost.
func (r *FastRouter) RouteFast(method, path string, handler FastRequestHandler, middleware ...FastMiddleware) {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}

	segments := splitPath(path)
	params := 0
	for _, s := range segments {
		if strings.HasPrefix(s, ":") {
			params++
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, &fastRoute{
		method:   method,
		pattern:  path,
		segments: segments,
		params:   params,
		handler:  handler,
	})
}

func (r *FastRouter) GETFast(path string, handler FastRequestHandler, middleware ...FastMiddleware) {
	r.RouteFast(fasthttp.MethodGet, path, handler, middleware...)
}

func (r *FastRouter) POSTFast(path string, handler FastRequestHandler, middleware ...FastMiddleware) {
	r.RouteFast(fasthttp.MethodPost, path, handler, middleware...)
}

func (r *FastRouter) PUTFast(path string, handler FastRequestHandler, middleware ...FastMiddleware) {
	r.RouteFast(fasthttp.MethodPut, path, handler, middleware...)
}

func (r *FastRouter) DELETEFast(path string, handler FastRequestHandler, middleware ...FastMiddleware) {
	r.RouteFast(fasthttp.MethodDelete, path, handler, middleware...)
}

func (r *FastRouter) PATCHFast(path string, handler FastRequestHandler, middleware ...FastMiddleware) {
	r.RouteFast(fasthttp.MethodPatch, path, handler, middleware...)
}

// ServeFastHTTP dispatches ctx through the global middleware chain
func (r *FastRouter) ServeFastHTTP(ctx *FastRequestContext) {
	r.mu.RLock()
	middleware := r.middleware
	errorHandler := r.errorHandler
	r.mu.RUnlock()

	handler := r.dispatch
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}

	if err := handler(ctx); err != nil {
		errorHandler(ctx, err)
	}
}

func (r *FastRouter) dispatch(ctx *FastRequestContext) error {
	method := string(ctx.Method())
	segments := splitPath(string(ctx.Path()))

	r.mu.RLock()
	var best *fastRoute
	var allowed []string
	for _, route := range r.routes {
		if !matchSegments(route.segments, segments) {
			continue
		}
		if route.method != method {
			allowed = append(allowed, route.method)
			continue
		}
		if best == nil || route.params < best.params {
			best = route
		}
	}
	r.mu.RUnlock()

	if best == nil {
		if len(allowed) > 0 {
			ctx.RequestCtx.Response.Header.Set("Allow", strings.Join(dedupe(allowed), ", "))
			return ctx.JSONError(fasthttp.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed")
		}
		return ctx.JSONError(fasthttp.StatusNotFound, "not_found", "Not Found")
	}

	if ctx.Params == nil {
		ctx.Params = make(map[string]string, best.params)
	}
	for i, s := range best.segments {
		if strings.HasPrefix(s, ":") {
			ctx.Params[s[1:]] = segments[i]
		}
	}
	ctx.route = best.pattern

	return best.handler(ctx)
}

func (r *FastRouter) defaultErrorHandler(ctx *FastRequestContext, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		_ = ctx.JSONError(httpErr.Status, httpErr.Code, httpErr.Message)
		return
	}

	r.logger.WithFields(map[string]interface{}{
		"request_id": ctx.RequestID(),
		"method":     string(ctx.Method()),
		"path":       string(ctx.Path()),
	}).Errorf("handler error: %v", err)

	_ = ctx.JSONError(fasthttp.StatusInternalServerError, "internal_error", "Internal Server Error")
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, part := range pattern {
		if strings.HasPrefix(part, ":") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if part != path[i] {
			return false
		}
	}
	return true
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
