package web

import (
	"context"
	"fmt"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/valyala/fasthttp"
)

// FastRequestContext wraps fasthttp RequestCtx with request-scoped state.
// Embeds BaseRequestContext for values shared between middleware and handlers.
type FastRequestContext struct {
	core.BaseRequestContext
	RequestCtx *fasthttp.RequestCtx
	Params     map[string]string

	route     string
	requestID string
	ctx       context.Context
}

// NewFastRequestContext builds a context for rc. The request ID is taken from
// the X-Request-ID header, or generated, and echoed on the response.
func NewFastRequestContext(rc *fasthttp.RequestCtx) *FastRequestContext {
	requestID := string(rc.Request.Header.Peek(core.RequestIDHeader))
	if requestID == "" {
		requestID = core.GenerateRequestID()
	}
	rc.Response.Header.Set(core.RequestIDHeader, requestID)

	return &FastRequestContext{
		RequestCtx: rc,
		Params:     make(map[string]string),
		requestID:  requestID,
	}
}

// JSON writes JSON response - fail-fast
func (c *FastRequestContext) JSON(statusCode int, data interface{}) error {
	if statusCode < 100 || statusCode > 599 {
		return fmt.Errorf("invalid status code: %d", statusCode)
	}

	jsonData, err := core.JSONEncode(data)
	if err != nil {
		return fmt.Errorf("json encode error: %w", err)
	}

	c.RequestCtx.SetStatusCode(statusCode)
	c.RequestCtx.SetContentType("application/json")
	c.RequestCtx.SetBody(jsonData)
	return nil
}

// JSONError writes the standard error body {"error": code, "message": message}
func (c *FastRequestContext) JSONError(statusCode int, code, message string) error {
	return c.JSON(statusCode, ErrorResponse{Error: code, Message: message})
}

// BindJSON binds JSON request body to v - fail-fast
func (c *FastRequestContext) BindJSON(v interface{}) error {
	if v == nil {
		return fmt.Errorf("cannot bind to nil value")
	}

	body := c.RequestCtx.PostBody()
	if len(body) == 0 {
		return fmt.Errorf("empty request body")
	}

	return core.JSONDecode(body, v)
}

// Body returns the raw request body
func (c *FastRequestContext) Body() []byte {
	return c.RequestCtx.PostBody()
}

// Text writes text response
func (c *FastRequestContext) Text(statusCode int, text string) error {
	c.RequestCtx.SetStatusCode(statusCode)
	c.RequestCtx.SetContentType("text/plain; charset=utf-8")
	c.RequestCtx.SetBodyString(text)
	return nil
}

// Query returns query parameter value
func (c *FastRequestContext) Query(key string) string {
	return string(c.RequestCtx.QueryArgs().Peek(key))
}

// Param returns path parameter value
func (c *FastRequestContext) Param(key string) string {
	return c.Params[key]
}

// Method returns HTTP method
func (c *FastRequestContext) Method() []byte {
	return c.RequestCtx.Method()
}

// Path returns request path
func (c *FastRequestContext) Path() []byte {
	return c.RequestCtx.Path()
}

// Header returns a request header value
func (c *FastRequestContext) Header(key string) string {
	return string(c.RequestCtx.Request.Header.Peek(key))
}

// StatusCode returns the response status written so far
func (c *FastRequestContext) StatusCode() int {
	return c.RequestCtx.Response.StatusCode()
}

// Route returns the pattern of the matched route, e.g. /api/v1/todos/:id.
// Empty when no route matched.
func (c *FastRequestContext) Route() string {
	return c.route
}

// RequestID returns the request ID for this request
func (c *FastRequestContext) RequestID() string {
	return c.requestID
}

// Context returns the request's context.Context, carrying the request ID
func (c *FastRequestContext) Context() context.Context {
	if c.ctx != nil {
		return c.ctx
	}
	ctx := context.Background()
	if c.requestID != "" {
		ctx = core.WithRequestID(ctx, c.requestID)
	}
	c.ctx = ctx
	return ctx
}

// SetContext replaces the request's context.Context.
// Middleware use it to attach deadlines and spans.
func (c *FastRequestContext) SetContext(ctx context.Context) {
	c.ctx = ctx
}

// ErrorResponse is the JSON body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HTTPError is an error that maps to a specific status and error code.
// Handlers may return it instead of writing the response themselves.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// NewHTTPError creates an HTTPError
func NewHTTPError(status int, code, message string) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message}
}
