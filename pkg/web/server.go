package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/valyala/fasthttp"
)

// ErrServerStarted is returned when Start or Serve is called twice
var ErrServerStarted = errors.New("server already started")

// FastHTTPServerConfig configures the fasthttp server
type FastHTTPServerConfig struct {
	Name               string
	Addr               string
	MaxCCU             int // Hard connection concurrency limit
	NormalCapacity     int // In-flight requests admitted before 503 backpressure
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	ReadBufferSize     int
	WriteBufferSize    int
	MaxRequestBodySize int
}

// DefaultFastHTTPServerConfig returns defaults sized for a single service instance
func DefaultFastHTTPServerConfig(addr string) *FastHTTPServerConfig {
	return CCUBasedConfigWithUtilization(addr, 5000, 67)
}

// CCUBasedConfigWithUtilization sizes the server for maxCCU concurrent users.
// Backpressure starts at utilizationPercent of maxCCU, leaving headroom for spikes.
// Invalid percentages fall back to 67.
func CCUBasedConfigWithUtilization(addr string, maxCCU int, utilizationPercent int) *FastHTTPServerConfig {
	if utilizationPercent < 1 || utilizationPercent > 100 {
		utilizationPercent = 67
	}
	if maxCCU < 1 {
		maxCCU = 1
	}

	normalCapacity := int(float64(maxCCU) * float64(utilizationPercent) / 100.0)
	if normalCapacity < 1 {
		normalCapacity = 1
	}

	return &FastHTTPServerConfig{
		Name:               "todo-service",
		Addr:               addr,
		MaxCCU:             maxCCU,
		NormalCapacity:     normalCapacity,
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		ReadBufferSize:     8192,
		WriteBufferSize:    8192,
		MaxRequestBodySize: 1 << 20,
	}
}

// FastHTTPServer serves a FastRouter over fasthttp with CCU-based backpressure
type FastHTTPServer struct {
	config       *FastHTTPServerConfig
	router       *FastRouter
	server       *fasthttp.Server
	backpressure *BackpressureController
	logger       core.Logger
	started      atomic.Bool

	rejectedRequests   int64
	totalRequests      int64
	successfulRequests int64
	errorRequests      int64
}

// NewFastHTTPServer creates a server. A nil config uses DefaultFastHTTPServerConfig(":8080").
func NewFastHTTPServer(config *FastHTTPServerConfig, logger core.Logger) *FastHTTPServer {
	if config == nil {
		config = DefaultFastHTTPServerConfig(":8080")
	}
	if logger == nil {
		logger = core.NewDefaultLogger()
	}

	s := &FastHTTPServer{
		config:       config,
		router:       NewFastRouter(logger),
		backpressure: NewBackpressureController(config.NormalCapacity),
		logger:       logger,
	}
	s.server = &fasthttp.Server{
		Handler:               s.handleRequest,
		Name:                  config.Name,
		Concurrency:           config.MaxCCU,
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		IdleTimeout:           config.IdleTimeout,
		ReadBufferSize:        config.ReadBufferSize,
		WriteBufferSize:       config.WriteBufferSize,
		MaxRequestBodySize:    config.MaxRequestBodySize,
		NoDefaultServerHeader: true,
		Logger:                fasthttpLogger{logger},
	}
	return s
}

// FastRouter returns the router for route registration
func (s *FastHTTPServer) FastRouter() *FastRouter {
	return s.router
}

// Handler returns the fasthttp handler, including backpressure
func (s *FastHTTPServer) Handler() fasthttp.RequestHandler {
	return s.handleRequest
}

// Addr returns the configured listen address
func (s *FastHTTPServer) Addr() string {
	return s.config.Addr
}

// Start listens on the configured address and blocks until Stop
func (s *FastHTTPServer) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrServerStarted
	}
	s.logger.Infof("HTTP server listening on %s", s.config.Addr)
	return s.server.ListenAndServe(s.config.Addr)
}

// Serve accepts connections from ln and blocks until Stop
func (s *FastHTTPServer) Serve(ln net.Listener) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrServerStarted
	}
	return s.server.Serve(ln)
}

// Stop gracefully shuts the server down, bounded by ShutdownTimeout
func (s *FastHTTPServer) Stop(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	return s.server.ShutdownWithContext(ctx)
}

// Metrics returns current server metrics
func (s *FastHTTPServer) Metrics() ServerMetrics {
	bp := s.backpressure.GetMetrics()
	return ServerMetrics{
		RejectedRequests:   atomic.LoadInt64(&s.rejectedRequests),
		NormalCCU:          int(bp.NormalCapacity),
		CurrentCCU:         int(bp.CurrentLoad),
		CCUUtilization:     bp.Utilization,
		TotalRequests:      atomic.LoadInt64(&s.totalRequests),
		SuccessfulRequests: atomic.LoadInt64(&s.successfulRequests),
		ErrorRequests:      atomic.LoadInt64(&s.errorRequests),
	}
}

// ServerMetrics provides server performance metrics
type ServerMetrics struct {
	RejectedRequests   int64   `json:"rejected_requests"`   // Total rejected requests (503)
	NormalCCU          int     `json:"normal_ccu"`          // Normal CCU capacity
	CurrentCCU         int     `json:"current_ccu"`         // In-flight requests
	CCUUtilization     float64 `json:"ccu_utilization"`     // Percentage of normal capacity in use
	TotalRequests      int64   `json:"total_requests"`      // Requests admitted past backpressure
	SuccessfulRequests int64   `json:"successful_requests"` // 2xx responses
	ErrorRequests      int64   `json:"error_requests"`      // 5xx responses
}

// handleRequest applies backpressure, then routes.
// Fail-fast: returns 503 immediately when normal capacity is exceeded.
func (s *FastHTTPServer) handleRequest(rc *fasthttp.RequestCtx) {
	if !s.backpressure.TryAcquire() {
		atomic.AddInt64(&s.rejectedRequests, 1)
		rc.SetStatusCode(fasthttp.StatusServiceUnavailable)
		rc.SetContentType("application/json")
		rc.SetBodyString(`{"error":"capacity_exceeded","message":"Server at normal capacity - backpressure applied"}`)
		return
	}
	defer s.backpressure.Release()

	atomic.AddInt64(&s.totalRequests, 1)
	ctx := NewFastRequestContext(rc)

	defer func() {
		// last line of defence; the Recovery middleware normally handles panics
		if r := recover(); r != nil {
			s.logger.Errorf("handler panic (request_id=%s): %v", ctx.RequestID(), r)
			rc.ResetBody()
			rc.SetStatusCode(fasthttp.StatusInternalServerError)
			rc.SetContentType("application/json")
			rc.SetBodyString(fmt.Sprintf(`{"error":"internal_error","message":"Internal Server Error","request_id":%q}`, ctx.RequestID()))
		}
		s.countStatus(rc.Response.StatusCode())
	}()

	s.router.ServeFastHTTP(ctx)
}

func (s *FastHTTPServer) countStatus(status int) {
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&s.successfulRequests, 1)
	case status >= 500:
		atomic.AddInt64(&s.errorRequests, 1)
	}
}

// fasthttpLogger routes fasthttp's internal messages to core.Logger
type fasthttpLogger struct {
	logger core.Logger
}

func (l fasthttpLogger) Printf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}
