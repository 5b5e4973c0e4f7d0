// Package app wires configuration, storage, events, observability and HTTP routes
// into a runnable todo service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/fluxorio/todo-service/internal/config"
	"github.com/fluxorio/todo-service/internal/textstats"
	"github.com/fluxorio/todo-service/internal/todo"
	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/fluxorio/todo-service/pkg/db"
	"github.com/fluxorio/todo-service/pkg/events"
	"github.com/fluxorio/todo-service/pkg/observability/prometheus"
	"github.com/fluxorio/todo-service/pkg/observability/tracing"
	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/fluxorio/todo-service/pkg/web/middleware"
	"github.com/fluxorio/todo-service/pkg/web/middleware/auth"
	"github.com/fluxorio/todo-service/pkg/web/middleware/security"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

// readyUtilization is the CCU utilization above which /ready reports not ready
const readyUtilization = 90.0

// App is an assembled todo service
type App struct {
	config  config.Config
	logger  core.Logger
	server  *web.FastHTTPServer
	metrics *prometheus.Metrics

	registry  *promclient.Registry
	tracer    *tracing.Provider
	pool      *db.Pool
	publisher events.Publisher
}

// NewLogger builds the service logger from configuration
func NewLogger(cfg config.LogConfig) (core.Logger, error) {
	opts := core.DefaultLoggerOptions()
	opts.Level = cfg.Level
	opts.Format = cfg.Format
	return core.NewLogger(opts)
}

// openPool opens the SQL pool. Tests replace it to observe the pool.
var openPool = db.NewPool

// New assembles the service. On error, everything already opened is closed.
func New(ctx context.Context, cfg config.Config, logger core.Logger) (*App, error) {
	if logger == nil {
		logger = core.NewNopLogger()
	}
	a := &App{config: cfg, logger: logger}
	if err := a.build(ctx); err != nil {
		if cerr := a.closeResources(context.Background()); cerr != nil {
			logger.Warnf("cleanup after failed start: %v", cerr)
		}
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	var registerer promclient.Registerer
	a.registry, registerer = prometheus.NewRegistry(a.config.Server.Name)
	a.metrics = prometheus.NewMetrics(registerer)

	var err error
	a.tracer, err = tracing.NewProvider(tracing.Config{
		ServiceName: a.config.Tracing.ServiceName,
		Exporter:    a.config.Tracing.Exporter,
		Endpoint:    a.config.Tracing.ZipkinURL,
		SampleRate:  a.config.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer provider: %w", err)
	}

	repo, err := a.newRepository(ctx)
	if err != nil {
		return err
	}

	a.publisher, err = a.newPublisher()
	if err != nil {
		return err
	}

	a.server = web.NewFastHTTPServer(a.serverConfig(), a.logger)
	a.setupRoutes(repo)
	return nil
}

func (a *App) serverConfig() *web.FastHTTPServerConfig {
	sc := a.config.Server
	config := web.CCUBasedConfigWithUtilization(sc.Addr, sc.MaxCCU, sc.UtilizationPercent)
	config.Name = sc.Name
	if sc.ReadTimeout > 0 {
		config.ReadTimeout = sc.ReadTimeout
	}
	if sc.WriteTimeout > 0 {
		config.WriteTimeout = sc.WriteTimeout
	}
	if sc.ShutdownTimeout > 0 {
		config.ShutdownTimeout = sc.ShutdownTimeout
	}
	if sc.MaxRequestBodySize > 0 {
		config.MaxRequestBodySize = sc.MaxRequestBodySize
	}
	return config
}

func (a *App) newRepository(ctx context.Context) (todo.Repository, error) {
	strategy, err := todo.ParseIDStrategy(a.config.Todos.IDStrategy)
	if err != nil {
		return nil, err
	}

	sc := a.config.Storage
	if sc.Driver == "" || sc.Driver == "memory" {
		a.logger.Infof("using in-memory todo store (id strategy %s)", strategy)
		return todo.NewMemoryRepository(strategy), nil
	}

	poolConfig := db.DefaultPoolConfig(sc.DSN, sc.Driver)
	if sc.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = sc.MaxOpenConns
	}
	if sc.MaxIdleConns >= 0 && sc.MaxIdleConns <= poolConfig.MaxOpenConns {
		poolConfig.MaxIdleConns = sc.MaxIdleConns
	}
	a.pool, err = openPool(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s pool: %w", sc.Driver, err)
	}
	if err := a.metrics.RegisterDBStats(a.pool.DB(), "todos"); err != nil {
		return nil, fmt.Errorf("failed to register db stats: %w", err)
	}

	repo, err := todo.NewSQLRepository(ctx, a.pool, strategy)
	if err != nil {
		return nil, err
	}
	a.logger.Infof("using %s todo store (id strategy %s)", sc.Driver, strategy)
	return repo, nil
}

func (a *App) newPublisher() (events.Publisher, error) {
	ec := a.config.Events
	switch ec.Driver {
	case "nats":
		p, err := events.NewNATSPublisher(events.NATSConfig{
			URL:    ec.NATSURL,
			Prefix: ec.Subject,
			Name:   a.config.Server.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		a.logger.Infof("publishing todo events to %s on %s", p.Subject("*"), ec.NATSURL)
		return p, nil
	case "memory":
		bus := events.NewBus(0)
		a.logEvents(bus)
		return bus, nil
	default:
		return events.Noop{}, nil
	}
}

// logEvents debug-logs every event published on bus until it closes
func (a *App) logEvents(bus *events.Bus) {
	ch, _ := bus.Subscribe("*")
	go func() {
		for ev := range ch {
			a.logger.WithFields(map[string]interface{}{
				"event":      ev.Type,
				"event_id":   ev.ID,
				"request_id": ev.RequestID,
			}).Debug("todo event")
		}
	}()
}

func (a *App) setupRoutes(repo todo.Repository) {
	router := a.server.FastRouter()
	cfg := a.config

	// Middleware chain
	router.Use(middleware.Recovery(middleware.RecoveryConfig{Logger: a.logger}))
	router.Use(tracing.Middleware(a.tracer.TracerProvider(), otel.GetTextMapPropagator()))
	router.Use(prometheus.FastHTTPMetricsMiddleware(a.metrics))
	router.Use(middleware.AccessLog(middleware.AccessLogConfig{
		Logger:    a.logger,
		SkipPaths: []string{"/health", "/ready", "/metrics"},
	}))
	router.Use(security.Headers(security.DefaultHeadersConfig()))
	if cfg.Server.RequestTimeout > 0 {
		timeout := middleware.DefaultTimeoutConfig(cfg.Server.RequestTimeout)
		timeout.Logger = a.logger
		timeout.SkipPaths = []string{"/metrics"}
		router.Use(middleware.Timeout(timeout))
	}

	// API routes get rate limiting and, when a secret is configured, JWT auth
	var api []web.FastMiddleware
	if cfg.RateLimit.RequestsPerMinute > 0 {
		api = append(api, security.RateLimit(security.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	if cfg.Auth.JWTSecret != "" {
		jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
		jwtConfig.Issuer = cfg.Auth.Issuer
		api = append(api, auth.JWT(jwtConfig))
	}

	service := todo.NewService(repo,
		todo.WithPublisher(a.publisher),
		todo.WithMetrics(a.metrics),
		todo.WithLogger(a.logger),
	)
	todo.NewHandler(service).Register(router, api...)

	analyzer := textstats.NewAnalyzer(
		textstats.WithStopWords(cfg.Text.ExtraStopWords...),
		textstats.WithMaxKeywords(cfg.Text.MaxKeywords),
		textstats.WithSummaryLanguage(cfg.Text.SummaryLanguage),
	)
	textstats.NewHandler(analyzer, a.metrics).Register(router, api...)

	// Observability routes
	router.GETFast("/health", a.health)
	router.GETFast("/ready", a.ready)
	router.GETFast("/metrics", prometheus.MetricsHandler(a.registry, func() {
		prometheus.UpdateServerMetrics(a.metrics, a.server)
	}))
}

func (a *App) health(ctx *web.FastRequestContext) error {
	return ctx.JSON(200, map[string]interface{}{
		"status":  "UP",
		"service": a.config.Server.Name,
	})
}

// ready reports not ready when the server is near capacity or the database is unreachable
func (a *App) ready(ctx *web.FastRequestContext) error {
	metrics := a.server.Metrics()
	ready := metrics.CCUUtilization < readyUtilization

	body := map[string]interface{}{
		"metrics": metrics,
	}
	if a.pool != nil {
		dbErr := a.pool.Ping(ctx.Context())
		body["db"] = dbErr == nil
		ready = ready && dbErr == nil
	}

	status := 200
	body["status"] = "READY"
	if !ready {
		status = 503
		body["status"] = "NOT_READY"
	}
	return ctx.JSON(status, body)
}

// Server returns the HTTP server
func (a *App) Server() *web.FastHTTPServer {
	return a.server
}

// Metrics returns the metric set
func (a *App) Metrics() *prometheus.Metrics {
	return a.metrics
}

// Start listens on the configured address. It blocks until the server stops.
func (a *App) Start() error {
	a.logger.Infof("starting %s on %s", a.config.Server.Name, a.config.Server.Addr)
	return a.server.Start()
}

// Serve serves on ln. It blocks until the server stops.
func (a *App) Serve(ln net.Listener) error {
	return a.server.Serve(ln)
}

// Shutdown stops the server, then closes the publisher, the pool and the tracer
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.server != nil {
		if err := a.server.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
		}
	}
	if err := a.closeResources(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeResources(ctx context.Context) error {
	var errs []error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close pool: %w", err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down tracer: %w", err))
		}
	}
	return errors.Join(errs...)
}
