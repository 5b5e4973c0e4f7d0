// Package db wraps database/sql with pool configuration and dialect helpers.
package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fluxorio/todo-service/pkg/core"
)

// PoolConfig configures the database connection pool
type PoolConfig struct {
	// DSN is the database connection string
	DSN string

	// DriverName is the database/sql driver: "sqlite3", "postgres" or "pgx"
	DriverName string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum amount of time a connection may be reused
	ConnMaxLifetime time.Duration

	// ConnMaxIdleTime is the maximum amount of time a connection may be idle
	ConnMaxIdleTime time.Duration

	// PingTimeout bounds the startup connectivity check
	PingTimeout time.Duration
}

// DefaultPoolConfig returns default pool configuration
func DefaultPoolConfig(dsn string, driverName string) PoolConfig {
	return PoolConfig{
		DSN:             dsn,
		DriverName:      driverName,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Validate checks the configuration
func (c PoolConfig) Validate() error {
	if c.DSN == "" {
		return &core.Error{Code: "INVALID_CONFIG", Message: "DSN cannot be empty"}
	}
	if c.DriverName == "" {
		return &core.Error{Code: "INVALID_CONFIG", Message: "DriverName cannot be empty"}
	}
	if _, err := DialectFor(c.DriverName); err != nil {
		return err
	}
	if c.MaxOpenConns <= 0 {
		return &core.Error{Code: "INVALID_CONFIG", Message: "MaxOpenConns must be positive"}
	}
	if c.MaxIdleConns < 0 {
		return &core.Error{Code: "INVALID_CONFIG", Message: "MaxIdleConns cannot be negative"}
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return &core.Error{Code: "INVALID_CONFIG", Message: "MaxIdleConns cannot exceed MaxOpenConns"}
	}
	if c.ConnMaxLifetime < 0 {
		return &core.Error{Code: "INVALID_CONFIG", Message: "ConnMaxLifetime cannot be negative"}
	}
	if c.ConnMaxIdleTime < 0 {
		return &core.Error{Code: "INVALID_CONFIG", Message: "ConnMaxIdleTime cannot be negative"}
	}
	return nil
}

// privateMemoryDB reports whether the DSN names a sqlite in-memory database
// that exists only inside one connection.
func (c PoolConfig) privateMemoryDB() bool {
	if c.DriverName != "sqlite3" || strings.Contains(c.DSN, "cache=shared") {
		return false
	}
	return strings.Contains(c.DSN, ":memory:") || strings.Contains(c.DSN, "mode=memory")
}

// singleConnection pins the pool to one connection that is never recycled,
// so the in-memory database lives as long as the pool.
func (c PoolConfig) singleConnection() PoolConfig {
	c.MaxOpenConns = 1
	c.MaxIdleConns = 1
	c.ConnMaxLifetime = 0
	c.ConnMaxIdleTime = 0
	return c
}

// Pool represents a database connection pool
type Pool struct {
	db      *sql.DB
	config  PoolConfig
	dialect Dialect
}

// NewPool opens and configures the pool, then pings it.
// Fail-fast: the configuration is validated before anything is opened.
func NewPool(ctx context.Context, config PoolConfig) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	dialect, _ := DialectFor(config.DriverName)
	if config.privateMemoryDB() {
		config = config.singleConnection()
	}

	db, err := sql.Open(config.DriverName, config.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	timeout := config.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return &Pool{
		db:      db,
		config:  config,
		dialect: dialect,
	}, nil
}

// DB returns the underlying *sql.DB
// Fail-fast: Panics if pool is nil (invalid state)
func (p *Pool) DB() *sql.DB {
	if p == nil {
		panic("pool cannot be nil")
	}
	if p.db == nil {
		panic("pool.db cannot be nil - pool not initialized")
	}
	return p.db
}

// Dialect returns the SQL dialect of the configured driver
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Driver returns the configured driver name
func (p *Pool) Driver() string {
	return p.config.DriverName
}

// Close closes the connection pool
func (p *Pool) Close() error {
	if p == nil {
		return &core.Error{Code: "INVALID_STATE", Message: "pool cannot be nil"}
	}
	if p.db == nil {
		return &core.Error{Code: "INVALID_STATE", Message: "pool already closed"}
	}
	return p.db.Close()
}

// Ping tests the connection
func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.db == nil {
		return &core.Error{Code: "INVALID_STATE", Message: "pool not initialized"}
	}
	return p.db.PingContext(ctx)
}

// Stats returns pool statistics
func (p *Pool) Stats() sql.DBStats {
	if p == nil || p.db == nil {
		return sql.DBStats{}
	}
	return p.db.Stats()
}

// Exec rebinds query for the dialect and executes it
func (p *Pool) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return p.db.ExecContext(ctx, p.dialect.Rebind(query), args...)
}

// Query rebinds query for the dialect and runs it
func (p *Pool) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return p.db.QueryContext(ctx, p.dialect.Rebind(query), args...)
}

// QueryRow rebinds query for the dialect and runs it for a single row
func (p *Pool) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return p.db.QueryRowContext(ctx, p.dialect.Rebind(query), args...)
}

// BeginTx starts a transaction
func (p *Pool) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if p == nil || p.db == nil {
		return nil, &core.Error{Code: "INVALID_STATE", Message: "pool not initialized"}
	}
	return p.db.BeginTx(ctx, opts)
}
