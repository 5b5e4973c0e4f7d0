package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fluxorio/todo-service/pkg/core"
)

func TestDefaultPoolConfig(t *testing.T) {
	config := DefaultPoolConfig("test-dsn", "postgres")

	if config.DSN != "test-dsn" {
		t.Errorf("DSN = %v, want test-dsn", config.DSN)
	}
	if config.DriverName != "postgres" {
		t.Errorf("DriverName = %v, want postgres", config.DriverName)
	}
	if config.MaxOpenConns != 25 {
		t.Errorf("MaxOpenConns = %v, want 25", config.MaxOpenConns)
	}
	if config.MaxIdleConns != 5 {
		t.Errorf("MaxIdleConns = %v, want 5", config.MaxIdleConns)
	}
	if config.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want 5m", config.ConnMaxLifetime)
	}
	if config.ConnMaxIdleTime != 10*time.Minute {
		t.Errorf("ConnMaxIdleTime = %v, want 10m", config.ConnMaxIdleTime)
	}
}

func TestPoolConfig_Validate(t *testing.T) {
	valid := DefaultPoolConfig(":memory:", "sqlite3")

	tests := []struct {
		name     string
		mutate   func(c *PoolConfig)
		wantCode string
	}{
		{"valid", func(c *PoolConfig) {}, ""},
		{"empty dsn", func(c *PoolConfig) { c.DSN = "" }, "INVALID_CONFIG"},
		{"empty driver", func(c *PoolConfig) { c.DriverName = "" }, "INVALID_CONFIG"},
		{"unknown driver", func(c *PoolConfig) { c.DriverName = "mysql" }, "UNSUPPORTED_DRIVER"},
		{"zero open", func(c *PoolConfig) { c.MaxOpenConns = 0 }, "INVALID_CONFIG"},
		{"negative idle", func(c *PoolConfig) { c.MaxIdleConns = -1 }, "INVALID_CONFIG"},
		{"idle over open", func(c *PoolConfig) { c.MaxIdleConns = 30 }, "INVALID_CONFIG"},
		{"negative lifetime", func(c *PoolConfig) { c.ConnMaxLifetime = -time.Second }, "INVALID_CONFIG"},
		{"negative idle time", func(c *PoolConfig) { c.ConnMaxIdleTime = -time.Second }, "INVALID_CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			err := config.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			var coreErr *core.Error
			if !errors.As(err, &coreErr) {
				t.Fatalf("Validate() error = %v, want *core.Error", err)
			}
			if coreErr.Code != tt.wantCode {
				t.Errorf("Validate() code = %s, want %s", coreErr.Code, tt.wantCode)
			}
		})
	}
}

func TestNewPool_SQLite(t *testing.T) {
	config := DefaultPoolConfig(":memory:", "sqlite3")
	config.MaxOpenConns = 1
	config.MaxIdleConns = 1

	pool, err := NewPool(context.Background(), config)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	if pool.Driver() != "sqlite3" {
		t.Errorf("Driver() = %s, want sqlite3", pool.Driver())
	}
	if pool.Dialect().Name != "sqlite" {
		t.Errorf("Dialect().Name = %s, want sqlite", pool.Dialect().Name)
	}

	ctx := context.Background()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if _, err := pool.Exec(ctx, "CREATE TABLE kv (k TEXT, v INTEGER)"); err != nil {
		t.Fatalf("Exec(create) error = %v", err)
	}
	if _, err := pool.Exec(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "a", 1); err != nil {
		t.Fatalf("Exec(insert) error = %v", err)
	}

	var v int
	if err := pool.QueryRow(ctx, "SELECT v FROM kv WHERE k = ?", "a").Scan(&v); err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if v != 1 {
		t.Errorf("v = %d, want 1", v)
	}

	if stats := pool.Stats(); stats.MaxOpenConnections != 1 {
		t.Errorf("Stats().MaxOpenConnections = %d, want 1", stats.MaxOpenConnections)
	}
}

func TestNewPool_InvalidConfig(t *testing.T) {
	if _, err := NewPool(context.Background(), PoolConfig{DriverName: "sqlite3"}); err == nil {
		t.Error("NewPool() with empty DSN should fail")
	}
}

func TestPool_CloseNil(t *testing.T) {
	var p *Pool
	if err := p.Close(); err == nil {
		t.Error("Close() on nil pool should fail")
	}
	if stats := p.Stats(); stats.OpenConnections != 0 {
		t.Errorf("Stats() on nil pool = %+v, want zero", stats)
	}
}

func TestNewPool_SQLiteMemorySingleConnection(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		wantOpen int
	}{
		{"plain memory", ":memory:", 1},
		{"uri memory", "file::memory:?_busy_timeout=5000", 1},
		{"mode memory", "file:todos?mode=memory", 1},
		{"shared cache", "file::memory:?cache=shared", 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// pool defaults: 25 open, 5 idle, recycled connections
			pool, err := NewPool(context.Background(), DefaultPoolConfig(tt.dsn, "sqlite3"))
			if err != nil {
				t.Fatalf("NewPool() error = %v", err)
			}
			defer pool.Close()

			if got := pool.Stats().MaxOpenConnections; got != tt.wantOpen {
				t.Errorf("Stats().MaxOpenConnections = %d, want %d", got, tt.wantOpen)
			}
		})
	}
}

func TestNewPool_SQLiteMemoryKeepsTables(t *testing.T) {
	pool, err := NewPool(context.Background(), DefaultPoolConfig(":memory:", "sqlite3"))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	if _, err := pool.Exec(ctx, "CREATE TABLE kv (k TEXT)"); err != nil {
		t.Fatalf("Exec(create) error = %v", err)
	}

	// concurrent users would each get a fresh empty database on a second connection
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := pool.Exec(ctx, "INSERT INTO kv (k) VALUES (?)", "x")
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("Exec(insert) error = %v", err)
		}
	}

	var n int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM kv").Scan(&n); err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if n != 8 {
		t.Errorf("rows = %d, want 8", n)
	}
}
