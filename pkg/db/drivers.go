package db

// Registered database/sql drivers
import (
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx"
	_ "github.com/lib/pq"              // "postgres"
	_ "github.com/mattn/go-sqlite3"    // "sqlite3"
)
