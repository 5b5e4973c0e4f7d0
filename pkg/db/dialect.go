package db

import (
	"strconv"
	"strings"

	"github.com/fluxorio/todo-service/pkg/core"
)

// Dialect captures the SQL differences between supported drivers
type Dialect struct {
	Name string

	// AutoIncrement is the column type of an auto-incrementing integer key
	AutoIncrement string

	numbered bool
}

var (
	// SQLite uses ? placeholders
	SQLite = Dialect{Name: "sqlite", AutoIncrement: "INTEGER PRIMARY KEY AUTOINCREMENT"}
	// Postgres uses $1..$n placeholders
	Postgres = Dialect{Name: "postgres", AutoIncrement: "BIGSERIAL PRIMARY KEY", numbered: true}
)

// DialectFor returns the dialect for a database/sql driver name
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case "sqlite3":
		return SQLite, nil
	case "postgres", "pgx":
		return Postgres, nil
	default:
		return Dialect{}, &core.Error{Code: "UNSUPPORTED_DRIVER", Message: "unsupported driver: " + driverName}
	}
}

// Rebind rewrites ? placeholders into the dialect's form.
// Question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
