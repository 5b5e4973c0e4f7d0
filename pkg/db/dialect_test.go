package db

import "testing"

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver  string
		want    string
		wantErr bool
	}{
		{"sqlite3", "sqlite", false},
		{"postgres", "postgres", false},
		{"pgx", "postgres", false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		d, err := DialectFor(tt.driver)
		if (err != nil) != tt.wantErr {
			t.Errorf("DialectFor(%q) error = %v, wantErr %v", tt.driver, err, tt.wantErr)
			continue
		}
		if d.Name != tt.want {
			t.Errorf("DialectFor(%q).Name = %q, want %q", tt.driver, d.Name, tt.want)
		}
	}
}

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{"sqlite untouched", SQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", Postgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"postgres no args", Postgres, "SELECT 1", "SELECT 1"},
		{"postgres quoted", Postgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}
