package database

import (
	"fmt"
	"strings"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgresql"
	DialectDuckDB   Dialect = "duckdb"
)

// Target is a parsed connection URL resolved to a database/sql driver.
type Target struct {
	Dialect Dialect
	Driver  string
	DSN     string
	Memory  bool
}

// ParseURL accepts SQLAlchemy style URLs:
//
//	sqlite:///relative.db, sqlite:////abs/path.db, sqlite:// (in memory)
//	postgres://..., postgresql://..., postgresql+psycopg2://...
//	duckdb:///warehouse.db, duckdb:// (in memory)
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrMissingURL
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("invalid database url %q: missing scheme", redact(raw))
	}
	base, _, _ := strings.Cut(strings.ToLower(scheme), "+")

	switch base {
	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(rest, "/")
		if path == "" || path == ":memory:" {
			return Target{Dialect: DialectSQLite, Driver: "sqlite3", DSN: ":memory:", Memory: true}, nil
		}
		if strings.Contains(path, "?") && !strings.HasPrefix(path, "file:") {
			path = "file:" + path
		}
		return Target{Dialect: DialectSQLite, Driver: "sqlite3", DSN: path}, nil
	case "postgres", "postgresql":
		return Target{Dialect: DialectPostgres, Driver: "pgx", DSN: "postgres://" + rest}, nil
	case "duckdb":
		path := strings.TrimPrefix(rest, "/")
		if path == "" || path == ":memory:" {
			return Target{Dialect: DialectDuckDB, Driver: "duckdb", DSN: "", Memory: true}, nil
		}
		return Target{Dialect: DialectDuckDB, Driver: "duckdb", DSN: path}, nil
	default:
		return Target{}, fmt.Errorf("unsupported database url scheme %q", scheme)
	}
}

// redact hides credentials so URLs can appear in errors and logs.
func redact(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return raw
	}
	userinfo := rest[:at]
	if user, _, hasPassword := strings.Cut(userinfo, ":"); hasPassword {
		return scheme + "://" + user + ":***@" + rest[at+1:]
	}
	return raw
}
