package store

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Driver identifies a database backend.
type Driver string

const (
	// DriverPostgres uses PostgreSQL through gorm.io/driver/postgres (pgx).
	DriverPostgres Driver = "postgres"

	// DriverSQLite uses SQLite through the pure-Go glebarez driver.
	DriverSQLite Driver = "sqlite"
)

// ErrUnsupportedScheme is returned for database URLs with an unknown scheme.
var ErrUnsupportedScheme = errors.New("unsupported database URL scheme")

// memoryPath selects an in-memory SQLite database.
const memoryPath = ":memory:"

// DSN is a parsed database URL.
type DSN struct {
	Driver Driver

	// raw is the connection string handed to the driver. It may contain credentials.
	raw string

	// Host, Database and User describe the target for logs; they never carry secrets.
	Host     string
	Database string
	User     string
}

// ParseDSN parses a database URL.
func ParseDSN(databaseURL string) (DSN, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return DSN{}, fmt.Errorf("invalid database URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		cfg, err := pgconn.ParseConfig(databaseURL)
		if err != nil {
			return DSN{}, fmt.Errorf("invalid postgres URL: %w", err)
		}
		return DSN{
			Driver:   DriverPostgres,
			raw:      databaseURL,
			Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Database: cfg.Database,
			User:     cfg.User,
		}, nil

	case "sqlite", "file":
		path := sqlitePath(u)
		if path == "" {
			return DSN{}, fmt.Errorf("invalid sqlite URL %q: missing path", databaseURL)
		}
		return DSN{
			Driver:   DriverSQLite,
			raw:      sqliteDSN(path),
			Database: path,
		}, nil

	default:
		return DSN{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// sqlitePath extracts the file path from sqlite:path, sqlite://path and file:path forms.
func sqlitePath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

// sqliteDSN adds pragmas for concurrent access to file databases:
//   - journal_mode(WAL): Write-Ahead Logging for concurrent readers/single writer
//   - busy_timeout(5000): Wait up to 5 seconds when database is locked
func sqliteDSN(path string) string {
	if path == memoryPath {
		return path
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// InMemory reports whether the DSN targets an in-memory SQLite database.
func (d DSN) InMemory() bool {
	return d.Driver == DriverSQLite && d.Database == memoryPath
}

// String describes the target without credentials.
func (d DSN) String() string {
	switch d.Driver {
	case DriverPostgres:
		return fmt.Sprintf("postgres://%s@%s/%s", d.User, d.Host, d.Database)
	default:
		return fmt.Sprintf("sqlite:%s", d.Database)
	}
}
