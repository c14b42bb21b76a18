package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/scaffold/internal/logger"
	"github.com/marmos91/scaffold/internal/telemetry"
)

// ErrNotConnected is returned by operations that need an open connection.
var ErrNotConnected = errors.New("database not connected")

// Options tunes the connection pool.
type Options struct {
	// MaxOpenConns limits open connections. Default: 25 (1 for in-memory SQLite).
	MaxOpenConns int

	// MaxIdleConns limits idle connections. Default: 5.
	MaxIdleConns int

	// ConnMaxLifetime recycles connections older than this. Zero keeps them forever.
	ConnMaxLifetime time.Duration
}

func (o *Options) applyDefaults(dsn DSN) {
	if o.MaxOpenConns == 0 {
		o.MaxOpenConns = 25
		if dsn.InMemory() {
			// Every connection to :memory: would see its own database.
			o.MaxOpenConns = 1
		}
	}
	if o.MaxIdleConns == 0 {
		o.MaxIdleConns = 5
	}
}

// Client owns a gorm connection for the lifetime of the service.
type Client struct {
	dsn  DSN
	opts Options

	mu sync.RWMutex
	db *gorm.DB
}

// New parses databaseURL and returns a client that is not yet connected.
func New(databaseURL string, opts Options) (*Client, error) {
	dsn, err := ParseDSN(databaseURL)
	if err != nil {
		return nil, err
	}
	opts.applyDefaults(dsn)

	return &Client{
		dsn:  dsn,
		opts: opts,
	}, nil
}

// DSN returns the parsed database URL.
func (c *Client) DSN() DSN {
	return c.dsn
}

// Connect opens the connection pool and verifies it with a ping.
// Calling Connect on a connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "connect", c.spanAttributes()...)
	defer span.End()

	err := c.connect(ctx)
	telemetry.RecordError(ctx, err)
	return err
}

func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	var dialector gorm.Dialector
	switch c.dsn.Driver {
	case DriverSQLite:
		if !c.dsn.InMemory() {
			if err := os.MkdirAll(filepath.Dir(c.dsn.Database), 0755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(c.dsn.raw)
	case DriverPostgres:
		dialector = postgres.Open(c.dsn.raw)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedScheme, c.dsn.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent), // Suppress GORM logs by default
		DisableAutomaticPing: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", describe(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	configurePool(sqlDB, c.opts)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to connect to %s: %w", c.dsn, describe(err))
	}

	c.db = db
	logger.Info("Database connected", "driver", string(c.dsn.Driver), logger.KeyDatabase, c.dsn.String())
	return nil
}

func configurePool(sqlDB *sql.DB, opts Options) {
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
}

// Disconnect closes the connection pool. Disconnecting a client that is not
// connected is a no-op.
func (c *Client) Disconnect(ctx context.Context) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "disconnect", c.spanAttributes()...)
	defer span.End()

	err := c.disconnect()
	telemetry.RecordError(ctx, err)
	return err
}

func (c *Client) disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	c.db = nil

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	logger.Info("Database disconnected", logger.KeyDatabase, c.dsn.String())
	return nil
}

// Healthcheck pings the database.
func (c *Client) Healthcheck(ctx context.Context) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "ping", c.spanAttributes()...)
	defer span.End()

	err := c.ping(ctx)
	telemetry.RecordError(ctx, err)
	return err
}

func (c *Client) ping(ctx context.Context) error {
	db := c.DB()
	if db == nil {
		return ErrNotConnected
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return describe(err)
	}
	return nil
}

// DB returns the gorm handle bound to no particular context, or nil when
// the client is not connected.
func (c *Client) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// WithContext returns a gorm session bound to ctx.
func (c *Client) WithContext(ctx context.Context) (*gorm.DB, error) {
	db := c.DB()
	if db == nil {
		return nil, ErrNotConnected
	}
	return db.WithContext(ctx), nil
}

func (c *Client) spanAttributes() []attribute.KeyValue {
	system := "sqlite"
	if c.dsn.Driver == DriverPostgres {
		system = "postgresql"
	}
	attrs := []attribute.KeyValue{telemetry.DBSystem(system), telemetry.DBName(c.dsn.Database)}
	if c.dsn.Host != "" {
		attrs = append(attrs, telemetry.ServerAddress(c.dsn.Host))
	}
	return attrs
}

// describe enriches PostgreSQL server errors with their SQLSTATE code.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s (SQLSTATE %s): %w", pgErr.Message, pgErr.Code, err)
	}
	return err
}
