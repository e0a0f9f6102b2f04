package accounts

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/GugaValenca/user-management-system/migrations"
	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

const defaultPingTimeout = 5 * time.Second

func init() {
	persistence.RegisterModel((*User)(nil))
	persistence.RegisterModel((*ActivityLog)(nil))
	persistence.RegisterModel((*BlacklistedToken)(nil))
}

// PersistenceConfig is the database section handed to the persistence client
type PersistenceConfig struct {
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

func (c PersistenceConfig) GetDebug() bool { return c.Debug }

func (c PersistenceConfig) GetDriver() string {
	if IsPostgresDSN(c.DSN) {
		return "pgx"
	}
	return sqliteshim.ShimName
}

func (c PersistenceConfig) GetServer() string { return c.DSN }

func (c PersistenceConfig) GetDSN() string { return c.DSN }

func (c PersistenceConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return defaultPingTimeout
	}
	return c.PingTimeout
}

func (c PersistenceConfig) GetOtelIdentifier() string { return "accounts" }

// IsPostgresDSN reports whether dsn targets PostgreSQL
func IsPostgresDSN(dsn string) bool {
	dsn = strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// NewPersistence opens cfg.DSN with the matching driver and bun dialect and
// registers the account migrations for both dialects.
// postgres:// URLs use pgx, everything else is handed to SQLite.
func NewPersistence(ctx context.Context, cfg PersistenceConfig) (*persistence.Client, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, NewValidationError("database dsn is required", map[string][]string{
			"database_dsn": {"is required"},
		})
	}

	sqldb, dialect, err := openSQL(cfg)
	if err != nil {
		return nil, err
	}

	client, err := persistence.New(cfg, sqldb, dialect)
	if err != nil {
		_ = sqldb.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "create persistence client")
	}

	if !IsPostgresDSN(cfg.DSN) {
		if _, err := client.DB().ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = client.DB().Close()
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "enable sqlite foreign keys")
		}
	}

	client.RegisterDialectMigrations(
		migrations.GetMigrationsFS(),
		persistence.WithDialectSourceLabel("migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		_ = client.DB().Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "validate migrations")
	}

	return client, nil
}

func openSQL(cfg PersistenceConfig) (*sql.DB, schema.Dialect, error) {
	if IsPostgresDSN(cfg.DSN) {
		sqldb, err := sql.Open(cfg.GetDriver(), cfg.DSN)
		if err != nil {
			return nil, nil, goerrors.Wrap(err, goerrors.CategoryOperation, "open postgres")
		}
		return sqldb, pgdialect.New(), nil
	}

	sqldb, err := sql.Open(cfg.GetDriver(), cfg.DSN)
	if err != nil {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryOperation, "open sqlite")
	}
	sqldb.SetMaxOpenConns(1)

	return sqldb, sqlitedialect.New(), nil
}
