package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/BaSui01/bundleflow/registry"
)

//go:embed migrations/postgres/*.sql
var postgresFS embed.FS

//go:embed migrations/mysql/*.sql
var mysqlFS embed.FS

//go:embed migrations/sqlite/*.sql
var sqliteFS embed.FS

// Dialect identifies the registry database flavor.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect normalizes a driver string into a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "sqlite", "sqlite3", "":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported registry dialect %q", s)
	}
}

// Status describes one migration relative to the current schema version.
type Status struct {
	Version uint
	Name    string
	Applied bool
	Dirty   bool
}

// Info summarizes the schema state.
type Info struct {
	CurrentVersion uint
	Dirty          bool
	Total          int
	Applied        int
	Pending        int
}

// Migrator applies the embedded registry schema migrations.
type Migrator struct {
	dialect Dialect
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New opens the registry database and prepares the embedded migrations
// for its dialect.
func New(dialect Dialect, dsn string, logger *zap.Logger) (*Migrator, error) {
	if dsn == "" {
		return nil, errors.New("dsn must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(sqlDriverName(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping registry database: %w", err)
	}

	dbDriver, err := databaseDriver(dialect, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	fsys, dir, err := migrationSource(dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	src, err := iofs.New(fsys, dir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(dialect), dbDriver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{
		dialect: dialect,
		migrate: m,
		logger:  logger.With(zap.String("component", "migration")),
	}, nil
}

// NewFromRegistryConfig builds a migrator for the configured registry.
func NewFromRegistryConfig(config registry.Config, logger *zap.Logger) (*Migrator, error) {
	dialect, err := ParseDialect(config.Driver)
	if err != nil {
		return nil, err
	}
	return New(dialect, config.DSN, logger)
}

func sqlDriverName(dialect Dialect) string {
	switch dialect {
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

func databaseDriver(dialect Dialect, db *sql.DB) (database.Driver, error) {
	switch dialect {
	case DialectPostgres:
		return postgres.WithInstance(db, &postgres.Config{})
	case DialectMySQL:
		return mysql.WithInstance(db, &mysql.Config{})
	case DialectSQLite:
		return sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported registry dialect %q", dialect)
	}
}

func migrationSource(dialect Dialect) (fs.FS, string, error) {
	switch dialect {
	case DialectPostgres:
		return postgresFS, "migrations/postgres", nil
	case DialectMySQL:
		return mysqlFS, "migrations/mysql", nil
	case DialectSQLite:
		return sqliteFS, "migrations/sqlite", nil
	default:
		return nil, "", fmt.Errorf("unsupported registry dialect %q", dialect)
	}
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	start := time.Now()
	if err := m.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	m.logger.Info("migrations applied", zap.Duration("took", time.Since(start)))
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	if err := m.migrate.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Steps applies n migrations forward, or rolls back -n.
func (m *Migrator) Steps(ctx context.Context, n int) error {
	if err := m.migrate.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate steps: %w", err)
	}
	return nil
}

// Version reports the current schema version. A fresh database reports
// version 0 and not dirty.
func (m *Migrator) Version(ctx context.Context) (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// StatusList reports every embedded migration against the current version.
func (m *Migrator) StatusList(ctx context.Context) ([]Status, error) {
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}

	files, err := m.listMigrations()
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(files))
	for _, f := range files {
		statuses = append(statuses, Status{
			Version: f.version,
			Name:    f.name,
			Applied: f.version <= current,
			Dirty:   dirty && f.version == current,
		})
	}
	return statuses, nil
}

// Summary reports aggregate schema state.
func (m *Migrator) Summary(ctx context.Context) (*Info, error) {
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}

	files, err := m.listMigrations()
	if err != nil {
		return nil, err
	}

	applied := 0
	for _, f := range files {
		if f.version <= current {
			applied++
		}
	}
	return &Info{
		CurrentVersion: current,
		Dirty:          dirty,
		Total:          len(files),
		Applied:        applied,
		Pending:        len(files) - applied,
	}, nil
}

// Close releases the migrator's database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

type migrationFile struct {
	version uint
	name    string
}

func (m *Migrator) listMigrations() ([]migrationFile, error) {
	fsys, dir, err := migrationSource(m.dialect)
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	var files []migrationFile
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		parts := strings.SplitN(name, "_", 2)
		if len(parts) < 2 {
			continue
		}
		version, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			continue
		}
		files = append(files, migrationFile{
			version: uint(version),
			name:    strings.TrimSuffix(parts[1], ".up.sql"),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}
