package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Package is the registry row backing a resolvable package.
type Package struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Key            string  `gorm:"uniqueIndex;size:255;not null" json:"key"`
	BundleLocation string  `gorm:"size:1024" json:"bundle_location"`
	Checksum       *string `gorm:"size:128" json:"checksum,omitempty"`
	// Enabled is a pointer so an explicit false survives Create; with a
	// plain bool GORM drops the zero value and the column default wins.
	Enabled   *bool     `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName fixes the table name independent of GORM pluralization rules.
func (Package) TableName() string {
	return "packages"
}

// Config configures the registry database connection.
type Config struct {
	// Driver is one of "postgres", "mysql", "sqlite".
	Driver string `yaml:"driver" json:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn" json:"dsn"`

	// Connection pool tuning. Zero values keep the driver defaults.
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

// DefaultConfig returns an in-memory sqlite registry, suitable for
// development and tests.
func DefaultConfig() Config {
	return Config{Driver: "sqlite", DSN: "file::memory:?cache=shared"}
}

// Open connects to the registry database for the configured driver and
// applies the connection pool settings.
func Open(config Config) (*gorm.DB, error) {
	opts := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var db *gorm.DB
	var err error
	switch config.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(config.DSN), opts)
	case "mysql":
		db, err = gorm.Open(mysql.Open(config.DSN), opts)
	case "sqlite", "":
		db, err = gorm.Open(sqlite.Open(config.DSN), opts)
	default:
		return nil, fmt.Errorf("unsupported registry driver %q", config.Driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("registry connection: %w", err)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}
	return db, nil
}

// GormResolver resolves package metadata from the registry database.
type GormResolver struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ Resolver = (*GormResolver)(nil)

// NewGormResolver creates a resolver over an open registry connection.
func NewGormResolver(db *gorm.DB, logger *zap.Logger) (*GormResolver, error) {
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormResolver{
		db:     db,
		logger: logger.With(zap.String("component", "registry")),
	}, nil
}

// Ping verifies the registry database is reachable.
func (r *GormResolver) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("registry connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("registry ping: %w", err)
	}
	return nil
}

// Resolve returns the bundle location and checksum for key. A missing row,
// a disabled row, or a row without a bundle location all map to
// ErrPackageNotFound.
func (r *GormResolver) Resolve(ctx context.Context, key string) (*PackageMetadata, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrPackageNotFound)
	}

	// Map conditions so GORM quotes the identifiers per dialect; "key" is
	// a reserved word in MySQL.
	var pkg Package
	err := r.db.WithContext(ctx).
		Where(map[string]any{"key": key, "enabled": true}).
		First(&pkg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, key)
	}
	if err != nil {
		r.logger.Error("registry lookup failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("registry lookup: %w", err)
	}
	if pkg.BundleLocation == "" {
		return nil, fmt.Errorf("%w: %s has no bundle location", ErrPackageNotFound, key)
	}

	meta := &PackageMetadata{
		Key:            pkg.Key,
		BundleLocation: pkg.BundleLocation,
	}
	if pkg.Checksum != nil {
		meta.Checksum = *pkg.Checksum
	}
	return meta, nil
}
