package registry

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Package{}))
	return db
}

func seed(t *testing.T, db *gorm.DB, pkg Package) {
	t.Helper()
	require.NoError(t, db.Create(&pkg).Error)
}

func strptr(s string) *string { return &s }

func boolptr(b bool) *bool { return &b }

func TestGormResolver_Resolve(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, Package{
		Key:            "customer-support",
		BundleLocation: "https://store.example.com/bundles/customer-support-v3",
		Checksum:       strptr("abc123"),
		Enabled:        boolptr(true),
	})
	seed(t, db, Package{
		Key:            "no-checksum",
		BundleLocation: "https://store.example.com/bundles/no-checksum",
		Enabled:        boolptr(true),
	})
	seed(t, db, Package{
		Key:     "no-location",
		Enabled: boolptr(true),
	})
	seed(t, db, Package{
		Key:            "disabled",
		BundleLocation: "https://store.example.com/bundles/disabled",
		Enabled:        boolptr(false),
	})

	r, err := NewGormResolver(db, nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		key      string
		wantErr  bool
		checksum string
	}{
		{name: "found with checksum", key: "customer-support", checksum: "abc123"},
		{name: "found without checksum", key: "no-checksum", checksum: ""},
		{name: "missing row", key: "ghost", wantErr: true},
		{name: "row lacks bundle location", key: "no-location", wantErr: true},
		{name: "disabled row", key: "disabled", wantErr: true},
		{name: "empty key", key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := r.Resolve(context.Background(), tt.key)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrPackageNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, meta.Key)
			assert.Equal(t, tt.checksum, meta.Checksum)
			assert.NotEmpty(t, meta.BundleLocation)
		})
	}
}

func TestPackage_EnabledPersistence(t *testing.T) {
	db := setupTestDB(t)

	// An explicit false must survive Create; the default tag only applies
	// when the field is left nil.
	seed(t, db, Package{
		Key:            "disabled",
		BundleLocation: "https://store.example.com/bundles/disabled",
		Enabled:        boolptr(false),
	})
	seed(t, db, Package{
		Key:            "defaulted",
		BundleLocation: "https://store.example.com/bundles/defaulted",
	})

	var disabled, defaulted Package
	require.NoError(t, db.Where(map[string]any{"key": "disabled"}).First(&disabled).Error)
	require.NotNil(t, disabled.Enabled)
	assert.False(t, *disabled.Enabled)

	require.NoError(t, db.Where(map[string]any{"key": "defaulted"}).First(&defaulted).Error)
	require.NotNil(t, defaulted.Enabled)
	assert.True(t, *defaulted.Enabled)
}

func TestGormResolver_DatabaseError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	r, err := NewGormResolver(db, nil)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "customer-support")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPackageNotFound)
}

func TestNewGormResolver_NilDB(t *testing.T) {
	_, err := NewGormResolver(nil, nil)
	require.Error(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(PackageMetadata{
		Key:            "customer-support",
		BundleLocation: "https://store.example.com/b",
		Checksum:       "abc123",
	})

	meta, err := r.Resolve(context.Background(), "customer-support")
	require.NoError(t, err)
	assert.Equal(t, "abc123", meta.Checksum)

	_, err = r.Resolve(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrPackageNotFound)

	r.Set(PackageMetadata{Key: "new", BundleLocation: "https://x/y"})
	_, err = r.Resolve(context.Background(), "new")
	require.NoError(t, err)

	r.Remove("new")
	_, err = r.Resolve(context.Background(), "new")
	require.ErrorIs(t, err, ErrPackageNotFound)
}
