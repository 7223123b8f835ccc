// Package dbtest opens throwaway sqlite databases with the full schema for
// repository and service tests.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kukumart/marketplace-backend/pkg/db"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
)

// Open returns an isolated in-memory database migrated from the models.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, "file:km_"+uuid.NewString()+"?mode=memory&cache=shared", 0)
}

// OpenFile returns a file-backed database limited to one connection, so
// concurrent transactions queue on the connection pool instead of failing
// with table locks.
func OpenFile(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "km.db")
	return open(t, path+"?_busy_timeout=5000&_foreign_keys=on", 1)
}

// Client wraps Open in a db.Client for services that need WithTx.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}

func open(t testing.TB, dsn string, maxConns int) *gorm.DB {
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return conn
}
