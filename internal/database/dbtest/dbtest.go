// Package dbtest opens migrated in-memory SQLite databases for package tests.
package dbtest

import (
	"sync/atomic"
	"testing"

	"musicsocial/internal/database"
	"musicsocial/internal/logger"
	"musicsocial/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New returns an isolated, migrated database closed at test cleanup.
// A single pooled connection keeps the in-memory database alive and serializes writers.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.Config(database.Options{Log: logger.Nop()}))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Count returns the number of rows in table matching the optional where clause.
func Count(t testing.TB, db *gorm.DB, table string, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// NewMock returns a postgres-dialect GORM handle over go-sqlmock for failure injection.
func NewMock(t testing.TB) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), database.Config(database.Options{Log: logger.Nop()}))
	if err != nil {
		t.Fatalf("open mock postgres: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, mock
}

// QueryCounter counts SELECTs issued through a GORM handle.
type QueryCounter struct {
	n atomic.Int64
}

func (q *QueryCounter) Load() int64 { return q.n.Load() }

// CountQueries installs a query callback on db.
func CountQueries(t testing.TB, db *gorm.DB) *QueryCounter {
	t.Helper()
	counter := &QueryCounter{}
	err := db.Callback().Query().After("gorm:query").Register("dbtest:count_queries", func(*gorm.DB) {
		counter.n.Add(1)
	})
	if err != nil {
		t.Fatalf("register query counter: %v", err)
	}
	return counter
}
