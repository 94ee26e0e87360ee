// Package testutil provides an in-memory catalog database for tests.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bookstore/database"
	"bookstore/internal/microservices/http-api/models"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewDB opens a migrated in-memory SQLite database that lives for the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	// every pooled connection would get its own :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db, DiscardLogger()))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser inserts a user with the given username.
func CreateUser(t testing.TB, db *gorm.DB, username, first, last string) *models.User {
	t.Helper()
	u := &models.User{
		Username:  username,
		Password:  "x",
		FirstName: first,
		LastName:  last,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateBook inserts a book; owner may be nil.
func CreateBook(t testing.TB, db *gorm.DB, name, price, author string, owner *models.User) *models.Book {
	t.Helper()
	b := &models.Book{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		AuthorName: author,
	}
	if owner != nil {
		b.OwnerID = &owner.ID
	}
	require.NoError(t, db.Create(b).Error)
	return b
}
