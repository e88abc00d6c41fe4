package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
)

// newMockDB returns a sqlmock-backed database and registers cleanup.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

var testTime = time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC)

func testLogger() *zap.Logger {
	return zap.NewNop()
}
