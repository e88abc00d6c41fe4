package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// movableClock lets tests advance time between calls.
type movableClock struct {
	current time.Time
}

func (c *movableClock) Now() time.Time {
	return c.current
}

func (c *movableClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func productListRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "price", "original_price", "category",
		"sizes", "image_url", "stock", "is_active", "created_at", "updated_at",
	}).AddRow(
		uuid.New(), "Kemeja Flanel", nil, 95000.0, nil, "atasan",
		[]byte(`{S,M,L}`), nil, 12, true, testTime, testTime,
	)
}

func TestCatalogListServedFromCacheWhileFresh(t *testing.T) {
	db, mock := newMockDB(t)
	clock := &movableClock{current: testTime}
	svc := NewCatalogService(db, testLogger(), clock.Now, 5*time.Minute)

	// Only one query expected across both calls.
	mock.ExpectQuery(`FROM products WHERE is_active = true`).
		WillReturnRows(productListRows())

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	clock.Advance(4 * time.Minute)
	second, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogListRefetchesAfterTTL(t *testing.T) {
	db, mock := newMockDB(t)
	clock := &movableClock{current: testTime}
	svc := NewCatalogService(db, testLogger(), clock.Now, 5*time.Minute)

	mock.ExpectQuery(`FROM products WHERE is_active = true`).
		WillReturnRows(productListRows())
	mock.ExpectQuery(`FROM products WHERE is_active = true`).
		WillReturnRows(productListRows())

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogWriteInvalidatesCache(t *testing.T) {
	db, mock := newMockDB(t)
	clock := &movableClock{current: testTime}
	svc := NewCatalogService(db, testLogger(), clock.Now, 5*time.Minute)

	mock.ExpectQuery(`FROM products WHERE is_active = true`).
		WillReturnRows(productListRows())
	mock.ExpectExec(`UPDATE products SET is_active = false`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The listing right after a write must hit the database again even
	// though the TTL has not elapsed.
	mock.ExpectQuery(`FROM products WHERE is_active = true`).
		WillReturnRows(productListRows())

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Archive(context.Background(), uuid.New()))

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogGetUnknownProduct(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCatalogService(db, testLogger(), fixedClock(testTime), 0)
	productID := uuid.New()

	mock.ExpectQuery(`FROM products WHERE id = \$1`).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Get(context.Background(), productID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
