package services

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddNewLine(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCartService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, stock, is_active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "is_active"}).
			AddRow("Kaos Polos", 10, true))
	mock.ExpectQuery(`SELECT id, quantity FROM cart_items`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO cart_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	item, err := svc.Add(context.Background(), userID, productID, 2, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "Kaos Polos", item.ProductName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartAddMergesExistingLine(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCartService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	productID := uuid.New()
	existingID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, stock, is_active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "is_active"}).
			AddRow("Kaos Polos", 10, true))
	mock.ExpectQuery(`SELECT id, quantity FROM cart_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).
			AddRow(existingID, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE cart_items SET quantity = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs(5, testTime, existingID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	item, err := svc.Add(context.Background(), userID, productID, 3, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, existingID, item.ID, "same line must be reused, not duplicated")
	assert.Equal(t, 5, item.Quantity, "quantities must merge")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartAddMergeOverStockFails(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCartService(db, testLogger(), fixedClock(testTime))
	productID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, stock, is_active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "is_active"}).
			AddRow("Kaos Polos", 4, true))
	mock.ExpectQuery(`SELECT id, quantity FROM cart_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).
			AddRow(uuid.New(), 3))

	_, err := svc.Add(context.Background(), uuid.New(), productID, 2, nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartAddInactiveProduct(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCartService(db, testLogger(), fixedClock(testTime))
	productID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, stock, is_active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "is_active"}).
			AddRow("Arsip", 5, false))

	_, err := svc.Add(context.Background(), uuid.New(), productID, 1, nil, nil)
	assert.ErrorIs(t, err, ErrProductInactive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartAddRejectsInvalidQuantity(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewCartService(db, testLogger(), fixedClock(testTime))

	_, err := svc.Add(context.Background(), uuid.New(), uuid.New(), 0, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartUpdateQuantityZeroRemovesLine(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCartService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	itemID := uuid.New()

	// Quantity zero must behave exactly like an explicit removal.
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`)).
		WithArgs(itemID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, svc.UpdateQuantity(context.Background(), userID, itemID, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartUpdateQuantityUnknownLine(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCartService(db, testLogger(), fixedClock(testTime))

	mock.ExpectExec(`UPDATE cart_items SET quantity = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.UpdateQuantity(context.Background(), uuid.New(), uuid.New(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartListComputesTotals(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCartService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "product_id", "quantity", "size", "notes", "created_at", "updated_at",
		"name", "image_url", "price", "stock",
	}).
		AddRow(uuid.New(), uuid.New(), 2, "M", nil, testTime, testTime, "Kaos", "", 50000.0, 10).
		AddRow(uuid.New(), uuid.New(), 1, nil, nil, testTime, testTime, "Jaket", "", 120000.0, 3)
	mock.ExpectQuery(`FROM cart_items ci`).WithArgs(userID).WillReturnRows(rows)

	items, total, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 100000.0, items[0].Subtotal)
	assert.Equal(t, 120000.0, items[1].Subtotal)
	assert.Equal(t, 220000.0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
