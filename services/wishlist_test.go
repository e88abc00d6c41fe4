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

func TestWishlistAdd(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWishlistService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM products`).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM wishlist_items`).
		WithArgs(userID, productID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO wishlist_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	item, err := svc.Add(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.Equal(t, productID, item.ProductID)
	assert.Equal(t, testTime, item.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistAddDuplicateRejected(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWishlistService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM products`).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM wishlist_items`).
		WithArgs(userID, productID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Add(context.Background(), userID, productID)
	assert.ErrorIs(t, err, ErrAlreadyInWishlist)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistAddUnknownProduct(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWishlistService(db, testLogger(), fixedClock(testTime))
	productID := uuid.New()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM products`).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.Add(context.Background(), uuid.New(), productID)
	assert.ErrorIs(t, err, ErrProductInactive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRemoveMissing(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWishlistService(db, testLogger(), fixedClock(testTime))

	mock.ExpectExec(`DELETE FROM wishlist_items`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Remove(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToCartCreatesLineAndDropsWishlistEntry(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWishlistService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`)).
		WithArgs(userID, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, stock, is_active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "is_active"}).
			AddRow("Sweter Rajut", 8, true))
	mock.ExpectQuery(`SELECT id, quantity FROM cart_items`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO cart_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item, err := svc.MoveToCart(context.Background(), userID, productID, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, "Sweter Rajut", item.ProductName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToCartMergesExistingLine(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWishlistService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	productID := uuid.New()
	existingID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`)).
		WithArgs(userID, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, stock, is_active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "is_active"}).
			AddRow("Sweter Rajut", 8, true))
	mock.ExpectQuery(`SELECT id, quantity FROM cart_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).
			AddRow(existingID, 2))
	mock.ExpectExec(`UPDATE cart_items SET quantity = \$1`).
		WithArgs(3, testTime, existingID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item, err := svc.MoveToCart(context.Background(), userID, productID, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, existingID, item.ID)
	assert.Equal(t, 3, item.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToCartRollsBackWhenStockTooLow(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWishlistService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`)).
		WithArgs(userID, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, stock, is_active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "is_active"}).
			AddRow("Sweter Rajut", 1, true))
	mock.ExpectQuery(`SELECT id, quantity FROM cart_items`).
		WillReturnError(sql.ErrNoRows)
	// Rollback restores the wishlist entry deleted above.
	mock.ExpectRollback()

	_, err := svc.MoveToCart(context.Background(), userID, productID, 5, nil)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToCartMissingWishlistEntry(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWishlistService(db, testLogger(), fixedClock(testTime))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM wishlist_items`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.MoveToCart(context.Background(), uuid.New(), uuid.New(), 1, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
