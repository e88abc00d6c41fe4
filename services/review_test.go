package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReviewRejectsBadRating(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewReviewService(db, testLogger(), fixedClock(testTime))

	for _, rating := range []int{0, -1, 6} {
		_, err := svc.Submit(context.Background(), uuid.New(), SubmitReviewInput{
			ProductID: uuid.New(),
			OrderID:   uuid.New(),
			Rating:    rating,
		})
		assert.ErrorIs(t, err, ErrInvalidRating)
	}
}

func TestSubmitReviewRequiresDeliveredOrder(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReviewService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	orderID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 AND user_id = $2`)).
		WithArgs(orderID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.OrderStatusShipped))

	_, err := svc.Submit(context.Background(), userID, SubmitReviewInput{
		ProductID: uuid.New(),
		OrderID:   orderID,
		Rating:    5,
	})
	assert.ErrorIs(t, err, ErrNotDelivered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReviewProductMustBeInOrder(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReviewService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	orderID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 AND user_id = $2`)).
		WithArgs(orderID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.OrderStatusDelivered))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM order_items`).
		WithArgs(orderID, productID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.Submit(context.Background(), userID, SubmitReviewInput{
		ProductID: productID,
		OrderID:   orderID,
		Rating:    4,
	})
	assert.ErrorIs(t, err, ErrProductNotInOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReviewOncePerOrder(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReviewService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	orderID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 AND user_id = $2`)).
		WithArgs(orderID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.OrderStatusDelivered))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM order_items`).
		WithArgs(orderID, productID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews`).
		WithArgs(userID, productID, orderID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Submit(context.Background(), userID, SubmitReviewInput{
		ProductID: productID,
		OrderID:   orderID,
		Rating:    4,
	})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReviewSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReviewService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	orderID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 AND user_id = $2`)).
		WithArgs(orderID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.OrderStatusDelivered))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM order_items`).
		WithArgs(orderID, productID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews`).
		WithArgs(userID, productID, orderID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO reviews`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	text := "Barang sesuai deskripsi, pengiriman cepat"
	review, err := svc.Submit(context.Background(), userID, SubmitReviewInput{
		ProductID:  productID,
		OrderID:    orderID,
		Rating:     5,
		ReviewText: &text,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.True(t, review.IsVerified)
	assert.Equal(t, orderID, review.OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanReviewResolvesNewestDeliveredOrder(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReviewService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	productID := uuid.New()
	resolvedID := uuid.New()

	mock.ExpectQuery(`SELECT o.id FROM orders o`).
		WithArgs(userID, models.OrderStatusDelivered, productID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(resolvedID))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews`).
		WithArgs(userID, productID, resolvedID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, orderID, err := svc.CanReview(context.Background(), userID, productID, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, orderID)
	assert.Equal(t, resolvedID, *orderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanReviewFallsBackToOlderUnreviewedOrder(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReviewService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	productID := uuid.New()
	olderOrderID := uuid.New()

	// The user bought the product twice and reviewed the newer order.
	// The resolving query excludes reviewed orders, so the older delivered
	// purchase must surface instead of a hard stop at the newest one.
	mock.ExpectQuery(`SELECT o.id FROM orders o.+NOT EXISTS`).
		WithArgs(userID, models.OrderStatusDelivered, productID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(olderOrderID))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews`).
		WithArgs(userID, productID, olderOrderID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, orderID, err := svc.CanReview(context.Background(), userID, productID, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, orderID)
	assert.Equal(t, olderOrderID, *orderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanReviewFalseWithoutDeliveredOrder(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReviewService(db, testLogger(), fixedClock(testTime))
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(`SELECT o.id FROM orders o`).
		WithArgs(userID, models.OrderStatusDelivered, productID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ok, orderID, err := svc.CanReview(context.Background(), userID, productID, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, orderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReviewOnlyAuthor(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReviewService(db, testLogger(), fixedClock(testTime))

	mock.ExpectExec(`UPDATE reviews SET rating = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Update(context.Background(), uuid.New(), uuid.New(), 3, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
