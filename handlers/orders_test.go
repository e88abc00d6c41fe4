package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/ican-bangcat/LemariLama-sub000/config"
	"github.com/ican-bangcat/LemariLama-sub000/models"
	"github.com/ican-bangcat/LemariLama-sub000/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var handlerTestTime = time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := zap.NewNop()
	now := func() time.Time { return handlerTestTime }
	return New(
		&config.Config{JWTSecret: "test-secret"},
		log,
		db,
		services.NewCartService(db, log, now),
		services.NewWishlistService(db, log, now),
		services.NewOrderService(db, log, now, nil),
		services.NewReviewService(db, log, now),
		services.NewAddressService(db, log, now),
		services.NewCatalogService(db, log, now, 0),
		nil,
	), mock
}

func postJSON(t *testing.T, userID uuid.UUID, payload interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("user_id", userID.String())
	return w, c
}

func TestCreateOrderResolvesAddressBookEntry(t *testing.T) {
	h, mock := newTestHandler(t)
	userID := uuid.New()
	addressID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(`FROM addresses WHERE id = \$1 AND user_id = \$2`).
		WithArgs(addressID, userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "label", "recipient_name", "phone", "address_line1", "address_line2",
			"city", "state", "postal_code", "country", "is_default", "created_at", "updated_at",
		}).AddRow(
			addressID, userID, "Rumah", "Budi Santoso", "081234567890", "Jl. Merdeka No. 1", nil,
			"Jakarta", "DKI Jakarta", "10110", "Indonesia", true, handlerTestTime, handlerTestTime,
		))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, price, is_active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "price", "is_active"}).
			AddRow("Kemeja Flanel", 100000.0, true))
	mock.ExpectExec(`UPDATE products SET stock = stock - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM cart_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, c := postJSON(t, userID, gin.H{
		"items":          []gin.H{{"product_id": productID, "quantity": 1}},
		"address_id":     addressID,
		"payment_method": models.PaymentMethodCOD,
	})
	h.CreateOrder(c)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// The stored order carries the address book snapshot.
	assert.Equal(t, "Budi Santoso", resp.Order.ShippingAddress.RecipientName)
	assert.Equal(t, "Jl. Merdeka No. 1", resp.Order.ShippingAddress.AddressLine1)
	assert.Equal(t, "Jakarta", resp.Order.ShippingAddress.City)
	assert.Equal(t, 115000.0, resp.Order.TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderUnknownAddressID(t *testing.T) {
	h, mock := newTestHandler(t)
	userID := uuid.New()
	addressID := uuid.New()

	mock.ExpectQuery(`FROM addresses WHERE id = \$1 AND user_id = \$2`).
		WithArgs(addressID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w, c := postJSON(t, userID, gin.H{
		"items":          []gin.H{{"product_id": uuid.New(), "quantity": 1}},
		"address_id":     addressID,
		"payment_method": models.PaymentMethodCOD,
	})
	h.CreateOrder(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderWithoutAnyAddress(t *testing.T) {
	h, _ := newTestHandler(t)
	userID := uuid.New()

	w, c := postJSON(t, userID, gin.H{
		"items":          []gin.H{{"product_id": uuid.New(), "quantity": 1}},
		"payment_method": models.PaymentMethodCOD,
	})
	h.CreateOrder(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), services.ErrMissingAddress.Error())
}
