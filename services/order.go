package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Flat-rate shipping: free above the threshold, otherwise a fixed fee.
// Amounts are in rupiah.
const (
	FreeShippingThreshold = 500000
	FlatShippingCost      = 15000
)

// ShippingCost returns the shipping fee for an order subtotal. The
// threshold is exclusive: exactly 500000 still pays shipping.
func ShippingCost(subtotal float64) float64 {
	if subtotal > FreeShippingThreshold {
		return 0
	}
	return FlatShippingCost
}

var statusRank = map[string]int{
	models.OrderStatusPending:    0,
	models.OrderStatusConfirmed:  1,
	models.OrderStatusProcessing: 2,
	models.OrderStatusShipped:    3,
	models.OrderStatusDelivered:  4,
}

// CanTransition reports whether an admin may move an order between the
// two statuses. Transitions only move forward; delivered and cancelled
// are terminal. Cancelling is allowed from any non-terminal status.
func CanTransition(from, to string) bool {
	if from == models.OrderStatusDelivered || from == models.OrderStatusCancelled {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	fr, ok := statusRank[from]
	tr, ok2 := statusRank[to]
	return ok && ok2 && tr > fr
}

// OrderLine is one draft line of an order to be placed. Name and price
// snapshots are read from the products table inside the placement
// transaction, never trusted from the caller.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
	Size      *string
}

// PlaceOrderInput carries everything needed to place an order.
type PlaceOrderInput struct {
	Lines           []OrderLine
	ShippingAddress *models.ShippingAddress
	PaymentMethod   string
	Notes           *string
	DiscountAmount  float64
}

// OrderService converts cart selections into persisted orders and drives
// the order status lifecycle.
type OrderService struct {
	db       *sql.DB
	log      *zap.Logger
	now      Clock
	notifier *Notifier
}

func NewOrderService(db *sql.DB, log *zap.Logger, now Clock, notifier *Notifier) *OrderService {
	return &OrderService{db: db, log: log, now: now, notifier: notifier}
}

// Place persists the order header, its items, the stock decrements and
// the purchased cart-line removal inside a single transaction. Any
// failure rolls the whole order back; no orphaned headers are possible.
func (s *OrderService) Place(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyOrder
	}
	if input.ShippingAddress == nil {
		return nil, ErrMissingAddress
	}
	switch input.PaymentMethod {
	case models.PaymentMethodBankTransfer, models.PaymentMethodEWallet, models.PaymentMethodCOD:
	default:
		return nil, ErrInvalidPaymentMethod
	}
	for _, line := range input.Lines {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()

	// Snapshot product data and claim stock line by line.
	subtotal := 0.0
	items := make([]models.OrderItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		var name string
		var price float64
		var active bool
		err := tx.QueryRowContext(ctx,
			`SELECT name, price, is_active FROM products WHERE id = $1`,
			line.ProductID,
		).Scan(&name, &price, &active)
		if err == sql.ErrNoRows {
			return nil, ErrProductInactive
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		if !active {
			return nil, ErrProductInactive
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND stock >= $1`,
			line.Quantity, now, line.ProductID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update stock: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to verify stock update: %w", err)
		}
		if affected == 0 {
			return nil, ErrInsufficientStock
		}

		lineSubtotal := price * float64(line.Quantity)
		subtotal += lineSubtotal
		items = append(items, models.OrderItem{
			ID:           uuid.New(),
			ProductID:    line.ProductID,
			ProductName:  name,
			ProductPrice: price,
			Quantity:     line.Quantity,
			Size:         line.Size,
			Subtotal:     lineSubtotal,
			CreatedAt:    now,
		})
	}

	if input.DiscountAmount < 0 || input.DiscountAmount > subtotal {
		return nil, ErrInvalidDiscount
	}

	shipping := ShippingCost(subtotal)
	total := subtotal + shipping - input.DiscountAmount

	addressJSON, err := json.Marshal(input.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize shipping address: %w", err)
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		OrderNumber:     s.generateOrderNumber(),
		Status:          models.OrderStatusPending,
		TotalAmount:     total,
		ShippingCost:    shipping,
		DiscountAmount:  input.DiscountAmount,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		ShippingAddress: *input.ShippingAddress,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, order_number, status, total_amount, shipping_cost,
		                     discount_amount, payment_method, payment_status, shipping_address,
		                     notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		order.ID, order.UserID, order.OrderNumber, order.Status, order.TotalAmount,
		order.ShippingCost, order.DiscountAmount, order.PaymentMethod, order.PaymentStatus,
		string(addressJSON), order.Notes, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, product_price,
			                          quantity, size, subtotal, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			items[i].ID, items[i].OrderID, items[i].ProductID, items[i].ProductName,
			items[i].ProductPrice, items[i].Quantity, items[i].Size, items[i].Subtotal, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	// Drop the purchased cart lines. Part of the same transaction, so a
	// failed placement leaves the cart untouched. Matching on the same
	// (product, size) key the cart merges on keeps unpurchased size
	// variants in the cart.
	for _, line := range input.Lines {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items
			 WHERE user_id = $1 AND product_id = $2 AND COALESCE(size, '') = COALESCE($3, '')`,
			userID, line.ProductID, line.Size,
		); err != nil {
			return nil, fmt.Errorf("failed to clear purchased cart lines: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	order.Items = items
	s.log.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.Float64("total", order.TotalAmount),
		zap.Int("items", len(items)))

	s.notifyStatus(userID, order.OrderNumber, order.Status)
	return order, nil
}

// Get returns one order with its items, scoped to the owning user.
func (s *OrderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	order, err := s.scanOrder(ctx, `WHERE id = $1 AND user_id = $2`, orderID, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// GetByNumber returns one order by its public order number. Used for
// order tracking, so it is not scoped to a user.
func (s *OrderService) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	order, err := s.scanOrder(ctx, `WHERE order_number = $1`, orderNumber)
	if err != nil {
		return nil, err
	}
	items, err := s.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// ListByUser returns the user's orders newest first, optionally filtered
// by status, with the total row count for pagination.
func (s *OrderService) ListByUser(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]models.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT id, user_id, order_number, status, total_amount, shipping_cost,
	                 discount_amount, payment_method, payment_status, shipping_address,
	                 payment_proof_url, notes, created_at, updated_at
	          FROM orders WHERE user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read orders: %w", err)
	}

	for i := range orders {
		items, err := s.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
		orders[i].Items = items
	}

	countQuery := `SELECT COUNT(*) FROM orders WHERE user_id = $1`
	countArgs := []interface{}{userID}
	if status != "" {
		countQuery += ` AND status = $2`
		countArgs = append(countArgs, status)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return orders, total, nil
}

// Cancel is the customer-initiated cancellation, allowed only while the
// order is still pending. Reserved stock is returned.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var status, orderNumber string
	err = tx.QueryRowContext(ctx,
		`SELECT status, order_number FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&status, &orderNumber)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if status != models.OrderStatusPending {
		return ErrCannotCancel
	}

	now := s.now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		models.OrderStatusCancelled, now, orderID,
	); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	if err := restoreStock(ctx, tx, orderID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}

	s.log.Info("order cancelled by customer", zap.String("order_number", orderNumber))
	s.notifyStatus(userID, orderNumber, models.OrderStatusCancelled)
	return nil
}

// ConfirmDelivery is the customer-initiated shipped -> delivered
// transition. Any other current status is rejected.
func (s *OrderService) ConfirmDelivery(ctx context.Context, userID, orderID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var status, orderNumber string
	err := s.db.QueryRowContext(ctx,
		`SELECT status, order_number FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&status, &orderNumber)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if status != models.OrderStatusShipped {
		return ErrInvalidTransition
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		models.OrderStatusDelivered, s.now(), orderID,
	); err != nil {
		return fmt.Errorf("failed to confirm delivery: %w", err)
	}

	s.notifyStatus(userID, orderNumber, models.OrderStatusDelivered)
	return nil
}

// AdminUpdateStatus moves an order forward in its lifecycle. Cancelling
// a non-terminal order returns its stock.
func (s *OrderService) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var status, orderNumber string
	var userID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT status, order_number, user_id FROM orders WHERE id = $1`,
		orderID,
	).Scan(&status, &orderNumber, &userID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if !CanTransition(status, newStatus) {
		return ErrInvalidTransition
	}

	now := s.now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		newStatus, now, orderID,
	); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	if newStatus == models.OrderStatusCancelled {
		if err := restoreStock(ctx, tx, orderID, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}

	s.log.Info("order status updated",
		zap.String("order_number", orderNumber),
		zap.String("from", status),
		zap.String("to", newStatus))
	s.notifyStatus(userID, orderNumber, newStatus)
	return nil
}

// UpdatePaymentStatus sets the payment status (admin action).
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, paymentStatus string) error {
	switch paymentStatus {
	case models.PaymentStatusPending, models.PaymentStatusPaid,
		models.PaymentStatusFailed, models.PaymentStatusRefunded:
	default:
		return ErrInvalidTransition
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET payment_status = $1, updated_at = $2 WHERE id = $3`,
		paymentStatus, s.now(), orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to verify update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachPaymentProof stores the uploaded proof URL on a bank transfer or
// e-wallet order owned by the user. COD orders carry no proof.
func (s *OrderService) AttachPaymentProof(ctx context.Context, userID, orderID uuid.UUID, proofURL string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var paymentMethod string
	err := s.db.QueryRowContext(ctx,
		`SELECT payment_method FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&paymentMethod)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if paymentMethod == models.PaymentMethodCOD {
		return ErrProofNotAccepted
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE orders SET payment_proof_url = $1, updated_at = $2 WHERE id = $3`,
		proofURL, s.now(), orderID,
	); err != nil {
		return fmt.Errorf("failed to attach payment proof: %w", err)
	}
	return nil
}

// AdminList returns all orders, optionally filtered by status.
func (s *OrderService) AdminList(ctx context.Context, status string, page, limit int) ([]models.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT id, user_id, order_number, status, total_amount, shipping_cost,
	                 discount_amount, payment_method, payment_status, shipping_address,
	                 payment_proof_url, notes, created_at, updated_at
	          FROM orders`
	countQuery := `SELECT COUNT(*) FROM orders`
	args := []interface{}{}
	countArgs := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		countQuery += ` WHERE status = $1`
		args = append(args, status)
		countArgs = append(countArgs, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read orders: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return orders, total, nil
}

func (s *OrderService) scanOrder(ctx context.Context, where string, args ...interface{}) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, order_number, status, total_amount, shipping_cost,
		        discount_amount, payment_method, payment_status, shipping_address,
		        payment_proof_url, notes, created_at, updated_at
		 FROM orders `+where,
		args...,
	)
	order, err := scanOrderRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrderRow(row rowScanner) (*models.Order, error) {
	var order models.Order
	var addressJSON []byte
	err := row.Scan(
		&order.ID, &order.UserID, &order.OrderNumber, &order.Status,
		&order.TotalAmount, &order.ShippingCost, &order.DiscountAmount,
		&order.PaymentMethod, &order.PaymentStatus, &addressJSON,
		&order.PaymentProofURL, &order.Notes, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to parse shipping address: %w", err)
	}
	return &order, nil
}

func (s *OrderService) loadItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, product_price, quantity, size, subtotal, created_at
		 FROM order_items WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.ProductPrice, &item.Quantity, &item.Size, &item.Subtotal, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func restoreStock(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE products p
		 SET stock = p.stock + oi.quantity, updated_at = $2
		 FROM order_items oi
		 WHERE oi.order_id = $1 AND oi.product_id = p.id`,
		orderID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

// notifyStatus pushes the status change to the user's device, if any.
// Best effort: failures are logged, never surfaced.
func (s *OrderService) notifyStatus(userID uuid.UUID, orderNumber, status string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		var pushToken sql.NullString
		err := s.db.QueryRowContext(ctx,
			`SELECT push_token FROM users WHERE id = $1`, userID,
		).Scan(&pushToken)
		if err != nil || !pushToken.Valid || pushToken.String == "" {
			return
		}
		if err := s.notifier.SendOrderStatus(pushToken.String, orderNumber, status); err != nil {
			s.log.Warn("order status notification failed",
				zap.String("order_number", orderNumber), zap.Error(err))
		}
	}()
}

// generateOrderNumber builds a display-grade identifier from the date and
// a random suffix. The orders table's UNIQUE constraint catches the rare
// collision.
func (s *OrderService) generateOrderNumber() string {
	now := s.now()
	return fmt.Sprintf("LL-%d%02d%02d-%s",
		now.Year(), now.Month(), now.Day(), randomSuffix(4))
}

func randomSuffix(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
