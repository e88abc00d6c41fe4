package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService maintains a user's cart lines. Adding the same
// (product, size) twice merges into one line with the summed quantity.
type CartService struct {
	db  *sql.DB
	log *zap.Logger
	now Clock
}

func NewCartService(db *sql.DB, log *zap.Logger, now Clock) *CartService {
	return &CartService{db: db, log: log, now: now}
}

// Add puts a product into the user's cart. An existing line with the same
// product and size is incremented instead of duplicated.
func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int, size, notes *string) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var productName string
	var stock int
	var active bool
	err := s.db.QueryRowContext(ctx,
		`SELECT name, stock, is_active FROM products WHERE id = $1`,
		productID,
	).Scan(&productName, &stock, &active)
	if err == sql.ErrNoRows {
		return nil, ErrProductInactive
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !active {
		return nil, ErrProductInactive
	}

	now := s.now()

	// Merge into an existing line for the same product and size.
	var existingID uuid.UUID
	var existingQty int
	err = s.db.QueryRowContext(ctx,
		`SELECT id, quantity FROM cart_items
		 WHERE user_id = $1 AND product_id = $2 AND COALESCE(size, '') = COALESCE($3, '')`,
		userID, productID, size,
	).Scan(&existingID, &existingQty)

	switch {
	case err == nil:
		merged := existingQty + quantity
		if merged > stock {
			return nil, ErrInsufficientStock
		}
		_, err = s.db.ExecContext(ctx,
			`UPDATE cart_items SET quantity = $1, updated_at = $2 WHERE id = $3`,
			merged, now, existingID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
		s.log.Debug("cart line merged",
			zap.String("user_id", userID.String()),
			zap.String("product_id", productID.String()),
			zap.Int("quantity", merged))
		return &models.CartItem{
			ID: existingID, UserID: userID, ProductID: productID,
			Quantity: merged, Size: size, Notes: notes,
			ProductName: productName, UpdatedAt: now,
		}, nil

	case err == sql.ErrNoRows:
		if quantity > stock {
			return nil, ErrInsufficientStock
		}
		itemID := uuid.New()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO cart_items (id, user_id, product_id, quantity, size, notes, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
			itemID, userID, productID, quantity, size, notes, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to add cart item: %w", err)
		}
		return &models.CartItem{
			ID: itemID, UserID: userID, ProductID: productID,
			Quantity: quantity, Size: size, Notes: notes,
			ProductName: productName, CreatedAt: now, UpdatedAt: now,
		}, nil

	default:
		return nil, fmt.Errorf("failed to check cart: %w", err)
	}
}

// UpdateQuantity sets a cart line's quantity. A quantity of zero or less
// removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, userID, itemID)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		quantity, s.now(), itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update quantity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes one cart line owned by the user.
func (s *CartService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`,
		itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check removal: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear deletes every cart line for the user.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID,
	); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// List returns the cart lines joined with current product data, plus the
// computed cart total. The total is derived, never persisted.
func (s *CartService) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT ci.id, ci.product_id, ci.quantity, ci.size, ci.notes, ci.created_at, ci.updated_at,
		        p.name, COALESCE(p.image_url, ''), p.price, p.stock
		 FROM cart_items ci
		 JOIN products p ON ci.product_id = p.id
		 WHERE ci.user_id = $1
		 ORDER BY ci.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch cart: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	total := 0.0
	for rows.Next() {
		item := models.CartItem{UserID: userID}
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.Quantity, &item.Size, &item.Notes,
			&item.CreatedAt, &item.UpdatedAt,
			&item.ProductName, &item.ProductImage, &item.UnitPrice, &item.Stock,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan cart item: %w", err)
		}
		item.Subtotal = item.UnitPrice * float64(item.Quantity)
		total += item.Subtotal
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read cart: %w", err)
	}
	return items, total, nil
}

// Count returns the number of cart lines, for the badge.
func (s *CartService) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}
