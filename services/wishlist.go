package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WishlistService mirrors a user's saved-for-later products and provides
// membership lookups.
type WishlistService struct {
	db  *sql.DB
	log *zap.Logger
	now Clock
}

func NewWishlistService(db *sql.DB, log *zap.Logger, now Clock) *WishlistService {
	return &WishlistService{db: db, log: log, now: now}
}

// Add saves a product. Returns ErrAlreadyInWishlist if an entry exists;
// the UNIQUE (user_id, product_id) index backs the pre-insert check.
func (s *WishlistService) Add(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var productExists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND is_active = true)`,
		productID,
	).Scan(&productExists)
	if err != nil {
		return nil, fmt.Errorf("failed to validate product: %w", err)
	}
	if !productExists {
		return nil, ErrProductInactive
	}

	var alreadyExists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2)`,
		userID, productID,
	).Scan(&alreadyExists)
	if err != nil {
		return nil, fmt.Errorf("failed to check wishlist: %w", err)
	}
	if alreadyExists {
		return nil, ErrAlreadyInWishlist
	}

	item := &models.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: s.now(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO wishlist_items (id, user_id, product_id, created_at) VALUES ($1, $2, $3, $4)`,
		item.ID, item.UserID, item.ProductID, item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return item, nil
}

// Remove deletes the entry for the product.
func (s *WishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", err)
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

// Toggle adds the product when absent and removes it when present.
// Returns whether the product is in the wishlist afterwards.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	inList, err := s.Contains(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if inList {
		if err := s.Remove(ctx, userID, productID); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := s.Add(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

// Contains reports wishlist membership for one product.
func (s *WishlistService) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2)`,
		userID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return exists, nil
}

// IDs returns every wishlisted product id, for client-side membership sets.
func (s *WishlistService) IDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id FROM wishlist_items WHERE user_id = $1`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wishlist ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List returns wishlist entries joined with current product data.
func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT wi.id, wi.product_id, wi.created_at,
		        p.name, COALESCE(p.image_url, ''), p.price, p.stock
		 FROM wishlist_items wi
		 JOIN products p ON wi.product_id = p.id
		 WHERE wi.user_id = $1
		 ORDER BY wi.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wishlist: %w", err)
	}
	defer rows.Close()

	var items []models.WishlistItem
	for rows.Next() {
		item := models.WishlistItem{UserID: userID}
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.CreatedAt,
			&item.ProductName, &item.ProductImage, &item.UnitPrice, &item.Stock,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Clear deletes every wishlist entry for the user.
func (s *WishlistService) Clear(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1`, userID,
	); err != nil {
		return fmt.Errorf("failed to clear wishlist: %w", err)
	}
	return nil
}

// MoveToCart removes the wishlist entry and inserts (or merges) the cart
// line inside one transaction. If the cart write fails the rollback
// restores the wishlist entry, so the product is never stranded in
// neither list.
func (s *WishlistService) MoveToCart(ctx context.Context, userID, productID uuid.UUID, quantity int, size *string) (*models.CartItem, error) {
	if quantity < 1 {
		quantity = 1
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check removal: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	var productName string
	var stock int
	var active bool
	err = tx.QueryRowContext(ctx,
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
	item := &models.CartItem{
		UserID: userID, ProductID: productID,
		Size: size, ProductName: productName, UpdatedAt: now,
	}

	var existingID uuid.UUID
	var existingQty int
	err = tx.QueryRowContext(ctx,
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
		if _, err := tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = $1, updated_at = $2 WHERE id = $3`,
			merged, now, existingID,
		); err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
		item.ID = existingID
		item.Quantity = merged

	case err == sql.ErrNoRows:
		if quantity > stock {
			return nil, ErrInsufficientStock
		}
		item.ID = uuid.New()
		item.Quantity = quantity
		item.CreatedAt = now
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cart_items (id, user_id, product_id, quantity, size, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			item.ID, userID, productID, quantity, size, now,
		); err != nil {
			return nil, fmt.Errorf("failed to add cart item: %w", err)
		}

	default:
		return nil, fmt.Errorf("failed to check cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit move: %w", err)
	}

	s.log.Info("wishlist item moved to cart",
		zap.String("user_id", userID.String()),
		zap.String("product_id", productID.String()))
	return item, nil
}
