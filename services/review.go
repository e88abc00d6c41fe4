package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ReviewService gates review creation on delivery status and guards
// against duplicate reviews per (user, product, order).
type ReviewService struct {
	db  *sql.DB
	log *zap.Logger
	now Clock
}

func NewReviewService(db *sql.DB, log *zap.Logger, now Clock) *ReviewService {
	return &ReviewService{db: db, log: log, now: now}
}

// SubmitReviewInput carries a new review. OrderID ties the review to the
// delivered order the product was bought in.
type SubmitReviewInput struct {
	ProductID  uuid.UUID
	OrderID    uuid.UUID
	Rating     int
	ReviewText *string
	Images     []string
}

// CanReview reports whether the user may review the product. With a nil
// orderID any delivered, not-yet-reviewed order of the user containing
// the product qualifies; the resolved order id is returned.
func (s *ReviewService) CanReview(ctx context.Context, userID, productID uuid.UUID, orderID *uuid.UUID) (bool, *uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	resolved, err := s.eligibleOrder(ctx, userID, productID, orderID)
	if err != nil {
		switch err {
		case ErrNotFound, ErrNotDelivered, ErrProductNotInOrder, ErrAlreadyReviewed:
			return false, nil, nil
		}
		return false, nil, err
	}
	return true, resolved, nil
}

// Submit re-validates eligibility and inserts the review.
func (s *ReviewService) Submit(ctx context.Context, userID uuid.UUID, input SubmitReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := s.eligibleOrder(ctx, userID, input.ProductID, &input.OrderID); err != nil {
		return nil, err
	}

	now := s.now()
	review := &models.Review{
		ID:         uuid.New(),
		UserID:     userID,
		ProductID:  input.ProductID,
		OrderID:    input.OrderID,
		Rating:     input.Rating,
		ReviewText: input.ReviewText,
		Images:     input.Images,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if review.Images == nil {
		review.Images = []string{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, product_id, order_id, rating, review_text, images, is_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		review.ID, review.UserID, review.ProductID, review.OrderID,
		review.Rating, review.ReviewText, pq.Array([]string(review.Images)),
		review.IsVerified, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.log.Info("review submitted",
		zap.String("user_id", userID.String()),
		zap.String("product_id", input.ProductID.String()),
		zap.Int("rating", input.Rating))
	return review, nil
}

// Update edits a review. Only the author's rows match.
func (s *ReviewService) Update(ctx context.Context, userID, reviewID uuid.UUID, rating int, reviewText *string, images []string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if images == nil {
		images = []string{}
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET rating = $1, review_text = $2, images = $3, updated_at = $4
		 WHERE id = $5 AND user_id = $6`,
		rating, reviewText, pq.Array(images), s.now(), reviewID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
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

// Delete removes a review. Only the author's rows match.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reviews WHERE id = $1 AND user_id = $2`,
		reviewID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to verify deletion: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByProduct returns a product's reviews newest first plus the rating
// aggregate.
func (s *ReviewService) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]models.Review, float64, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.order_id, r.rating, r.review_text, r.images,
		        r.is_verified, r.created_at, r.updated_at,
		        COALESCE(u.full_name, 'Anonymous')
		 FROM reviews r
		 JOIN users u ON r.user_id = u.id
		 WHERE r.product_id = $1
		 ORDER BY r.created_at DESC
		 LIMIT $2 OFFSET $3`,
		productID, limit, offset,
	)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		review := models.Review{ProductID: productID}
		if err := rows.Scan(
			&review.ID, &review.UserID, &review.OrderID, &review.Rating,
			&review.ReviewText, &review.Images, &review.IsVerified,
			&review.CreatedAt, &review.UpdatedAt, &review.ReviewerName,
		); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read reviews: %w", err)
	}

	var avgRating float64
	var total int
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE product_id = $1`,
		productID,
	).Scan(&avgRating, &total)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	return reviews, avgRating, total, nil
}

// eligibleOrder runs the eligibility checks: the order belongs to the
// user and is delivered, contains the product, and has no review for the
// triple yet. A nil orderID resolves to the newest order passing all of
// those checks, so a repeat purchase stays reviewable after the first
// one is reviewed.
func (s *ReviewService) eligibleOrder(ctx context.Context, userID, productID uuid.UUID, orderID *uuid.UUID) (*uuid.UUID, error) {
	if orderID == nil {
		// Resolve the newest delivered order that still lacks a review;
		// a reviewed recent purchase must not shadow an older eligible one.
		var resolved uuid.UUID
		err := s.db.QueryRowContext(ctx,
			`SELECT o.id FROM orders o
			 JOIN order_items oi ON oi.order_id = o.id
			 WHERE o.user_id = $1 AND o.status = $2 AND oi.product_id = $3
			   AND NOT EXISTS (
			       SELECT 1 FROM reviews r
			       WHERE r.user_id = o.user_id AND r.product_id = oi.product_id AND r.order_id = o.id
			   )
			 ORDER BY o.created_at DESC LIMIT 1`,
			userID, models.OrderStatusDelivered, productID,
		).Scan(&resolved)
		if err == sql.ErrNoRows {
			return nil, ErrNotDelivered
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve order: %w", err)
		}
		orderID = &resolved
	} else {
		var status string
		err := s.db.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 AND user_id = $2`,
			*orderID, userID,
		).Scan(&status)
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load order: %w", err)
		}
		if status != models.OrderStatusDelivered {
			return nil, ErrNotDelivered
		}

		var inOrder bool
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM order_items WHERE order_id = $1 AND product_id = $2)`,
			*orderID, productID,
		).Scan(&inOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to check order items: %w", err)
		}
		if !inOrder {
			return nil, ErrProductNotInOrder
		}
	}

	var reviewed bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND product_id = $2 AND order_id = $3)`,
		userID, productID, *orderID,
	).Scan(&reviewed)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if reviewed {
		return nil, ErrAlreadyReviewed
	}

	return orderID, nil
}
