package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Review is a rating tied to a delivered order's product. One review per
// (user, product, order).
type Review struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	UserID     uuid.UUID      `json:"user_id" db:"user_id"`
	ProductID  uuid.UUID      `json:"product_id" db:"product_id"`
	OrderID    uuid.UUID      `json:"order_id" db:"order_id"`
	Rating     int            `json:"rating" db:"rating"`
	ReviewText *string        `json:"review_text,omitempty" db:"review_text"`
	Images     pq.StringArray `json:"images" db:"images"`
	IsVerified bool           `json:"is_verified" db:"is_verified"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`

	// Joined for display
	ReviewerName string `json:"reviewer_name,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}

func (Review) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		rating SMALLINT NOT NULL CHECK (rating >= 1 AND rating <= 5),
		review_text TEXT,
		images TEXT[] NOT NULL DEFAULT '{}',
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		UNIQUE (user_id, product_id, order_id)
	);`
}
