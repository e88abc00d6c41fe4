package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is the catalog entry cart lines and order items snapshot from.
type Product struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	Name          string         `json:"name" db:"name"`
	Description   *string        `json:"description,omitempty" db:"description"`
	Price         float64        `json:"price" db:"price"`
	OriginalPrice *float64       `json:"original_price,omitempty" db:"original_price"`
	Category      *string        `json:"category,omitempty" db:"category"`
	Sizes         pq.StringArray `json:"sizes" db:"sizes"`
	ImageURL      *string        `json:"image_url,omitempty" db:"image_url"`
	Stock         int            `json:"stock" db:"stock"`
	IsActive      bool           `json:"is_active" db:"is_active"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (Product) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		description TEXT,
		price NUMERIC(12,2) NOT NULL,
		original_price NUMERIC(12,2),
		category TEXT,
		sizes TEXT[] NOT NULL DEFAULT '{}',
		image_url TEXT,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
