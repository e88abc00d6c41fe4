package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. Transitions only move forward; delivered and cancelled
// are terminal.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodEWallet      = "e_wallet"
	PaymentMethodCOD          = "cod"
)

// Order is a persisted purchase intent. total_amount is computed once at
// creation as item subtotals + shipping_cost - discount_amount and never
// recomputed.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	Status          string          `json:"status" db:"status"`
	TotalAmount     float64         `json:"total_amount" db:"total_amount"`
	ShippingCost    float64         `json:"shipping_cost" db:"shipping_cost"`
	DiscountAmount  float64         `json:"discount_amount" db:"discount_amount"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	PaymentStatus   string          `json:"payment_status" db:"payment_status"`
	ShippingAddress ShippingAddress `json:"shipping_address" db:"shipping_address"`
	PaymentProofURL *string         `json:"payment_proof_url,omitempty" db:"payment_proof_url"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem is an immutable snapshot of one purchased product line.
type OrderItem struct {
	ID           uuid.UUID `json:"id" db:"id"`
	OrderID      uuid.UUID `json:"order_id" db:"order_id"`
	ProductID    uuid.UUID `json:"product_id" db:"product_id"`
	ProductName  string    `json:"product_name" db:"product_name"`
	ProductPrice float64   `json:"product_price" db:"product_price"`
	Quantity     int       `json:"quantity" db:"quantity"`
	Size         *string   `json:"size,omitempty" db:"size"`
	Subtotal     float64   `json:"subtotal" db:"subtotal"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ShippingAddress is the denormalized snapshot stored on the order, not a
// foreign key. Editing the address book later never changes past orders.
type ShippingAddress struct {
	Label         string  `json:"label,omitempty"`
	RecipientName string  `json:"recipient_name"`
	Phone         string  `json:"phone"`
	AddressLine1  string  `json:"address_line1"`
	AddressLine2  *string `json:"address_line2,omitempty"`
	City          string  `json:"city"`
	State         string  `json:"state,omitempty"`
	PostalCode    string  `json:"postal_code,omitempty"`
	Country       string  `json:"country,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (Order) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		order_number VARCHAR(50) NOT NULL UNIQUE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'confirmed', 'processing', 'shipped', 'delivered', 'cancelled')),
		total_amount NUMERIC(12,2) NOT NULL,
		shipping_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
		discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		payment_method VARCHAR(20) NOT NULL
			CHECK (payment_method IN ('bank_transfer', 'e_wallet', 'cod')),
		payment_status VARCHAR(20) NOT NULL DEFAULT 'pending'
			CHECK (payment_status IN ('pending', 'paid', 'failed', 'refunded')),
		shipping_address JSONB NOT NULL,
		payment_proof_url TEXT,
		notes TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`
}

func (OrderItem) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id),
		product_name TEXT NOT NULL,
		product_price NUMERIC(12,2) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		size VARCHAR(50),
		subtotal NUMERIC(12,2) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`
}
