package database

import (
	"database/sql"
	"fmt"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type DB struct {
	*sql.DB
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// InitializeTables creates all tables if they don't exist.
func (db *DB) InitializeTables(log *zap.Logger) error {
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`); err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	// Order matters: referenced tables first.
	tables := []interface {
		TableName() string
		CreateTableSQL() string
	}{
		models.User{},
		models.Product{},
		models.Address{},
		models.CartItem{},
		models.WishlistItem{},
		models.Order{},
		models.OrderItem{},
		models.Review{},
	}

	for _, t := range tables {
		log.Info("creating table", zap.String("table", t.TableName()))
		if _, err := db.Exec(t.CreateTableSQL()); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.TableName(), err)
		}
	}

	if err := db.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("all tables created")
	return nil
}

// runMigrations handles schema updates for existing tables.
func (db *DB) runMigrations() error {
	migrations := []string{
		// One cart line per (user, product, size); NULL sizes collapse to ''.
		`CREATE UNIQUE INDEX IF NOT EXISTS cart_items_user_product_size_idx
			ON cart_items (user_id, product_id, COALESCE(size, ''));`,

		`CREATE INDEX IF NOT EXISTS orders_user_created_idx
			ON orders (user_id, created_at DESC);`,

		`CREATE INDEX IF NOT EXISTS order_items_order_idx
			ON order_items (order_id);`,

		`CREATE INDEX IF NOT EXISTS reviews_product_idx
			ON reviews (product_id, created_at DESC);`,

		// At most one default address per user.
		`CREATE UNIQUE INDEX IF NOT EXISTS addresses_user_default_idx
			ON addresses (user_id) WHERE is_default;`,

		`ALTER TABLE users ADD COLUMN IF NOT EXISTS push_token TEXT;`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
