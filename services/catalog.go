package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DefaultCatalogTTL is how long a cached product listing stays fresh.
const DefaultCatalogTTL = 5 * time.Minute

// CatalogService serves the product catalog. Listings go through an
// explicit TTL cache owned by this instance; the clock is injected so
// tests control freshness.
type CatalogService struct {
	db  *sql.DB
	log *zap.Logger
	now Clock
	ttl time.Duration

	mu        sync.Mutex
	cached    []models.Product
	fetchedAt time.Time
}

func NewCatalogService(db *sql.DB, log *zap.Logger, now Clock, ttl time.Duration) *CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogService{db: db, log: log, now: now, ttl: ttl}
}

const productColumns = `id, name, description, price, original_price, category, sizes,
	image_url, stock, is_active, created_at, updated_at`

// List returns the active products, served from the cache while fresh.
func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	if s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		products := s.cached
		s.mu.Unlock()
		return products, nil
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active = true ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	s.mu.Lock()
	s.cached = products
	s.fetchedAt = s.now()
	s.mu.Unlock()

	return products, nil
}

// Get returns one product, bypassing the cache so detail pages always
// show current stock.
func (s *CatalogService) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p models.Product
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID,
	)
	if err := scanProduct(row, &p); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &p, nil
}

// Create adds a product (back-office).
func (s *CatalogService) Create(ctx context.Context, p *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p.ID = uuid.New()
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.IsActive = true
	if p.Sizes == nil {
		p.Sizes = pq.StringArray{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, original_price, category, sizes,
		                       image_url, stock, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Category,
		p.Sizes, p.ImageURL, p.Stock, p.IsActive, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidate()
	s.log.Info("product created", zap.String("product_id", p.ID.String()), zap.String("name", p.Name))
	return nil
}

// Update edits a product (back-office).
func (s *CatalogService) Update(ctx context.Context, p *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if p.Sizes == nil {
		p.Sizes = pq.StringArray{}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = $1, description = $2, price = $3, original_price = $4,
		        category = $5, sizes = $6, image_url = $7, stock = $8, is_active = $9, updated_at = $10
		 WHERE id = $11`,
		p.Name, p.Description, p.Price, p.OriginalPrice, p.Category,
		p.Sizes, p.ImageURL, p.Stock, p.IsActive, s.now(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to verify update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.invalidate()
	return nil
}

// Archive deactivates a product so it stops appearing in listings while
// past orders keep referencing it.
func (s *CatalogService) Archive(ctx context.Context, productID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET is_active = false, updated_at = $1 WHERE id = $2`,
		s.now(), productID,
	)
	if err != nil {
		return fmt.Errorf("failed to archive product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to verify archive: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.invalidate()
	return nil
}

func (s *CatalogService) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

func scanProduct(row rowScanner, p *models.Product) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice,
		&p.Category, &p.Sizes, &p.ImageURL, &p.Stock, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
}
