package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddressService owns the address book. The one-default-per-user
// invariant is enforced by a clear-then-set pair inside a transaction.
type AddressService struct {
	db  *sql.DB
	log *zap.Logger
	now Clock
}

func NewAddressService(db *sql.DB, log *zap.Logger, now Clock) *AddressService {
	return &AddressService{db: db, log: log, now: now}
}

const addressColumns = `id, user_id, label, recipient_name, phone, address_line1, address_line2,
	city, state, postal_code, country, is_default, created_at, updated_at`

// List returns the user's addresses, default first.
func (s *AddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses
		 WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch addresses: %w", err)
	}
	defer rows.Close()

	var addresses []models.Address
	for rows.Next() {
		var a models.Address
		if err := scanAddress(rows, &a); err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// Get returns one address owned by the user.
func (s *AddressService) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var a models.Address
	row := s.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`,
		addressID, userID,
	)
	if err := scanAddress(row, &a); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load address: %w", err)
	}
	return &a, nil
}

// Create adds an address. The user's first address becomes the default.
// An explicit default demotes the current one inside the same
// transaction, keeping at most one default per user.
func (s *AddressService) Create(ctx context.Context, a *models.Address) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM addresses WHERE user_id = $1`, a.UserID,
	).Scan(&count); err != nil {
		return fmt.Errorf("failed to count addresses: %w", err)
	}
	if count == 0 {
		a.IsDefault = true
	}

	now := s.now()
	if a.IsDefault && count > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE addresses SET is_default = false, updated_at = $1 WHERE user_id = $2 AND is_default = true`,
			now, a.UserID,
		); err != nil {
			return fmt.Errorf("failed to clear default: %w", err)
		}
	}

	a.ID = uuid.New()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`INSERT INTO addresses (id, user_id, label, recipient_name, phone, address_line1, address_line2,
		                        city, state, postal_code, country, is_default, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		a.ID, a.UserID, a.Label, a.RecipientName, a.Phone, a.AddressLine1, a.AddressLine2,
		a.City, a.State, a.PostalCode, a.Country, a.IsDefault, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit address: %w", err)
	}
	return nil
}

// Update edits an address owned by the user.
func (s *AddressService) Update(ctx context.Context, a *models.Address) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE addresses SET label = $1, recipient_name = $2, phone = $3, address_line1 = $4,
		        address_line2 = $5, city = $6, state = $7, postal_code = $8, country = $9,
		        updated_at = $10
		 WHERE id = $11 AND user_id = $12`,
		a.Label, a.RecipientName, a.Phone, a.AddressLine1, a.AddressLine2,
		a.City, a.State, a.PostalCode, a.Country, s.now(), a.ID, a.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
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

// Delete removes an address owned by the user.
func (s *AddressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2`,
		addressID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
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

// SetDefault marks one address as the default. The clear and the set run
// in one transaction so exactly one default survives.
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default = false, updated_at = $1 WHERE user_id = $2 AND is_default = true`,
		now, userID,
	); err != nil {
		return fmt.Errorf("failed to clear default: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default = true, updated_at = $1 WHERE id = $2 AND user_id = $3`,
		now, addressID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set default: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to verify default: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit default change: %w", err)
	}

	s.log.Debug("default address changed",
		zap.String("user_id", userID.String()),
		zap.String("address_id", addressID.String()))
	return nil
}

func scanAddress(row rowScanner, a *models.Address) error {
	return row.Scan(
		&a.ID, &a.UserID, &a.Label, &a.RecipientName, &a.Phone,
		&a.AddressLine1, &a.AddressLine2, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
	)
}
