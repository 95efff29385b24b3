package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-backend/internal/models"
)

const merchantColumns = `id, name, owner_id, description, phone, email, address, status, created_at, updated_at`

// ListMerchants returns every merchant in id order.
func (s *Store) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	merchants := []models.Merchant{}
	err := s.db.SelectContext(ctx, &merchants, "SELECT "+merchantColumns+" FROM merchants ORDER BY id")
	return merchants, err
}

// GetMerchantByID retrieves a merchant by ID
func (s *Store) GetMerchantByID(ctx context.Context, id int64) (*models.Merchant, error) {
	var m models.Merchant
	err := s.db.GetContext(ctx, &m, "SELECT "+merchantColumns+" FROM merchants WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMerchant inserts a merchant and fills in its id and timestamps.
func (s *Store) CreateMerchant(ctx context.Context, m *models.Merchant) error {
	query := `
		INSERT INTO merchants (name, owner_id, description, phone, email, address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		m.Name, m.OwnerID, m.Description, m.Phone, m.Email, m.Address, m.Status).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert merchant: %w", err)
	}
	return nil
}

// UpdateMerchant overwrites every mutable column of m.ID.
func (s *Store) UpdateMerchant(ctx context.Context, m *models.Merchant) error {
	query := `
		UPDATE merchants
		SET name = $1, owner_id = $2, description = $3, phone = $4, email = $5,
		    address = $6, status = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		m.Name, m.OwnerID, m.Description, m.Phone, m.Email, m.Address, m.Status, m.ID).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update merchant: %w", err)
	}
	return nil
}

// DeleteMerchant removes a merchant. Products keep their merchant_id.
func (s *Store) DeleteMerchant(ctx context.Context, id int64) error {
	return expectOne(s.db.ExecContext(ctx, "DELETE FROM merchants WHERE id = $1", id))
}
