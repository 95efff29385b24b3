package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-backend/internal/models"
)

const productColumns = `id, name, merchant_id, description, price, stock, category, image_url, status, created_at, updated_at`

// GetProducts retrieves all products in id order
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, "SELECT "+productColumns+" FROM products ORDER BY id")
	return products, err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductIDsByMerchant lists the ids of a merchant's products.
func (s *Store) GetProductIDsByMerchant(ctx context.Context, merchantID int64) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		"SELECT id FROM products WHERE merchant_id = $1 ORDER BY id", merchantID)
	return ids, err
}

// CreateProduct inserts a product and fills in its id and timestamps.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, merchant_id, description, price, stock, category, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		p.Name, p.MerchantID, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// UpdateProduct overwrites every mutable column of p.ID.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, merchant_id = $2, description = $3, price = $4, stock = $5,
		    category = $6, image_url = $7, status = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		p.Name, p.MerchantID, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.Status, p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// DeleteProduct removes a product. Order items keep their product_id.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return expectOne(s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id))
}

// AdjustStock adds delta to the product's stock and returns the new level.
// The update is refused when the result would be negative.
func (s *Store) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	var stock int
	err := s.db.GetContext(ctx, &stock, `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2 AND stock + $1 >= 0
		RETURNING stock`, delta, id)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", id); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrInsufficientStock
}
