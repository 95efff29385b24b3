package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

const (
	orderColumns     = `id, user_id, total_price, status, created_at, updated_at`
	orderItemColumns = `id, order_id, product_id, quantity, price, created_at`
)

// CreateOrderTx persists the order header and all of its items in one
// transaction. On success order and items carry their generated ids; on
// failure nothing is written.
func (s *Store) CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO orders (user_id, total_price, status)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at`,
			order.UserID, order.TotalPrice, order.Status).
			Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range items {
			item := &items[i]
			item.OrderID = order.ID
			err := tx.QueryRowxContext(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, price)
				VALUES ($1, $2, $3, $4)
				RETURNING id, created_at`,
				item.OrderID, item.ProductID, item.Quantity, item.Price).
				Scan(&item.ID, &item.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert item %d: %w", i, err)
			}
		}
		return nil
	})
}

// ListOrders returns every order header in insertion order.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders, "SELECT "+orderColumns+" FROM orders ORDER BY id")
	return orders, err
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT "+orderItemColumns+" FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// GetOrderItemByID retrieves a single order line. Only tests read lines
// individually: they use it to check that deleting an order removes its
// items.
func (s *Store) GetOrderItemByID(ctx context.Context, id int64) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.db.GetContext(ctx, &item, "SELECT "+orderItemColumns+" FROM order_items WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetOrderAggregate loads an order header with its items.
func (s *Store) GetOrderAggregate(ctx context.Context, id int64) (*models.OrderAggregate, error) {
	order, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.GetOrderItemsByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.OrderAggregate{Order: *order, Items: items}, nil
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	return expectOne(s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID))
}

// DeleteOrder removes an order together with its items.
func (s *Store) DeleteOrder(ctx context.Context, orderID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID); err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		return expectOne(tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID))
	})
}
