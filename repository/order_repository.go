package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"boulangerie/db"
	"boulangerie/logging"
	"boulangerie/models"
)

const orderColumns = `id::text, subtotal, discount, shipping_fee, total_price,
	customer_name, customer_phone, customer_address, status, notes, created_at, updated_at`

// InitialHistoryComment is recorded when an order is created
const InitialHistoryComment = "Order created"

// OrderRepository handles database operations for orders
type OrderRepository struct{}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

// Ensure OrderRepository implements OrderRepositoryInterface
var _ OrderRepositoryInterface = (*OrderRepository)(nil)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// StatusComment is the history comment used when none is supplied
func StatusComment(status string) string {
	return fmt.Sprintf("Status changed to %q", status)
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.Subtotal, &o.Discount, &o.ShippingFee, &o.TotalPrice,
		&o.Customer.Name, &o.Customer.Phone, &o.Customer.Address,
		&o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create persists an order with its lines and initial history entry
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	logging.L().Infof("📦 CreateOrder: customer=%s, lines=%d, total=%s",
		order.Customer.Name, len(order.Lines), order.TotalPrice.StringFixed(2))

	if len(order.Lines) == 0 {
		return nil, fmt.Errorf("order must contain at least one line")
	}

	created := *order
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.Status = strings.TrimSpace(created.Status)
	if created.Status == "" {
		created.Status = models.StatusPending
	}

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, subtotal, discount, shipping_fee, total_price,
			customer_name, customer_phone, customer_address, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		created.ID, created.Subtotal, created.Discount, created.ShippingFee, created.TotalPrice,
		created.Customer.Name, created.Customer.Phone, created.Customer.Address,
		created.Status, created.Notes,
	).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		logging.L().Errorf("❌ CreateOrder: Error inserting order: %v", err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i, line := range order.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, product_id, name, image, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			created.ID, i, line.ProductID, line.Name, line.Image, line.Price, line.Quantity)
		if err != nil {
			logging.L().Errorf("❌ CreateOrder: Error inserting line %d: %v", i, err)
			return nil, fmt.Errorf("failed to create order line: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_history (order_id, status, comment, created_at)
		VALUES ($1, $2, $3, $4)`,
		created.ID, created.Status, InitialHistoryComment, created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	created.Lines = append([]models.OrderLine(nil), order.Lines...)
	created.History = []models.HistoryEvent{{
		Status:  created.Status,
		Date:    created.CreatedAt,
		Comment: InitialHistoryComment,
	}}

	logging.L().Infof("✓ Order created: id=%s", created.ID)
	return &created, nil
}

func loadOrderDetails(ctx context.Context, q querier, order *models.Order) error {
	rows, err := q.QueryContext(ctx, `
		SELECT product_id, name, image, price, quantity
		FROM order_lines WHERE order_id = $1 ORDER BY position`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}
	order.Lines = []models.OrderLine{}
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Image, &l.Price, &l.Quantity); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate order lines: %w", err)
	}
	rows.Close()

	rows, err = q.QueryContext(ctx, `
		SELECT status, created_at, comment
		FROM order_history WHERE order_id = $1 ORDER BY created_at, id`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order history: %w", err)
	}
	defer rows.Close()
	order.History = []models.HistoryEvent{}
	for rows.Next() {
		var h models.HistoryEvent
		if err := rows.Scan(&h.Status, &h.Date, &h.Comment); err != nil {
			return fmt.Errorf("failed to scan order history: %w", err)
		}
		order.History = append(order.History, h)
	}
	return rows.Err()
}

// GetByID retrieves an order with its lines and history
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	order, err := scanOrder(db.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		logging.L().Errorf("❌ Error fetching order %s: %v", id, err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if err := loadOrderDetails(ctx, db.DB, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logging.L().Errorf("❌ Error listing orders: %v", err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	rows.Close()

	for i := range orders {
		if err := loadOrderDetails(ctx, db.DB, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// List retrieves every order, newest first
func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	orders, err := r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	logging.L().Debugf("✓ Listed %d orders", len(orders))
	return orders, nil
}

// ListSince retrieves orders created at or after since, newest first
func (r *OrderRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE created_at >= $1 ORDER BY created_at DESC LIMIT $2`, since, limit)
}

// UpdateStatus sets the order status and appends a history entry
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status string, comment string) (*models.Order, error) {
	logging.L().Infof("📦 UpdateOrderStatus: id=%s, status=%s", id, status)

	if strings.TrimSpace(comment) == "" {
		comment = StatusComment(status)
	}

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var updatedAt time.Time
	err = tx.QueryRowContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		id, status).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		logging.L().Errorf("❌ UpdateOrderStatus: Error updating order %s: %v", id, err)
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_history (order_id, status, comment, created_at) VALUES ($1, $2, $3, $4)`,
		id, status, comment, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append order history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Delete removes an order and its lines
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res, err := db.DB.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		logging.L().Errorf("❌ Error deleting order %s: %v", id, err)
		return fmt.Errorf("failed to delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	logging.L().Infof("✓ Order deleted: id=%s", id)
	return nil
}

// DeleteAll removes every order and returns how many were deleted
func (r *OrderRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := db.DB.ExecContext(ctx, `DELETE FROM orders`)
	if err != nil {
		logging.L().Errorf("❌ Error deleting orders: %v", err)
		return 0, fmt.Errorf("failed to delete orders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete orders: %w", err)
	}
	logging.L().Infof("✓ Deleted %d orders", n)
	return n, nil
}
