package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cartline/internal/domain"
	"cartline/internal/errors"
)

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrderWithUser(row rowScanner) (*domain.Order, *domain.UserSummary, error) {
	var o domain.Order
	var u domain.UserSummary
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.CreatedAt, &o.UpdatedAt, &u.ID, &u.Username); err != nil {
		return nil, nil, err
	}
	return &o, &u, nil
}

const orderWithUserQuery = "SELECT o.id, o.user_id, o.status, o.created, o.updated, u.id, u.username " +
	"FROM `order` o JOIN `user` u ON u.id = o.user_id"

// FindByIDWithUser returns the order together with its owner.
func (r *MySQLOrderRepository) FindByIDWithUser(ctx context.Context, id uint) (*domain.Order, *domain.UserSummary, error) {
	query := orderWithUserQuery + " WHERE o.id = ?"

	order, user, err := scanOrderWithUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("querying order by id: %w", err)
	}

	return order, user, nil
}

// List returns every order with its owner. Items are not loaded.
func (r *MySQLOrderRepository) List(ctx context.Context) ([]domain.OrderDetails, error) {
	rows, err := r.db.QueryContext(ctx, orderWithUserQuery+" ORDER BY o.id")
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.OrderDetails{}
	for rows.Next() {
		o, u, err := scanOrderWithUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, domain.OrderDetails{Order: *o, User: *u})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	return orders, nil
}

// Insert creates an OPEN order owned by userID.
func (r *MySQLOrderRepository) Insert(ctx context.Context, tx *sql.Tx, userID uint) (uint, error) {
	query := "INSERT INTO `order` (user_id, status) VALUES (?, ?)"

	result, err := tx.ExecContext(ctx, query, userID, domain.OrderStatusOpen)
	if err != nil {
		return 0, fmt.Errorf("inserting order: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

func (r *MySQLOrderRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
	query := "SELECT id, user_id, status, created, updated FROM `order` WHERE id = ? FOR UPDATE"

	var o domain.Order
	err := tx.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.UserID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order for update: %w", err)
	}

	return &o, nil
}

func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uint, status string) error {
	query := "UPDATE `order` SET status = ? WHERE id = ?"

	result, err := tx.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	return nil
}

// Delete removes the order and, through the FK cascade, its items.
func (r *MySQLOrderRepository) Delete(ctx context.Context, tx *sql.Tx, id uint) error {
	result, err := tx.ExecContext(ctx, "DELETE FROM `order` WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	return nil
}
