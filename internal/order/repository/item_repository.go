package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cartline/internal/domain"
	"cartline/internal/errors"
)

type MySQLItemRepository struct {
	db *sql.DB
}

func NewMySQLItemRepository(db *sql.DB) *MySQLItemRepository {
	return &MySQLItemRepository{db: db}
}

func notFoundItem(orderID, productID uint) error {
	return errors.NewNotFoundError(fmt.Sprintf("item for product %d not found in order %d", productID, orderID))
}

func (r *MySQLItemRepository) Insert(ctx context.Context, tx *sql.Tx, item domain.Item) (uint, error) {
	query := `INSERT INTO item (order_id, product_id, quantity) VALUES (?, ?, ?)`

	result, err := tx.ExecContext(ctx, query, item.OrderID, item.ProductID, item.Quantity)
	if err != nil {
		return 0, fmt.Errorf("inserting item: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

// FindByOrderAndProductForUpdate locks the (order, product) item row. The
// locking read also takes a gap lock when the row is absent, which keeps a
// concurrent insert of the same pair out until tx ends.
func (r *MySQLItemRepository) FindByOrderAndProductForUpdate(ctx context.Context, tx *sql.Tx, orderID, productID uint) (*domain.Item, error) {
	query := `
		SELECT id, order_id, product_id, quantity, created, updated
		FROM item
		WHERE order_id = ? AND product_id = ?
		FOR UPDATE
	`

	var i domain.Item
	err := tx.QueryRowContext(ctx, query, orderID, productID).Scan(
		&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.CreatedAt, &i.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, notFoundItem(orderID, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}

	return &i, nil
}

func (r *MySQLItemRepository) UpdateQuantity(ctx context.Context, tx *sql.Tx, itemID uint, quantity int) error {
	if _, err := tx.ExecContext(ctx, `UPDATE item SET quantity = ? WHERE id = ?`, quantity, itemID); err != nil {
		return fmt.Errorf("updating item quantity: %w", err)
	}
	return nil
}

func (r *MySQLItemRepository) Delete(ctx context.Context, tx *sql.Tx, itemID uint) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM item WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("item with id %d not found", itemID))
	}

	return nil
}

const lineItemQuery = `
	SELECT i.id, i.order_id, i.product_id, i.quantity, i.created, i.updated,
	       p.id, p.item_id, p.name, p.name_eng, p.cost, p.effect, p.text, p.sprite, p.category, p.created, p.updated
	FROM item i
	JOIN product p ON p.id = i.product_id
	WHERE i.order_id = ?
	ORDER BY i.id
`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func listLineItems(ctx context.Context, q queryer, orderID uint) ([]domain.LineItem, error) {
	rows, err := q.QueryContext(ctx, lineItemQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	items := []domain.LineItem{}
	for rows.Next() {
		var li domain.LineItem
		err := rows.Scan(
			&li.Item.ID, &li.Item.OrderID, &li.Item.ProductID, &li.Item.Quantity, &li.Item.CreatedAt, &li.Item.UpdatedAt,
			&li.Product.ID, &li.Product.ItemID, &li.Product.Name, &li.Product.NameEng, &li.Product.Cost,
			&li.Product.Effect, &li.Product.Text, &li.Product.Sprite, &li.Product.Category,
			&li.Product.CreatedAt, &li.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		items = append(items, li)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item rows: %w", err)
	}

	return items, nil
}

// ListByOrder returns the order's items with their products.
func (r *MySQLItemRepository) ListByOrder(ctx context.Context, orderID uint) ([]domain.LineItem, error) {
	return listLineItems(ctx, r.db, orderID)
}

// ListByOrderTx reads the items inside tx, seeing its uncommitted writes.
func (r *MySQLItemRepository) ListByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint) ([]domain.LineItem, error) {
	return listLineItems(ctx, tx, orderID)
}
