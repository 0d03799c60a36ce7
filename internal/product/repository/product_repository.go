package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cartline/internal/domain"
	"cartline/internal/errors"
)

type MySQLProductRepository struct {
	db *sql.DB
}

func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

const productColumns = `id, item_id, name, name_eng, cost, effect, text, sprite, category, created, updated`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.ItemID, &p.Name, &p.NameEng, &p.Cost,
		&p.Effect, &p.Text, &p.Sprite, &p.Category,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MySQLProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM product WHERE id = ?`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by id: %w", err)
	}

	return product, nil
}

// FindByIDForShare reads the product under a shared lock so it cannot be
// deleted before the referencing item is committed.
func (r *MySQLProductRepository) FindByIDForShare(ctx context.Context, tx *sql.Tx, id uint) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM product WHERE id = ? LOCK IN SHARE MODE`

	product, err := scanProduct(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product for share: %w", err)
	}

	return product, nil
}

func (r *MySQLProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM product ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

func (r *MySQLProductRepository) Insert(ctx context.Context, p domain.Product) (uint, error) {
	query := `
		INSERT INTO product (item_id, name, name_eng, cost, effect, text, sprite, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, p.ItemID, p.Name, p.NameEng, p.Cost, p.Effect, p.Text, p.Sprite, p.Category)
	if err != nil {
		return 0, fmt.Errorf("inserting product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(id), nil
}

// Update writes every catalog field of p. The row is addressed by p.ID.
func (r *MySQLProductRepository) Update(ctx context.Context, tx *sql.Tx, p domain.Product) error {
	query := `
		UPDATE product
		SET item_id = ?, name = ?, name_eng = ?, cost = ?, effect = ?, text = ?, sprite = ?, category = ?
		WHERE id = ?
	`

	if _, err := tx.ExecContext(ctx, query, p.ItemID, p.Name, p.NameEng, p.Cost, p.Effect, p.Text, p.Sprite, p.Category, p.ID); err != nil {
		return fmt.Errorf("updating product: %w", err)
	}

	return nil
}

// FindByIDForUpdate locks the product row for a read-modify-write update.
func (r *MySQLProductRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM product WHERE id = ? FOR UPDATE`

	product, err := scanProduct(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product for update: %w", err)
	}

	return product, nil
}

// Delete removes the product; its items go with it through the FK cascade.
func (r *MySQLProductRepository) Delete(ctx context.Context, id uint) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}

	return nil
}
