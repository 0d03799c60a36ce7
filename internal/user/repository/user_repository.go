package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cartline/internal/domain"
	"cartline/internal/errors"
)

type MySQLUserRepository struct {
	db *sql.DB
}

func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

const userColumns = `id, username, password_hash, is_ordering, current_order_id, created, updated`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var currentOrderID sql.NullInt64
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsOrdering, &currentOrderID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if currentOrderID.Valid {
		id := uint(currentOrderID.Int64)
		u.CurrentOrderID = &id
	}
	return &u, nil
}

func (r *MySQLUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM ` + "`user`" + ` WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("user with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}

	return user, nil
}

// FindByIDForUpdate locks the user row until tx ends. Every cart mutation takes
// this lock first so operations on one user's cart run one at a time.
func (r *MySQLUserRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM ` + "`user`" + ` WHERE id = ? FOR UPDATE`

	user, err := scanUser(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("user with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying user for update: %w", err)
	}

	return user, nil
}

func (r *MySQLUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM ` + "`user`" + ` WHERE username = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("user %q not found", username))
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by username: %w", err)
	}

	return user, nil
}

func (r *MySQLUserRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM ` + "`user`" + ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

// Insert stores a new idle user. A duplicate username surfaces as the driver's 1062 error.
func (r *MySQLUserRepository) Insert(ctx context.Context, username, passwordHash string) (uint, error) {
	query := "INSERT INTO `user` (username, password_hash, is_ordering) VALUES (?, ?, 0)"

	result, err := r.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(id), nil
}

// UpdateCartState persists is_ordering and current_order_id.
func (r *MySQLUserRepository) UpdateCartState(ctx context.Context, tx *sql.Tx, user domain.User) error {
	query := "UPDATE `user` SET is_ordering = ?, current_order_id = ? WHERE id = ?"

	var currentOrderID interface{}
	if user.CurrentOrderID != nil {
		currentOrderID = *user.CurrentOrderID
	}

	result, err := tx.ExecContext(ctx, query, user.IsOrdering, currentOrderID, user.ID)
	if err != nil {
		return fmt.Errorf("updating user cart state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	// MySQL reports 0 affected rows when values are unchanged, so only a
	// missing row is NotFound here; callers hold the row lock.
	if rowsAffected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM `user` WHERE id = ?", user.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError(fmt.Sprintf("user with id %d not found", user.ID))
		}
		if err != nil {
			return fmt.Errorf("checking user existence: %w", err)
		}
	}

	return nil
}
