package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartline/internal/domain"
	"cartline/internal/errors"
	"cartline/internal/testutil"
)

// Unit Tests

func TestProductRepository_Delete_NotFoundMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM product").WithArgs(uint(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewMySQLProductRepository(db).Delete(context.Background(), 9)

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Integration Tests

func TestProductRepository_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	repo := NewMySQLProductRepository(db)

	id, err := repo.Insert(ctx, domain.Product{
		ItemID:   17,
		Name:     "Potion",
		NameEng:  "Potion",
		Cost:     300,
		Effect:   "Restores 20 HP",
		Text:     "A spray-type medicine.",
		Sprite:   "potion.png",
		Category: "medicine",
	})
	require.NoError(t, err)

	p, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 17, p.ItemID)
	assert.Equal(t, int64(300), p.Cost)
	assert.Equal(t, "medicine", p.Category)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	locked, err := repo.FindByIDForUpdate(ctx, tx, id)
	require.NoError(t, err)
	cost := int64(350)
	require.NoError(t, repo.Update(ctx, tx, locked.Apply(domain.ProductUpdate{Cost: &cost})))
	require.NoError(t, tx.Commit())

	p, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(350), p.Cost)
	assert.Equal(t, "Potion", p.Name)

	products, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.FindByID(ctx, id)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestProductRepository_DeleteCascadesToItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	userID := testutil.InsertUser(t, db, "alice")
	productID := testutil.InsertProduct(t, db, "Potion", 300)

	res, err := db.Exec("INSERT INTO `order` (user_id, status) VALUES (?, 'OPEN')", userID)
	require.NoError(t, err)
	orderID, err := res.LastInsertId()
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO item (order_id, product_id, quantity) VALUES (?, ?, 1)", orderID, productID)
	require.NoError(t, err)

	require.NoError(t, NewMySQLProductRepository(db).Delete(ctx, productID))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM item WHERE order_id = ?", orderID).Scan(&count))
	assert.Zero(t, count)
}
