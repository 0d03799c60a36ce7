package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cartline/internal/domain"
	apperrors "cartline/internal/errors"
)

// Mock implementations

type mockUserRepository struct {
	FindByIDForUpdateFunc func(ctx context.Context, tx *sql.Tx, id uint) (*domain.User, error)
	UpdateCartStateFunc   func(ctx context.Context, tx *sql.Tx, user domain.User) error
}

func (m *mockUserRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.User, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, id)
}

func (m *mockUserRepository) UpdateCartState(ctx context.Context, tx *sql.Tx, user domain.User) error {
	return m.UpdateCartStateFunc(ctx, tx, user)
}

type mockProductRepository struct {
	FindByIDForShareFunc func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Product, error)
}

func (m *mockProductRepository) FindByIDForShare(ctx context.Context, tx *sql.Tx, id uint) (*domain.Product, error) {
	return m.FindByIDForShareFunc(ctx, tx, id)
}

type mockOrderRepository struct {
	InsertFunc            func(ctx context.Context, tx *sql.Tx, userID uint) (uint, error)
	FindByIDForUpdateFunc func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error)
	UpdateStatusFunc      func(ctx context.Context, tx *sql.Tx, id uint, status string) error
	DeleteFunc            func(ctx context.Context, tx *sql.Tx, id uint) error
}

func (m *mockOrderRepository) Insert(ctx context.Context, tx *sql.Tx, userID uint) (uint, error) {
	return m.InsertFunc(ctx, tx, userID)
}

func (m *mockOrderRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, id)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uint, status string) error {
	return m.UpdateStatusFunc(ctx, tx, id, status)
}

func (m *mockOrderRepository) Delete(ctx context.Context, tx *sql.Tx, id uint) error {
	return m.DeleteFunc(ctx, tx, id)
}

type mockItemRepository struct {
	InsertFunc                         func(ctx context.Context, tx *sql.Tx, item domain.Item) (uint, error)
	FindByOrderAndProductForUpdateFunc func(ctx context.Context, tx *sql.Tx, orderID, productID uint) (*domain.Item, error)
	UpdateQuantityFunc                 func(ctx context.Context, tx *sql.Tx, itemID uint, quantity int) error
	DeleteFunc                         func(ctx context.Context, tx *sql.Tx, itemID uint) error
	ListByOrderTxFunc                  func(ctx context.Context, tx *sql.Tx, orderID uint) ([]domain.LineItem, error)
}

func (m *mockItemRepository) Insert(ctx context.Context, tx *sql.Tx, item domain.Item) (uint, error) {
	return m.InsertFunc(ctx, tx, item)
}

func (m *mockItemRepository) FindByOrderAndProductForUpdate(ctx context.Context, tx *sql.Tx, orderID, productID uint) (*domain.Item, error) {
	return m.FindByOrderAndProductForUpdateFunc(ctx, tx, orderID, productID)
}

func (m *mockItemRepository) UpdateQuantity(ctx context.Context, tx *sql.Tx, itemID uint, quantity int) error {
	return m.UpdateQuantityFunc(ctx, tx, itemID, quantity)
}

func (m *mockItemRepository) Delete(ctx context.Context, tx *sql.Tx, itemID uint) error {
	return m.DeleteFunc(ctx, tx, itemID)
}

func (m *mockItemRepository) ListByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint) ([]domain.LineItem, error) {
	return m.ListByOrderTxFunc(ctx, tx, orderID)
}

// fixture keeps an in-memory copy of one user's cart so mocks behave like the tables.
type fixture struct {
	user  domain.User
	order *domain.Order
	items map[uint]domain.Item // by product id

	nextOrderID uint
	nextItemID  uint
	writes      int
}

func newFixture() *fixture {
	return &fixture{
		user:        domain.User{ID: 1, Username: "alice"},
		items:       map[uint]domain.Item{},
		nextOrderID: 100,
		nextItemID:  500,
	}
}

func (f *fixture) repos() (*mockUserRepository, *mockProductRepository, *mockOrderRepository, *mockItemRepository) {
	userRepo := &mockUserRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id uint) (*domain.User, error) {
			if id != f.user.ID {
				return nil, apperrors.NewNotFoundError("user not found")
			}
			u := f.user
			return &u, nil
		},
		UpdateCartStateFunc: func(ctx context.Context, tx *sql.Tx, user domain.User) error {
			f.writes++
			f.user = user
			return nil
		},
	}

	productRepo := &mockProductRepository{
		FindByIDForShareFunc: func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Product, error) {
			if id == 404 {
				return nil, apperrors.NewNotFoundError("product with id 404 not found")
			}
			return &domain.Product{ID: id, Name: "Potion", Cost: 300}, nil
		},
	}

	orderRepo := &mockOrderRepository{
		InsertFunc: func(ctx context.Context, tx *sql.Tx, userID uint) (uint, error) {
			f.writes++
			f.nextOrderID++
			f.order = &domain.Order{ID: f.nextOrderID, UserID: userID, Status: domain.OrderStatusOpen}
			return f.nextOrderID, nil
		},
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
			if f.order == nil || f.order.ID != id {
				return nil, apperrors.NewNotFoundError("order not found")
			}
			o := *f.order
			return &o, nil
		},
		UpdateStatusFunc: func(ctx context.Context, tx *sql.Tx, id uint, status string) error {
			f.writes++
			f.order.Status = status
			return nil
		},
		DeleteFunc: func(ctx context.Context, tx *sql.Tx, id uint) error {
			f.writes++
			f.order = nil
			f.items = map[uint]domain.Item{}
			return nil
		},
	}

	itemRepo := &mockItemRepository{
		InsertFunc: func(ctx context.Context, tx *sql.Tx, item domain.Item) (uint, error) {
			f.writes++
			f.nextItemID++
			item.ID = f.nextItemID
			f.items[item.ProductID] = item
			return item.ID, nil
		},
		FindByOrderAndProductForUpdateFunc: func(ctx context.Context, tx *sql.Tx, orderID, productID uint) (*domain.Item, error) {
			item, ok := f.items[productID]
			if !ok || item.OrderID != orderID {
				return nil, apperrors.NewNotFoundError("item not found")
			}
			return &item, nil
		},
		UpdateQuantityFunc: func(ctx context.Context, tx *sql.Tx, itemID uint, quantity int) error {
			f.writes++
			for pid, item := range f.items {
				if item.ID == itemID {
					f.items[pid] = item.WithQuantity(quantity)
				}
			}
			return nil
		},
		DeleteFunc: func(ctx context.Context, tx *sql.Tx, itemID uint) error {
			f.writes++
			for pid, item := range f.items {
				if item.ID == itemID {
					delete(f.items, pid)
				}
			}
			return nil
		},
		ListByOrderTxFunc: func(ctx context.Context, tx *sql.Tx, orderID uint) ([]domain.LineItem, error) {
			var out []domain.LineItem
			for _, item := range f.items {
				if item.OrderID == orderID {
					out = append(out, domain.LineItem{Item: item, Product: domain.Product{ID: item.ProductID, Cost: 300}})
				}
			}
			return out, nil
		},
	}

	return userRepo, productRepo, orderRepo, itemRepo
}

func newTestCartService(t *testing.T, f *fixture) (*CartService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo, productRepo, orderRepo, itemRepo := f.repos()
	svc := NewCartService(db, userRepo, productRepo, orderRepo, itemRepo, zap.NewNop(), 5*time.Second)
	return svc, mock
}

// Tests

func TestAddItem_FirstAddOpensOrder(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()

	item, err := svc.AddItem(context.Background(), 1, 7, 2)

	require.NoError(t, err)
	assert.Equal(t, uint(101), item.OrderID)
	assert.Equal(t, uint(7), item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.NotZero(t, item.ID)

	assert.True(t, f.user.IsOrdering)
	require.NotNil(t, f.user.CurrentOrderID)
	assert.Equal(t, uint(101), *f.user.CurrentOrderID)
	assert.Len(t, f.items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_SecondAddReusesOrder(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	first, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)
	second, err := svc.AddItem(context.Background(), 1, 8, 1)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, uint(101), f.nextOrderID, "only one order is created")
	assert.Len(t, f.items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_DuplicateProductConflicts(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), 1, 7, 3)

	ce, ok := apperrors.IsConflictError(err)
	require.True(t, ok, "expected ConflictError, got %T", err)
	assert.Equal(t, "productId", ce.Field)
	assert.Len(t, f.items, 1)
	assert.Equal(t, 2, f.items[7].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_ProductNotFoundRollsBack(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 1, 404, 1)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok, "expected NotFoundError, got %T", err)
	// order creation happened inside the rolled back transaction
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_UserNotFound(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 99, 7, 1)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.Zero(t, f.writes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_InsertFailureRollsBack(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	userRepo, productRepo, orderRepo, itemRepo := f.repos()
	itemRepo.InsertFunc = func(ctx context.Context, tx *sql.Tx, item domain.Item) (uint, error) {
		return 0, errors.New("inserting item: connection reset")
	}
	svc.userRepo, svc.productRepo, svc.orderRepo, svc.itemRepo = userRepo, productRepo, orderRepo, itemRepo

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 1, 7, 1)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_SubmittedOrderReferenced(t *testing.T) {
	f := newFixture()
	orderID := uint(50)
	f.user = f.user.StartOrdering(orderID)
	f.order = &domain.Order{ID: orderID, UserID: 1, Status: domain.OrderStatusSubmitted}
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 1, 7, 1)

	_, ok := apperrors.IsPreconditionFailedError(err)
	assert.True(t, ok, "expected PreconditionFailedError, got %T", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_BeginFails(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := svc.AddItem(context.Background(), 1, 7, 1)

	assert.Error(t, err)
	assert.Zero(t, f.writes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_CommitFails(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("commit failed"))

	item, err := svc.AddItem(context.Background(), 1, 7, 1)

	assert.Error(t, err)
	assert.Nil(t, item)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditItem_UpdatesQuantity(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)

	item, err := svc.EditItem(context.Background(), 1, 7, 5)

	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 5, f.items[7].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditItem_IdleUser(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.EditItem(context.Background(), 1, 7, 5)

	_, ok := apperrors.IsPreconditionFailedError(err)
	assert.True(t, ok, "expected PreconditionFailedError, got %T", err)
	assert.Zero(t, f.writes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditItem_ItemMissing(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)

	_, err = svc.EditItem(context.Background(), 1, 8, 5)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok, "expected NotFoundError, got %T", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveItem_LastItemKeepsOrderOpen(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)

	err = svc.RemoveItem(context.Background(), 1, 7)

	require.NoError(t, err)
	assert.Empty(t, f.items)
	assert.True(t, f.user.IsOrdering)
	assert.Equal(t, domain.OrderStatusOpen, f.order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveItem_IdleUser(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := svc.RemoveItem(context.Background(), 1, 7)

	_, ok := apperrors.IsPreconditionFailedError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveItem_ItemMissing(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)

	err = svc.RemoveItem(context.Background(), 1, 9)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.Len(t, f.items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitOrder_IdleUserPerformsNoWrites(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectRollback()

	details, err := svc.SubmitOrder(context.Background(), 1)

	assert.Nil(t, details)
	_, ok := apperrors.IsPreconditionFailedError(err)
	assert.True(t, ok, "expected PreconditionFailedError, got %T", err)
	assert.Zero(t, f.writes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitOrder_EmptyOrder(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveItem(context.Background(), 1, 7))

	_, err = svc.SubmitOrder(context.Background(), 1)

	pe, ok := apperrors.IsPreconditionFailedError(err)
	require.True(t, ok, "expected PreconditionFailedError, got %T", err)
	assert.Equal(t, "cannot submit empty order", pe.Message)
	assert.True(t, f.user.IsOrdering)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitOrder_Success(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	added, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)

	details, err := svc.SubmitOrder(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, added.OrderID, details.Order.ID)
	assert.Equal(t, domain.OrderStatusSubmitted, details.Order.Status)
	assert.Equal(t, "alice", details.User.Username)
	assert.Len(t, details.Items, 1)
	assert.Equal(t, int64(600), details.Total())

	assert.False(t, f.user.IsOrdering)
	require.NotNil(t, f.user.CurrentOrderID)
	assert.Equal(t, added.OrderID, *f.user.CurrentOrderID, "last order reference is kept")
	assert.Equal(t, domain.OrderStatusSubmitted, f.order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitOrder_ThenEditFails(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)
	_, err = svc.SubmitOrder(context.Background(), 1)
	require.NoError(t, err)

	_, err = svc.EditItem(context.Background(), 1, 7, 9)

	_, ok := apperrors.IsPreconditionFailedError(err)
	assert.True(t, ok)
	assert.Equal(t, 2, f.items[7].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitOrder_AddAfterSubmitOpensNewOrder(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	first, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)
	_, err = svc.SubmitOrder(context.Background(), 1)
	require.NoError(t, err)

	second, err := svc.AddItem(context.Background(), 1, 7, 1)

	require.NoError(t, err)
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Equal(t, second.OrderID, *f.user.CurrentOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveOrder_OpenOrderRefused(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	item, err := svc.AddItem(context.Background(), 1, 7, 2)
	require.NoError(t, err)

	err = svc.RemoveOrder(context.Background(), item.OrderID)

	_, ok := apperrors.IsPreconditionFailedError(err)
	assert.True(t, ok)
	assert.NotNil(t, f.order)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveOrder_SubmittedOrder(t *testing.T) {
	f := newFixture()
	f.order = &domain.Order{ID: 70, UserID: 1, Status: domain.OrderStatusSubmitted}
	f.items[7] = domain.Item{ID: 1, OrderID: 70, ProductID: 7, Quantity: 1}
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectCommit()

	err := svc.RemoveOrder(context.Background(), 70)

	require.NoError(t, err)
	assert.Nil(t, f.order)
	assert.Empty(t, f.items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveOrder_NotFound(t *testing.T) {
	f := newFixture()
	svc, mock := newTestCartService(t, f)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := svc.RemoveOrder(context.Background(), 12345)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
