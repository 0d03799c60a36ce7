package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cartline/internal/domain"
	apperrors "cartline/internal/errors"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type UserRepository interface {
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.User, error)
	UpdateCartState(ctx context.Context, tx *sql.Tx, user domain.User) error
}

type ProductRepository interface {
	FindByIDForShare(ctx context.Context, tx *sql.Tx, id uint) (*domain.Product, error)
}

type OrderRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, userID uint) (uint, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uint, status string) error
	Delete(ctx context.Context, tx *sql.Tx, id uint) error
}

type ItemRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, item domain.Item) (uint, error)
	FindByOrderAndProductForUpdate(ctx context.Context, tx *sql.Tx, orderID, productID uint) (*domain.Item, error)
	UpdateQuantity(ctx context.Context, tx *sql.Tx, itemID uint, quantity int) error
	Delete(ctx context.Context, tx *sql.Tx, itemID uint) error
	ListByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint) ([]domain.LineItem, error)
}

// CartService runs each cart state transition as one transaction. The user row
// is locked first in every transition, which serializes concurrent calls for the
// same user and keeps lock order stable (user, order, item, product).
type CartService struct {
	db          TransactionManager
	userRepo    UserRepository
	productRepo ProductRepository
	orderRepo   OrderRepository
	itemRepo    ItemRepository
	logger      *zap.Logger
	txTimeout   time.Duration
}

func NewCartService(
	db TransactionManager,
	userRepo UserRepository,
	productRepo ProductRepository,
	orderRepo OrderRepository,
	itemRepo ItemRepository,
	logger *zap.Logger,
	txTimeout time.Duration,
) *CartService {
	return &CartService{
		db:          db,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		logger:      logger,
		txTimeout:   txTimeout,
	}
}

// inTx runs fn inside a bounded transaction and commits when fn succeeds.
// Every other exit rolls back, including a cancelled or expired context.
func (s *CartService) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	// Rollback after a successful Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Error(err))
		return err
	}

	return nil
}

// openOrder returns the user's open order, locked. A user flagged as ordering
// whose order is missing, foreign or already submitted is rejected.
func (s *CartService) openOrder(ctx context.Context, tx *sql.Tx, user *domain.User) (*domain.Order, error) {
	if !user.HasOpenOrder() {
		return nil, apperrors.NewPreconditionFailedError("order", "user has no open order")
	}

	order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, *user.CurrentOrderID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, apperrors.NewPreconditionFailedError("order", "user has no open order")
		}
		return nil, err
	}

	if !order.IsOpen() || order.UserID != user.ID {
		s.logger.Warn("user cart state points at a closed order", zap.Uint("userId", user.ID), zap.Uint("orderId", order.ID), zap.String("status", order.Status))
		return nil, apperrors.NewPreconditionFailedError("order", "order is not open")
	}

	return order, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uint, quantity int) (*domain.Item, error) {
	var created domain.Item

	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// Bloque 1: lock the user and open a cart if needed
		user, err := s.userRepo.FindByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		var orderID uint
		if user.HasOpenOrder() {
			order, err := s.openOrder(ctx, tx, user)
			if err != nil {
				return err
			}
			orderID = order.ID
		} else {
			orderID, err = s.orderRepo.Insert(ctx, tx, user.ID)
			if err != nil {
				s.logger.Error("failed to create order", zap.Uint("userId", userID), zap.Error(err))
				return err
			}

			if err := s.userRepo.UpdateCartState(ctx, tx, user.StartOrdering(orderID)); err != nil {
				s.logger.Error("failed to update user cart state", zap.Uint("userId", userID), zap.Error(err))
				return err
			}
			s.logger.Info("order opened", zap.Uint("userId", userID), zap.Uint("orderId", orderID))
		}

		// Bloque 2: validate the product and the (order, product) pair
		if _, err := s.productRepo.FindByIDForShare(ctx, tx, productID); err != nil {
			return err
		}

		existing, err := s.itemRepo.FindByOrderAndProductForUpdate(ctx, tx, orderID, productID)
		if err == nil {
			s.logger.Warn("product already in order", zap.Uint("orderId", orderID), zap.Uint("productId", productID), zap.Uint("itemId", existing.ID))
			return apperrors.NewConflictError("productId", fmt.Sprintf("product %d is already in the order, edit the item instead", productID))
		}
		if _, ok := apperrors.IsNotFoundError(err); !ok {
			return err
		}

		// Bloque 3: insert
		item := domain.Item{OrderID: orderID, ProductID: productID, Quantity: quantity}
		itemID, err := s.itemRepo.Insert(ctx, tx, item)
		if err != nil {
			s.logger.Error("failed to insert item", zap.Uint("orderId", orderID), zap.Uint("productId", productID), zap.Error(err))
			return err
		}
		item.ID = itemID
		created = item

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item added", zap.Uint("userId", userID), zap.Uint("orderId", created.OrderID), zap.Uint("productId", productID), zap.Int("quantity", quantity))
	return &created, nil
}

func (s *CartService) EditItem(ctx context.Context, userID, productID uint, quantity int) (*domain.Item, error) {
	var updated domain.Item

	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		user, err := s.userRepo.FindByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		order, err := s.openOrder(ctx, tx, user)
		if err != nil {
			return err
		}

		item, err := s.itemRepo.FindByOrderAndProductForUpdate(ctx, tx, order.ID, productID)
		if err != nil {
			return err
		}

		if err := s.itemRepo.UpdateQuantity(ctx, tx, item.ID, quantity); err != nil {
			s.logger.Error("failed to update item quantity", zap.Uint("itemId", item.ID), zap.Error(err))
			return err
		}

		updated = item.WithQuantity(quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item quantity changed", zap.Uint("userId", userID), zap.Uint("orderId", updated.OrderID), zap.Uint("productId", productID), zap.Int("quantity", quantity))
	return &updated, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uint) error {
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		user, err := s.userRepo.FindByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		order, err := s.openOrder(ctx, tx, user)
		if err != nil {
			return err
		}

		item, err := s.itemRepo.FindByOrderAndProductForUpdate(ctx, tx, order.ID, productID)
		if err != nil {
			return err
		}

		// the order stays open even when this was its last item
		return s.itemRepo.Delete(ctx, tx, item.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("item removed", zap.Uint("userId", userID), zap.Uint("productId", productID))
	return nil
}

// SubmitOrder finalizes the open order and returns it with its items.
func (s *CartService) SubmitOrder(ctx context.Context, userID uint) (*domain.OrderDetails, error) {
	var details domain.OrderDetails

	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		user, err := s.userRepo.FindByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		if !user.HasOpenOrder() {
			return apperrors.NewPreconditionFailedError("order", "no open order to submit")
		}

		order, err := s.openOrder(ctx, tx, user)
		if err != nil {
			return err
		}

		items, err := s.itemRepo.ListByOrderTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			s.logger.Warn("refusing to submit empty order", zap.Uint("userId", userID), zap.Uint("orderId", order.ID))
			return apperrors.NewPreconditionFailedError("order", "cannot submit empty order")
		}

		if err := s.userRepo.UpdateCartState(ctx, tx, user.FinishOrdering()); err != nil {
			s.logger.Error("failed to update user cart state", zap.Uint("userId", userID), zap.Error(err))
			return err
		}

		if err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, domain.OrderStatusSubmitted); err != nil {
			s.logger.Error("failed to mark order submitted", zap.Uint("orderId", order.ID), zap.Error(err))
			return err
		}

		order.Status = domain.OrderStatusSubmitted
		details = domain.OrderDetails{
			Order: *order,
			User:  domain.UserSummary{ID: user.ID, Username: user.Username},
			Items: items,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order submitted", zap.Uint("userId", userID), zap.Uint("orderId", details.Order.ID), zap.Int("itemCount", len(details.Items)))
	return &details, nil
}

// RemoveOrder deletes a submitted order and its items. Open orders are refused
// because the owner's cart state still references them.
func (s *CartService) RemoveOrder(ctx context.Context, orderID uint) error {
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if order.IsOpen() {
			return apperrors.NewPreconditionFailedError("orderId", "cannot remove an open order")
		}

		return s.orderRepo.Delete(ctx, tx, orderID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("order removed", zap.Uint("orderId", orderID))
	return nil
}
