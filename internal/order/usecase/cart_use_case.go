package usecase

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"cartline/internal/domain"
	apperrors "cartline/internal/errors"
	"cartline/internal/infrastructure/metrics"
	"cartline/internal/infrastructure/mysql"
	"cartline/internal/infrastructure/tracing"
)

type CartService interface {
	AddItem(ctx context.Context, userID, productID uint, quantity int) (*domain.Item, error)
	EditItem(ctx context.Context, userID, productID uint, quantity int) (*domain.Item, error)
	RemoveItem(ctx context.Context, userID, productID uint) error
	SubmitOrder(ctx context.Context, userID uint) (*domain.OrderDetails, error)
	RemoveOrder(ctx context.Context, orderID uint) error
}

type OrderReader interface {
	FindByIDWithUser(ctx context.Context, id uint) (*domain.Order, *domain.UserSummary, error)
	List(ctx context.Context) ([]domain.OrderDetails, error)
}

type ItemReader interface {
	ListByOrder(ctx context.Context, orderID uint) ([]domain.LineItem, error)
}

type EventPublisher interface {
	PublishOrderSubmitted(ctx context.Context, event domain.OrderSubmittedEvent) error
}

const publishTimeout = 5 * time.Second

// Backoff intervals: attempt 1 (0ms), attempt 2 (100ms), attempt 3 (200ms), then 200ms.
var backoffs = []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}

type CartUseCase struct {
	cartSvc          CartService
	orderReader      OrderReader
	itemReader       ItemReader
	publisher        EventPublisher
	logger           *zap.Logger
	maxRetryAttempts int
	sleep            func(ctx context.Context, d time.Duration) error
}

func NewCartUseCase(
	cartSvc CartService,
	orderReader OrderReader,
	itemReader ItemReader,
	publisher EventPublisher,
	logger *zap.Logger,
	maxRetryAttempts int,
) *CartUseCase {
	return &CartUseCase{
		cartSvc:          cartSvc,
		orderReader:      orderReader,
		itemReader:       itemReader,
		publisher:        publisher,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		sleep:            sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func requireUser(userID uint, message string) error {
	if userID == 0 {
		return apperrors.NewUnauthenticatedError(message)
	}
	return nil
}

func validateProductAndQuantity(productID uint, quantity int) error {
	var details []apperrors.ValidationDetail

	if productID == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "productId",
			Message: "productId must be a positive integer",
		})
	}

	if !domain.ValidQuantity(quantity) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must be between 1 and 10000",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func (uc *CartUseCase) AddItem(ctx context.Context, userID, productID uint, quantity int) (*domain.Item, error) {
	if err := requireUser(userID, "you must be logged to add items"); err != nil {
		return nil, err
	}
	if err := validateProductAndQuantity(productID, quantity); err != nil {
		return nil, err
	}

	uc.logger.Info("add item started", zap.Uint("userId", userID), zap.Uint("productId", productID), zap.Int("quantity", quantity))

	var item *domain.Item
	err := uc.run(ctx, "add_item", userID, func(ctx context.Context) error {
		var err error
		item, err = uc.cartSvc.AddItem(ctx, userID, productID, quantity)
		return err
	})
	if err != nil {
		if ce, ok := apperrors.IsConflictError(err); ok && ce.Field == "" {
			// unique (order_id, product_id) fired under a race the locking read did not see
			return nil, apperrors.NewConflictError("productId", "product is already in the order, edit the item instead")
		}
		return nil, err
	}
	return item, nil
}

func (uc *CartUseCase) EditItem(ctx context.Context, userID, productID uint, quantity int) (*domain.Item, error) {
	if err := requireUser(userID, "you must be logged to edit items"); err != nil {
		return nil, err
	}
	if err := validateProductAndQuantity(productID, quantity); err != nil {
		return nil, err
	}

	var item *domain.Item
	err := uc.run(ctx, "edit_item", userID, func(ctx context.Context) error {
		var err error
		item, err = uc.cartSvc.EditItem(ctx, userID, productID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (uc *CartUseCase) RemoveItem(ctx context.Context, userID, productID uint) error {
	if err := requireUser(userID, "you must be logged to remove items"); err != nil {
		return err
	}
	if productID == 0 {
		return apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "productId",
			Message: "productId must be a positive integer",
		})
	}

	return uc.run(ctx, "remove_item", userID, func(ctx context.Context) error {
		return uc.cartSvc.RemoveItem(ctx, userID, productID)
	})
}

// SubmitOrder finalizes the user's open order. The submitted event is published
// after commit and a publish failure never undoes the submission.
func (uc *CartUseCase) SubmitOrder(ctx context.Context, userID uint) (*domain.OrderDetails, error) {
	if err := requireUser(userID, "you must be logged to submit an order"); err != nil {
		return nil, err
	}

	var details *domain.OrderDetails
	err := uc.run(ctx, "submit_order", userID, func(ctx context.Context) error {
		var err error
		details, err = uc.cartSvc.SubmitOrder(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersSubmittedTotal.Inc()
	uc.publishSubmitted(ctx, *details)

	return details, nil
}

func (uc *CartUseCase) publishSubmitted(ctx context.Context, details domain.OrderDetails) {
	event := domain.OrderSubmittedEvent{
		BaseEvent: domain.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: domain.EventTypeOrderSubmitted,
			Timestamp: time.Now().UTC(),
		},
		OrderID:   details.Order.ID,
		UserID:    details.User.ID,
		TotalCost: details.Total(),
		Items:     make([]domain.SubmittedItemData, 0, len(details.Items)),
	}
	for _, li := range details.Items {
		event.Items = append(event.Items, domain.SubmittedItemData{
			ProductID: li.Item.ProductID,
			Quantity:  li.Item.Quantity,
			Cost:      li.Product.Cost,
		})
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := uc.publisher.PublishOrderSubmitted(pubCtx, event); err != nil {
		uc.logger.Warn("failed to publish order submitted event", zap.Uint("orderId", event.OrderID), zap.Error(err))
	}
}

func (uc *CartUseCase) RemoveOrder(ctx context.Context, userID, orderID uint) error {
	if err := requireUser(userID, "you must be logged to remove an order"); err != nil {
		return err
	}

	return uc.run(ctx, "remove_order", userID, func(ctx context.Context) error {
		return uc.cartSvc.RemoveOrder(ctx, orderID)
	})
}

func (uc *CartUseCase) GetOrder(ctx context.Context, orderID uint) (*domain.OrderDetails, error) {
	order, user, err := uc.orderReader.FindByIDWithUser(ctx, orderID)
	if err != nil {
		return nil, mysql.Classify(err)
	}

	items, err := uc.itemReader.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, mysql.Classify(err)
	}

	return &domain.OrderDetails{Order: *order, User: *user, Items: items}, nil
}

func (uc *CartUseCase) ListOrders(ctx context.Context) ([]domain.OrderDetails, error) {
	orders, err := uc.orderReader.List(ctx)
	if err != nil {
		return nil, mysql.Classify(err)
	}
	return orders, nil
}

func (uc *CartUseCase) ListItemsForOrder(ctx context.Context, orderID uint) ([]domain.LineItem, error) {
	details, err := uc.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return details.Items, nil
}

// run executes one cart transition with tracing, metrics and deadlock retry,
// and guarantees the returned error carries an application error kind.
func (uc *CartUseCase) run(ctx context.Context, operation string, userID uint, fn func(ctx context.Context) error) error {
	started := time.Now()
	ctx, span := tracing.StartSpan(ctx, "cart."+operation)
	defer span.End()
	if userID != 0 {
		span.SetAttributes(attribute.Int64("user.id", int64(userID)))
	}

	err := mysql.Classify(uc.withRetry(ctx, operation, fn))

	outcome := "ok"
	if err != nil {
		outcome = apperrors.Kind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)

		if outcome == apperrors.KindInternal || outcome == apperrors.KindTimeout || outcome == apperrors.KindUnavailable {
			uc.logger.Error("cart operation failed", zap.String("operation", operation), zap.Uint("userId", userID), zap.Error(err))
		} else {
			uc.logger.Info("cart operation rejected", zap.String("operation", operation), zap.Uint("userId", userID), zap.String("reason", outcome), zap.Error(err))
		}
	}

	metrics.ObserveCartOperation(operation, outcome, started)
	return err
}

func (uc *CartUseCase) withRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	maxAttempts := uc.maxRetryAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !mysql.IsDeadlock(err) {
			return err
		}

		if attempt == maxAttempts {
			break
		}

		metrics.DeadlockRetriesTotal.WithLabelValues(operation).Inc()
		uc.logger.Warn("deadlock detected, retrying", zap.String("operation", operation), zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts))

		if err := uc.sleep(ctx, backoffFor(attempt)); err != nil {
			return err
		}
	}

	return apperrors.NewUnavailableError("max retries exceeded", err)
}

// backoffFor returns the pause after the given failed attempt with ±20% jitter.
func backoffFor(attempt int) time.Duration {
	idx := attempt
	if idx >= len(backoffs) {
		idx = len(backoffs) - 1
	}
	base := backoffs[idx]
	return time.Duration(float64(base) * (0.8 + rand.Float64()*0.4))
}
