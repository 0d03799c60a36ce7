package order

import (
	"database/sql"

	"go.uber.org/zap"

	"cartline/internal/config"
	"cartline/internal/order/controller"
	orderrepo "cartline/internal/order/repository"
	"cartline/internal/order/service"
	"cartline/internal/order/usecase"
	productrepo "cartline/internal/product/repository"
	userrepo "cartline/internal/user/repository"
)

func NewModule(db *sql.DB, cfg *config.Config, publisher usecase.EventPublisher, logger *zap.Logger) *controller.CartController {
	userRepo := userrepo.NewMySQLUserRepository(db)
	productRepo := productrepo.NewMySQLProductRepository(db)
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	itemRepo := orderrepo.NewMySQLItemRepository(db)

	cartSvc := service.NewCartService(
		db,
		userRepo,
		productRepo,
		orderRepo,
		itemRepo,
		logger,
		cfg.Order.TxTimeout,
	)

	uc := usecase.NewCartUseCase(
		cartSvc,
		orderRepo,
		itemRepo,
		publisher,
		logger,
		cfg.Order.MaxRetryAttempts,
	)

	return controller.NewCartController(uc, logger)
}
