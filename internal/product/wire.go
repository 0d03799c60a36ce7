package product

import (
	"database/sql"

	"go.uber.org/zap"

	"cartline/internal/config"
	"cartline/internal/product/controller"
	"cartline/internal/product/repository"
	"cartline/internal/product/service"
	"cartline/internal/product/usecase"
)

func NewModule(db *sql.DB, cfg *config.Config, logger *zap.Logger) *controller.ProductController {
	repo := repository.NewMySQLProductRepository(db)
	svc := service.NewCatalogService(db, repo, cfg.Order.TxTimeout, logger)
	uc := usecase.NewCatalogUseCase(svc)
	return controller.NewProductController(uc, logger)
}
