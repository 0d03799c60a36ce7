package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"cartline/internal/domain"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type Repository interface {
	FindByID(ctx context.Context, id uint) (*domain.Product, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Insert(ctx context.Context, p domain.Product) (uint, error)
	Update(ctx context.Context, tx *sql.Tx, p domain.Product) error
	Delete(ctx context.Context, id uint) error
}

type CatalogService struct {
	db      TransactionManager
	repo    Repository
	timeout time.Duration
	logger  *zap.Logger
}

func NewCatalogService(db TransactionManager, repo Repository, timeout time.Duration, logger *zap.Logger) *CatalogService {
	return &CatalogService{db: db, repo: repo, timeout: timeout, logger: logger}
}

// bounded caps every store call made by one catalog operation.
func (s *CatalogService) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.List(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*domain.Product, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.FindByID(ctx, id)
}

func (s *CatalogService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	id, err := s.repo.Insert(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info("product created", zap.Uint("productId", id), zap.String("name", p.Name))
	return s.repo.FindByID(ctx, id)
}

// Update applies u to the stored product under a row lock.
func (s *CatalogService) Update(ctx context.Context, id uint, u domain.ProductUpdate) (*domain.Product, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	updated := current.Apply(u)
	if err := s.repo.Update(ctx, tx, updated); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("product updated", zap.Uint("productId", id))
	return s.repo.FindByID(ctx, id)
}

func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.Uint("productId", id))
	return nil
}
