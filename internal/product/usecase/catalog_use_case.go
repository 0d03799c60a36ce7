package usecase

import (
	"context"
	"strings"

	"cartline/internal/domain"
	apperrors "cartline/internal/errors"
	"cartline/internal/infrastructure/mysql"
)

type CatalogService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id uint) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id uint, u domain.ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id uint) error
}

type CatalogUseCase struct {
	service CatalogService
}

func NewCatalogUseCase(service CatalogService) *CatalogUseCase {
	return &CatalogUseCase{service: service}
}

// validateUpdate checks the fields present in u. With requireName set, a
// missing name is an error as well as an empty one.
func validateUpdate(u domain.ProductUpdate, requireName bool) error {
	var details []apperrors.ValidationDetail

	if (u.Name == nil && requireName) || (u.Name != nil && strings.TrimSpace(*u.Name) == "") {
		details = append(details, apperrors.ValidationDetail{
			Field:   "name",
			Message: "name is required",
		})
	}

	if u.Cost != nil && *u.Cost < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "cost",
			Message: "cost must be non-negative",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func (uc *CatalogUseCase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := uc.service.List(ctx)
	if err != nil {
		return nil, mysql.Classify(err)
	}
	return products, nil
}

func (uc *CatalogUseCase) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	p, err := uc.service.Get(ctx, id)
	if err != nil {
		return nil, mysql.Classify(err)
	}
	return p, nil
}

func (uc *CatalogUseCase) CreateProduct(ctx context.Context, u domain.ProductUpdate) (*domain.Product, error) {
	if err := validateUpdate(u, true); err != nil {
		return nil, err
	}

	p, err := uc.service.Create(ctx, domain.Product{}.Apply(u))
	if err != nil {
		return nil, mysql.Classify(err)
	}
	return p, nil
}

func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, id uint, u domain.ProductUpdate) (*domain.Product, error) {
	if err := validateUpdate(u, false); err != nil {
		return nil, err
	}

	p, err := uc.service.Update(ctx, id, u)
	if err != nil {
		return nil, mysql.Classify(err)
	}
	return p, nil
}

func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, id uint) error {
	return mysql.Classify(uc.service.Delete(ctx, id))
}
