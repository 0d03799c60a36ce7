package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"cartline/internal/domain"
	"cartline/internal/dto"
	"cartline/internal/httpx"
)

type CatalogUseCase interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id uint) (*domain.Product, error)
	CreateProduct(ctx context.Context, u domain.ProductUpdate) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uint, u domain.ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type ProductController struct {
	useCase CatalogUseCase
	logger  *zap.Logger
}

func NewProductController(useCase CatalogUseCase, logger *zap.Logger) *ProductController {
	return &ProductController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
	products, err := c.useCase.ListProducts(r.Context())
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewProductResponses(products))
}

func (c *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UintParam(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	p, err := c.useCase.GetProduct(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewProductResponse(*p))
}

func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	p, err := c.useCase.CreateProduct(r.Context(), req.ToUpdate())
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusCreated, dto.NewProductResponse(*p))
}

func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UintParam(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	var req dto.ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	p, err := c.useCase.UpdateProduct(r.Context(), id, req.ToUpdate())
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewProductResponse(*p))
}

func (c *ProductController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UintParam(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	if err := c.useCase.DeleteProduct(r.Context(), id); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteNoContent(w)
}
