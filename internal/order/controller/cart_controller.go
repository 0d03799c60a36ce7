package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"cartline/internal/domain"
	"cartline/internal/dto"
	"cartline/internal/httpx"
	"cartline/internal/session"
)

type CartUseCase interface {
	AddItem(ctx context.Context, userID, productID uint, quantity int) (*domain.Item, error)
	EditItem(ctx context.Context, userID, productID uint, quantity int) (*domain.Item, error)
	RemoveItem(ctx context.Context, userID, productID uint) error
	SubmitOrder(ctx context.Context, userID uint) (*domain.OrderDetails, error)
	GetOrder(ctx context.Context, orderID uint) (*domain.OrderDetails, error)
	ListOrders(ctx context.Context) ([]domain.OrderDetails, error)
	ListItemsForOrder(ctx context.Context, orderID uint) ([]domain.LineItem, error)
	RemoveOrder(ctx context.Context, userID, orderID uint) error
}

type CartController struct {
	useCase CartUseCase
	logger  *zap.Logger
}

func NewCartController(useCase CartUseCase, logger *zap.Logger) *CartController {
	return &CartController{
		useCase: useCase,
		logger:  logger,
	}
}

// currentUser is 0 for an anonymous request; the use case turns that into Unauthenticated.
func currentUser(r *http.Request) uint {
	userID, _ := session.UserID(r.Context())
	return userID
}

func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dto.AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	item, err := c.useCase.AddItem(r.Context(), currentUser(r), req.ProductID, req.Quantity)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusCreated, dto.NewItemResponse(*item))
}

func (c *CartController) EditItem(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.UintParam(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	var req dto.EditItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	item, err := c.useCase.EditItem(r.Context(), currentUser(r), productID, req.Quantity)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewItemResponse(*item))
}

func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.UintParam(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	if err := c.useCase.RemoveItem(r.Context(), currentUser(r), productID); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, httpx.SuccessResponse{Success: true})
}

func (c *CartController) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	details, err := c.useCase.SubmitOrder(r.Context(), currentUser(r))
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.Logger(r, c.logger).Info("order submitted", zap.Uint("orderId", details.Order.ID))
	httpx.WriteJSON(w, c.logger, http.StatusOK, httpx.SuccessResponse{Success: true})
}

func (c *CartController) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := c.useCase.ListOrders(r.Context())
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewOrderResponses(orders))
}

func (c *CartController) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := httpx.UintParam(r, "orderId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	details, err := c.useCase.GetOrder(r.Context(), orderID)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewOrderResponse(*details, true))
}

func (c *CartController) ListOrderItems(w http.ResponseWriter, r *http.Request) {
	orderID, err := httpx.UintParam(r, "orderId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	items, err := c.useCase.ListItemsForOrder(r.Context(), orderID)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewLineItemResponses(items))
}

func (c *CartController) RemoveOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := httpx.UintParam(r, "orderId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	if err := c.useCase.RemoveOrder(r.Context(), currentUser(r), orderID); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteNoContent(w)
}
