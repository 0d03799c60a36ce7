package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"cartline/internal/httpx"
	"cartline/internal/infrastructure/metrics"
	ordercontroller "cartline/internal/order/controller"
	productcontroller "cartline/internal/product/controller"
	"cartline/internal/session"
	usercontroller "cartline/internal/user/controller"
)

type Controllers struct {
	Users    *usercontroller.UserController
	Products *productcontroller.ProductController
	Cart     *ordercontroller.CartController
}

func NewRouter(c Controllers, sessions session.Resolver, cookieName string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httpx.TraceID)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(session.Middleware(sessions, cookieName, logger))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", c.Users.ListUsers)
			r.Post("/register", c.Users.Register)
			r.Post("/login", c.Users.Login)
			r.Post("/logout", c.Users.Logout)
			r.Get("/me", c.Users.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", c.Products.List)
			r.Post("/", c.Products.Create)
			r.Get("/{productId}", c.Products.Get)
			r.Put("/{productId}", c.Products.Update)
			r.Delete("/{productId}", c.Products.Delete)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Post("/items", c.Cart.AddItem)
			r.Put("/items/{productId}", c.Cart.EditItem)
			r.Delete("/items/{productId}", c.Cart.RemoveItem)
			r.Post("/submit", c.Cart.SubmitOrder)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", c.Cart.ListOrders)
			r.Get("/{orderId}", c.Cart.GetOrder)
			r.Get("/{orderId}/items", c.Cart.ListOrderItems)
			r.Delete("/{orderId}", c.Cart.RemoveOrder)
		})
	})

	return r
}
