package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCartOperation(t *testing.T) {
	before := testutil.ToFloat64(CartOperationsTotal.WithLabelValues("add_item", "ok"))

	ObserveCartOperation("add_item", "ok", time.Now())

	after := testutil.ToFloat64(CartOperationsTotal.WithLabelValues("add_item", "ok"))
	assert.Equal(t, before+1, after)
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/orders/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/orders/{orderId}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/12", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/orders/{orderId}", "418"))
	assert.Equal(t, before+1, after)
}
