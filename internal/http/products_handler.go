package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mcheros/storefront/internal/catalog"
	"github.com/mcheros/storefront/internal/domain"
)

type ProductsHandler struct {
	catalog *catalog.Client
	timeout time.Duration
}

func NewProductsHandler(catalogClient *catalog.Client, timeout time.Duration) *ProductsHandler {
	return &ProductsHandler{
		catalog: catalogClient,
		timeout: timeout,
	}
}

// GET /api/products
//
// A catalog failure is not the shopper's problem: the response is an empty
// list, the failure lives in the logs.
func (h *ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.catalog.Load(ctx)

	products := h.catalog.Products()
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}
