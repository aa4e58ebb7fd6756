package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mcheros/storefront/internal/cart"
	"github.com/mcheros/storefront/internal/catalog"
	"github.com/mcheros/storefront/internal/domain"
)

type CartHandler struct {
	catalog *catalog.Client
}

func NewCartHandler(catalogClient *catalog.Client) *CartHandler {
	return &CartHandler{catalog: catalogClient}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type CartResponseDTO struct {
	Items    cart.Snapshot `json:"items"`
	Subtotal domain.Money  `json:"subtotal"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	visitor := visitorFromContext(r.Context())
	if visitor == nil {
		respondError(w, http.StatusUnauthorized, "no_session", "missing visitor session")
		return
	}

	respondJSON(w, http.StatusOK, cartDTO(visitor.Cart.Snapshot()))
}

// POST /api/cart/items
//
// The product's price and name are captured into the cart line here; a later
// catalog change never reaches lines already in the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	visitor := visitorFromContext(r.Context())
	if visitor == nil {
		respondError(w, http.StatusUnauthorized, "no_session", "missing visitor session")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, ok := h.catalog.Product(req.ProductID)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown_product", "product is not in the catalog")
		return
	}

	visitor.Cart.Add(product)
	respondJSON(w, http.StatusCreated, cartDTO(visitor.Cart.Snapshot()))
}

// DELETE /api/cart/items/{product_id}
//
// Removing an absent product is still a 204.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	visitor := visitorFromContext(r.Context())
	if visitor == nil {
		respondError(w, http.StatusUnauthorized, "no_session", "missing visitor session")
		return
	}

	visitor.Cart.Remove(chi.URLParam(r, "product_id"))
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	visitor := visitorFromContext(r.Context())
	if visitor == nil {
		respondError(w, http.StatusUnauthorized, "no_session", "missing visitor session")
		return
	}

	visitor.Cart.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func cartDTO(snapshot cart.Snapshot) CartResponseDTO {
	return CartResponseDTO{
		Items:    snapshot,
		Subtotal: snapshot.Subtotal(),
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
