package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcheros/storefront/internal/cart"
	"github.com/mcheros/storefront/internal/checkout"
	"github.com/mcheros/storefront/internal/domain"
	"github.com/mcheros/storefront/internal/session"
)

type CheckoutHandler struct {
	orders  *checkout.OrderClient
	timeout time.Duration
	log     zerolog.Logger
}

func NewCheckoutHandler(orders *checkout.OrderClient, timeout time.Duration, log zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orders:  orders,
		timeout: timeout,
		log:     log,
	}
}

type CheckoutResponseDTO struct {
	State    string               `json:"state"`
	Items    cart.Snapshot        `json:"items"`
	Subtotal domain.Money         `json:"subtotal"`
	Form     checkout.Form        `json:"form"`
	Outcome  *domain.OrderOutcome `json:"outcome,omitempty"`
}

type SubmitResponseDTO struct {
	OrderID         string `json:"order_id"`
	ConfirmationURL string `json:"confirmation_url"`
}

type ConfirmationResponseDTO struct {
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

// POST /api/checkout
//
// The handoff: the live cart's snapshot is taken here, once, and handed to a
// fresh checkout session. Later cart mutations do not reach it.
func (h *CheckoutHandler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	visitor := visitorFromContext(r.Context())
	if visitor == nil {
		respondError(w, http.StatusUnauthorized, "no_session", "missing visitor session")
		return
	}

	cs := checkout.NewSession(visitor.Cart.Snapshot(), h.orders, h.log)
	visitor.SetCheckout(cs)
	respondJSON(w, http.StatusCreated, checkoutDTO(cs))
}

// GET /api/checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	visitor := visitorFromContext(r.Context())
	if visitor == nil {
		respondError(w, http.StatusUnauthorized, "no_session", "missing visitor session")
		return
	}

	respondJSON(w, http.StatusOK, checkoutDTO(h.sessionFor(visitor)))
}

// PUT /api/checkout/form
func (h *CheckoutHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	visitor := visitorFromContext(r.Context())
	if visitor == nil {
		respondError(w, http.StatusUnauthorized, "no_session", "missing visitor session")
		return
	}

	var form checkout.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cs := h.sessionFor(visitor)
	cs.SetForm(form)
	respondJSON(w, http.StatusOK, checkoutDTO(cs))
}

// POST /api/checkout/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	visitor := visitorFromContext(r.Context())
	if visitor == nil {
		respondError(w, http.StatusUnauthorized, "no_session", "missing visitor session")
		return
	}

	cs := h.sessionFor(visitor)
	outcome, err := cs.Submit(ctx)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
		return
	case errors.Is(err, checkout.ErrSubmitInFlight):
		respondError(w, http.StatusConflict, "submit_in_flight", "an order submission is already in progress")
		return
	case errors.Is(err, checkout.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, "already_submitted", "this cart has already been ordered")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	if !outcome.Succeeded() {
		// form and snapshot stay on the session for a corrected retry
		respondError(w, http.StatusUnprocessableEntity, "order_failed", outcome.Message)
		return
	}

	// the originating cart is done; a successful outcome must not be resubmitted
	visitor.Cart.Clear()

	respondJSON(w, http.StatusCreated, SubmitResponseDTO{
		OrderID:         outcome.OrderID,
		ConfirmationURL: checkout.ConfirmationPath(outcome.OrderID),
	})
}

// GET /checkout/success?order=<id>
//
// The order id lives in the query string, so this view is reachable directly
// from a bookmark or refresh.
func (h *CheckoutHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order")
	if orderID == "" {
		respondError(w, http.StatusNotFound, "unknown_order", "missing order identifier")
		return
	}

	respondJSON(w, http.StatusOK, ConfirmationResponseDTO{
		OrderID: orderID,
		Message: "Thanks for your purchase!",
	})
}

// sessionFor returns the visitor's checkout session, creating one over an
// empty snapshot when checkout was entered without a handoff.
func (h *CheckoutHandler) sessionFor(visitor *session.Visitor) *checkout.Session {
	if cs := visitor.Checkout(); cs != nil {
		return cs
	}
	cs := checkout.NewSession(nil, h.orders, h.log)
	visitor.SetCheckout(cs)
	return cs
}

func checkoutDTO(cs *checkout.Session) CheckoutResponseDTO {
	dto := CheckoutResponseDTO{
		State:    cs.State().String(),
		Items:    cs.Snapshot(),
		Subtotal: cs.Subtotal(),
		Form:     cs.Form(),
	}
	if outcome, ok := cs.Outcome(); ok {
		dto.Outcome = &outcome
	}
	return dto
}
