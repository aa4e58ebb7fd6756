package checkout

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mcheros/storefront/internal/cart"
	"github.com/mcheros/storefront/internal/domain"
)

// State is the checkout session's submission lifecycle.
type State string

const (
	StateEditing    State = "EDITING"
	StateSubmitting State = "SUBMITTING"
	StateSucceeded  State = "SUCCEEDED"
	StateFailed     State = "FAILED"
)

func (s State) String() string {
	return string(s)
}

func (s State) IsTerminal() bool {
	return s == StateSucceeded
}

var (
	ErrEmptyCart        = errors.New("cart is empty, nothing to submit")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	ErrAlreadySubmitted = errors.New("order already submitted for this session")
)

const (
	genericRejectionMessage = "Something went wrong"
	networkFailureMessage   = "Network error"
)

// Form holds the buyer-supplied fields. It is transient input state with no
// cart linkage.
type Form struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IGN      string `json:"ign,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Session binds the cart snapshot handed off from the shop view to the
// buyer's form and drives the submission protocol. The snapshot is fixed for
// the session's lifetime; the session never mutates it.
//
// States: Editing -> Submitting -> Succeeded | Failed. A failure keeps the
// form and snapshot so the buyer can correct and resubmit; success is
// terminal, the same cart must not be submitted twice.
type Session struct {
	mu             sync.Mutex
	state          State
	snapshot       cart.Snapshot
	form           Form
	outcome        *domain.OrderOutcome
	orders         *OrderClient
	idempotencyKey string // constant for the session, so retries dedupe server-side
	log            zerolog.Logger
}

// NewSession starts a checkout over the given snapshot. A nil or empty
// snapshot is valid (direct navigation without a handoff); submission is then
// refused by the empty-cart guard.
func NewSession(snapshot cart.Snapshot, orders *OrderClient, log zerolog.Logger) *Session {
	return &Session{
		state:          StateEditing,
		snapshot:       snapshot,
		orders:         orders,
		idempotencyKey: uuid.NewString(),
		log:            log,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the carried-over cart lines.
func (s *Session) Snapshot() cart.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(cart.Snapshot, len(s.snapshot))
	copy(snapshot, s.snapshot)
	return snapshot
}

func (s *Session) Subtotal() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Subtotal()
}

func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// SetForm replaces the buyer fields. Editing after a failure returns the
// session to Editing; the recorded outcome stays readable.
func (s *Session) SetForm(f Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = f
	if s.state == StateFailed {
		s.state = StateEditing
	}
}

// Outcome reports the result of the latest completed attempt, if any.
func (s *Session) Outcome() (domain.OrderOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return domain.OrderOutcome{}, false
	}
	return *s.outcome, true
}

// Submit runs one order-submission attempt. With an empty snapshot it refuses
// before any network traffic (ErrEmptyCart); while an attempt is in flight it
// refuses with ErrSubmitInFlight; after a success it refuses with
// ErrAlreadySubmitted. Otherwise it sends the composed OrderRequest and
// reports the outcome: a rejection or transport failure yields a Failed
// outcome with a user-facing message, never an unhandled fault.
func (s *Session) Submit(ctx context.Context) (domain.OrderOutcome, error) {
	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return domain.OrderOutcome{}, ErrSubmitInFlight
	case StateSucceeded:
		s.mu.Unlock()
		return domain.OrderOutcome{}, ErrAlreadySubmitted
	}
	if s.snapshot.Empty() {
		s.mu.Unlock()
		return domain.OrderOutcome{}, ErrEmptyCart
	}
	order := buildOrderRequest(s.form, s.snapshot)
	key := s.idempotencyKey
	s.state = StateSubmitting
	s.mu.Unlock()

	orderID, err := s.orders.Create(ctx, order, key)

	s.mu.Lock()
	defer s.mu.Unlock()

	var outcome domain.OrderOutcome
	if err == nil {
		outcome = domain.OrderOutcome{OrderID: orderID}
		s.state = StateSucceeded
		s.log.Info().Str("order_id", orderID).Msg("order accepted")
	} else {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			outcome = domain.OrderOutcome{Message: rejected.Message}
		} else {
			outcome = domain.OrderOutcome{Message: networkFailureMessage}
		}
		s.state = StateFailed
		s.log.Warn().Err(err).Msg("order submission failed")
	}
	s.outcome = &outcome
	return outcome, nil
}

func buildOrderRequest(form Form, snapshot cart.Snapshot) domain.OrderRequest {
	items := make([]domain.OrderItem, 0, len(snapshot))
	for _, line := range snapshot {
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}
	return domain.OrderRequest{
		BuyerEmail: form.Email,
		BuyerName:  form.FullName,
		IGN:        form.IGN,
		Items:      items,
		Note:       form.Note,
	}
}

// ConfirmationPath builds the address of the confirmation view. The order id
// rides in the query string so the confirmation survives refreshes and can be
// bookmarked.
func ConfirmationPath(orderID string) string {
	return "/checkout/success?order=" + url.QueryEscape(orderID)
}
