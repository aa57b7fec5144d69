package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/scanbill/pos-client/internal/backend"
	"github.com/scanbill/pos-client/internal/session"
	pkgerrors "github.com/scanbill/pos-client/pkg/errors"
	"github.com/scanbill/pos-client/pkg/enums"
	"github.com/scanbill/pos-client/pkg/logger"
	"github.com/scanbill/pos-client/pkg/metrics"
	"github.com/scanbill/pos-client/pkg/notify"
)

const genericFailureMessage = "Failed to authorize"

// State tracks the submission lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
)

// Draft holds the transient operator-entered checkout fields. It is cleared
// unconditionally on success and retained on failure so a retry needs no
// re-typing.
type Draft struct {
	Name   string `json:"name" validate:"required"`
	Mobile string `json:"mobile" validate:"required"`
}

// API is the slice of the backend client used for checkout.
type API interface {
	Checkout(ctx context.Context, req backend.CheckoutRequest) (*backend.Order, error)
}

// Refresher provides the synchronizer primitives consumed after a settled
// checkout.
type Refresher interface {
	RefreshCart(ctx context.Context) error
	RefreshOrders(ctx context.Context) error
	Cart() *backend.Cart
}

// ViewSwitcher lets the orchestrator move the operator to the history view
// after settlement.
type ViewSwitcher interface {
	Activate(view enums.View)
}

// IdentitySource yields the active identity.
type IdentitySource interface {
	Current() *session.Identity
}

// Orchestrator drives the idempotent purchase handshake. A fresh idempotency
// token is generated per submit attempt; see the design notes for why that
// weakens retry protection.
type Orchestrator struct {
	mu       sync.Mutex
	api      API
	sync     Refresher
	identity IdentitySource
	views    ViewSwitcher
	log      *logger.Logger
	notifier notify.Notifier
	metrics  *metrics.ClientMetrics
	validate *validator.Validate

	draft    Draft
	state    State
	newToken func() string
}

func New(api API, refresher Refresher, identity IdentitySource, views ViewSwitcher, log *logger.Logger, notifier notify.Notifier, m *metrics.ClientMetrics) (*Orchestrator, error) {
	if api == nil {
		return nil, fmt.Errorf("backend api required")
	}
	if refresher == nil {
		return nil, fmt.Errorf("refresher required")
	}
	if identity == nil {
		return nil, fmt.Errorf("identity source required")
	}
	if views == nil {
		return nil, fmt.Errorf("view switcher required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &Orchestrator{
		api:      api,
		sync:     refresher,
		identity: identity,
		views:    views,
		log:      log,
		notifier: notifier,
		metrics:  m,
		validate: validator.New(),
		state:    StateIdle,
		newToken: uuid.NewString,
	}, nil
}

// SetDraft records the operator-entered customer fields.
func (o *Orchestrator) SetDraft(name, mobile string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.draft = Draft{Name: name, Mobile: mobile}
}

// Draft returns a copy of the current draft.
func (o *Orchestrator) Draft() Draft {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft
}

// ClearDraft drops the draft fields. Registered as a logout reset hook.
func (o *Orchestrator) ClearDraft() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.draft = Draft{}
}

// State returns the submission state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CanSubmit reports whether the checkout action is offered: both draft
// fields present and a cart with a strictly positive total.
func (o *Orchestrator) CanSubmit() bool {
	o.mu.Lock()
	draft := o.draft
	o.mu.Unlock()

	if draft.Name == "" || draft.Mobile == "" {
		return false
	}
	cart := o.sync.Cart()
	return cart != nil && cart.TotalAmount.IsPositive()
}

// Submit runs one checkout attempt. On success the order history and cart
// are refreshed in that order, the draft is cleared, and the active view
// switches to history. On failure the draft is retained and the state
// returns to idle; the orchestrator never retries on its own.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout already in flight")
	}
	draft := o.draft
	o.state = StateSubmitting
	o.mu.Unlock()

	err := o.submit(ctx, draft)

	o.mu.Lock()
	o.state = StateIdle
	if err == nil {
		o.draft = Draft{}
	}
	o.mu.Unlock()
	return err
}

func (o *Orchestrator) submit(ctx context.Context, draft Draft) error {
	if err := o.validate.Struct(draft); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "incomplete checkout details")
	}
	if !o.CanSubmit() {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout not available")
	}

	identity := o.identity.Current()
	if identity == nil || identity.StoreID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no active store scope")
	}

	// A fresh token per attempt: operator-driven retries after an ambiguous
	// failure are de-duplicated by the backend only if it sees the same
	// token again, which this scheme does not provide.
	token := o.newToken()

	ctx = o.log.WithStoreID(ctx, identity.StoreID.String())
	_, err := o.api.Checkout(ctx, backend.CheckoutRequest{
		UserID:         identity.ID,
		CustomerName:   draft.Name,
		CustomerMobile: draft.Mobile,
		StoreID:        *identity.StoreID,
		IdempotencyKey: token,
	})
	if err != nil {
		o.metrics.IncCheckout("failure")
		o.notifier.Notify(notify.Notification{
			Message:  failureMessage(err),
			Severity: notify.SeverityError,
		})
		return err
	}

	// Orders before cart, so the cart view reflects post-purchase emptiness
	// by the time the history view renders.
	if refreshErr := o.sync.RefreshOrders(ctx); refreshErr != nil {
		o.log.Debug(ctx, "post-checkout order refresh absorbed")
	}
	if refreshErr := o.sync.RefreshCart(ctx); refreshErr != nil {
		o.log.Debug(ctx, "post-checkout cart refresh absorbed")
	}

	o.views.Activate(enums.ViewHistory)
	o.metrics.IncCheckout("success")
	o.notifier.Notify(notify.Notification{
		Message:  "Transaction Confirmed",
		Severity: notify.SeveritySuccess,
	})
	return nil
}

func failureMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return genericFailureMessage
}
