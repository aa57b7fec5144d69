package cartsync

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/scanbill/pos-client/internal/backend"
	"github.com/scanbill/pos-client/internal/session"
	pkgerrors "github.com/scanbill/pos-client/pkg/errors"
	"github.com/scanbill/pos-client/pkg/logger"
	"github.com/scanbill/pos-client/pkg/metrics"
	"github.com/scanbill/pos-client/pkg/notify"
)

// API is the slice of the backend client the synchronizer needs.
type API interface {
	FetchCart(ctx context.Context, userID, storeID uuid.UUID) (*backend.Cart, error)
	AddUnit(ctx context.Context, userID uuid.UUID, serialNumber string, storeID uuid.UUID) (*backend.Cart, error)
	RemoveUnit(ctx context.Context, userID uuid.UUID, serialNumber string, storeID uuid.UUID) (*backend.Cart, error)
	FetchOrders(ctx context.Context, storeID uuid.UUID) ([]backend.Order, error)
}

// IdentitySource yields the active identity; the synchronizer never mutates
// it.
type IdentitySource interface {
	Current() *session.Identity
}

// Operation names a synchronizer action for the failure-policy table.
type Operation string

const (
	OpRefreshCart   Operation = "refresh_cart"
	OpRefreshOrders Operation = "refresh_orders"
	OpAddUnit       Operation = "add_unit"
	OpRemoveUnit    Operation = "remove_unit"
)

// FailurePolicy states what happens when an operation fails: whether the
// error is surfaced to the operator and whether the previous view is kept.
// The asymmetry between add (surfaced) and remove (silent) is deliberate and
// inherited; it is policy, not an accident of error handling.
type FailurePolicy struct {
	Surface bool
	Retain  bool
}

var policyByOperation = map[Operation]FailurePolicy{
	OpRefreshCart:   {Surface: false, Retain: true},
	OpRefreshOrders: {Surface: false, Retain: true},
	OpAddUnit:       {Surface: true, Retain: true},
	OpRemoveUnit:    {Surface: false, Retain: true},
}

// PolicyFor returns the failure policy for the operation.
func PolicyFor(op Operation) FailurePolicy {
	if policy, ok := policyByOperation[op]; ok {
		return policy
	}
	return FailurePolicy{Surface: true, Retain: true}
}

// Synchronizer keeps the local cart and order-history views consistent with
// server truth. Views are only ever replaced wholesale with the backend's
// authoritative response; the client never merges or recomputes them.
type Synchronizer struct {
	mu       sync.Mutex
	api      API
	identity IdentitySource
	log      *logger.Logger
	notifier notify.Notifier
	metrics  *metrics.ClientMetrics

	cart   *backend.Cart
	orders []backend.Order
}

func New(api API, identity IdentitySource, log *logger.Logger, notifier notify.Notifier, m *metrics.ClientMetrics) (*Synchronizer, error) {
	if api == nil {
		return nil, fmt.Errorf("backend api required")
	}
	if identity == nil {
		return nil, fmt.Errorf("identity source required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &Synchronizer{
		api:      api,
		identity: identity,
		log:      log,
		notifier: notifier,
		metrics:  m,
	}, nil
}

// Cart returns the last-known-good cart view, or nil before the first
// successful refresh.
func (s *Synchronizer) Cart() *backend.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return nil
	}
	cpy := *s.cart
	cpy.Items = append([]backend.CartItem(nil), s.cart.Items...)
	return &cpy
}

// Orders returns the last-known-good order history view.
func (s *Synchronizer) Orders() []backend.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.Order(nil), s.orders...)
}

// RefreshCart fetches the authoritative cart for the active scope. It no-ops
// when no identity or store scope is present. Failures are absorbed: the
// previous view stays as-is and the UI self-heals on the next refresh. The
// returned error exists for logging only and must not be surfaced.
func (s *Synchronizer) RefreshCart(ctx context.Context) error {
	userID, storeID, ok := s.scope()
	if !ok {
		return nil
	}

	cart, err := s.api.FetchCart(ctx, userID, storeID)
	if err != nil {
		s.absorb(ctx, OpRefreshCart, err)
		return err
	}

	s.mu.Lock()
	s.cart = cart
	s.mu.Unlock()
	return nil
}

// RefreshOrders fetches the authoritative order history for the active scope
// with the same absorb-on-failure behavior as RefreshCart.
func (s *Synchronizer) RefreshOrders(ctx context.Context) error {
	_, storeID, ok := s.scope()
	if !ok {
		return nil
	}

	orders, err := s.api.FetchOrders(ctx, storeID)
	if err != nil {
		s.absorb(ctx, OpRefreshOrders, err)
		return err
	}

	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	return nil
}

// AddUnit reserves a serialized unit for the active scope. On success the
// local cart is replaced with the server's response and a confirmation names
// the unit; on failure the server's message is surfaced and the cart is left
// untouched.
func (s *Synchronizer) AddUnit(ctx context.Context, serialNumber string) error {
	userID, storeID, ok := s.scope()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "no active store scope")
	}

	cart, err := s.api.AddUnit(ctx, userID, serialNumber, storeID)
	if err != nil {
		s.metrics.IncMutation(string(OpAddUnit), "rejected")
		s.notifier.Notify(notify.Notification{
			Message:  pkgerrors.PublicMessage(err),
			Severity: notify.SeverityError,
		})
		return err
	}

	s.mu.Lock()
	s.cart = cart
	s.mu.Unlock()

	s.metrics.IncMutation(string(OpAddUnit), "ok")
	s.notifier.Notify(notify.Notification{
		Message:  fmt.Sprintf("Acquired: %s", shortSerial(serialNumber)),
		Severity: notify.SeveritySuccess,
	})
	return nil
}

// RemoveUnit releases a serialized unit. Success replaces the local cart and
// confirms; failure is silent per the policy table.
func (s *Synchronizer) RemoveUnit(ctx context.Context, serialNumber string) error {
	userID, storeID, ok := s.scope()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "no active store scope")
	}

	cart, err := s.api.RemoveUnit(ctx, userID, serialNumber, storeID)
	if err != nil {
		s.metrics.IncMutation(string(OpRemoveUnit), "rejected")
		s.log.Debug(s.log.WithField(ctx, "serial_number", serialNumber), "remove unit failed")
		return err
	}

	s.mu.Lock()
	s.cart = cart
	s.mu.Unlock()

	s.metrics.IncMutation(string(OpRemoveUnit), "ok")
	s.notifier.Notify(notify.Notification{
		Message:  "Unit Released",
		Severity: notify.SeverityInfo,
	})
	return nil
}

// Invalidate drops both cached views. Registered as a logout reset hook so a
// later identity never sees the previous identity's data.
func (s *Synchronizer) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	s.orders = nil
}

func (s *Synchronizer) scope() (userID, storeID uuid.UUID, ok bool) {
	identity := s.identity.Current()
	if identity == nil || identity.StoreID == nil {
		return uuid.Nil, uuid.Nil, false
	}
	return identity.ID, *identity.StoreID, true
}

func (s *Synchronizer) absorb(ctx context.Context, op Operation, err error) {
	s.metrics.IncRefreshFailure(strings.TrimPrefix(string(op), "refresh_"))
	s.log.Debug(s.log.WithField(ctx, "op", string(op)), fmt.Sprintf("refresh absorbed: %v", err))
}

// shortSerial trims the serial to its final segment for display.
func shortSerial(serialNumber string) string {
	parts := strings.Split(serialNumber, "-")
	return parts[len(parts)-1]
}
