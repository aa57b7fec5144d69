package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/scanbill/pos-client/internal/admin"
	"github.com/scanbill/pos-client/internal/backend"
	"github.com/scanbill/pos-client/internal/cartsync"
	"github.com/scanbill/pos-client/internal/checkout"
	"github.com/scanbill/pos-client/internal/gate"
	"github.com/scanbill/pos-client/internal/nav"
	"github.com/scanbill/pos-client/internal/session"
	"github.com/scanbill/pos-client/pkg/config"
	pkgerrors "github.com/scanbill/pos-client/pkg/errors"
	"github.com/scanbill/pos-client/pkg/enums"
	"github.com/scanbill/pos-client/pkg/logger"
	"github.com/scanbill/pos-client/pkg/metrics"
	"github.com/scanbill/pos-client/pkg/notify"
)

// API is the full backend surface the controller wires into its components.
// *backend.Client satisfies it.
type API interface {
	Login(ctx context.Context, username, password string) (*backend.LoginResult, error)
	Checkout(ctx context.Context, req backend.CheckoutRequest) (*backend.Order, error)
	cartsync.API
	admin.API
}

// App is the owning controller. It wires the session store, authorization
// gate, navigator, cart synchronizer, checkout orchestrator and admin
// service together, and drives the cross-cutting reactions: refreshes on
// identity and view changes, gate completion, and the logout reset cascade.
type App struct {
	cfg      *config.Config
	log      *logger.Logger
	notifier notify.Notifier
	api      API

	sessions *session.Manager
	gate     *gate.Gate
	nav      *nav.Navigator
	sync     *cartsync.Synchronizer
	checkout *checkout.Orchestrator
	admin    *admin.Service
}

func New(cfg *config.Config, log *logger.Logger, notifier notify.Notifier, api API, m *metrics.ClientMetrics) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if api == nil {
		return nil, fmt.Errorf("backend api required")
	}

	sessions, err := session.NewManager(cfg.Session, cfg.Secret, log, notifier)
	if err != nil {
		return nil, err
	}

	authGate, err := gate.New(log, notifier, func() (string, bool) {
		identity := sessions.Current()
		if identity == nil {
			return "", false
		}
		return identity.SecretDigest, true
	})
	if err != nil {
		return nil, err
	}

	navigator, err := nav.New(authGate)
	if err != nil {
		return nil, err
	}

	synchronizer, err := cartsync.New(api, sessions, log, notifier, m)
	if err != nil {
		return nil, err
	}

	orchestrator, err := checkout.New(api, synchronizer, sessions, navigator, log, notifier, m)
	if err != nil {
		return nil, err
	}

	adminSvc, err := admin.New(api, log, notifier)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:      cfg,
		log:      log,
		notifier: notifier,
		api:      api,
		sessions: sessions,
		gate:     authGate,
		nav:      navigator,
		sync:     synchronizer,
		checkout: orchestrator,
		admin:    adminSvc,
	}

	// Logout cascade: no component may retain the previous identity's state.
	sessions.OnReset(synchronizer.Invalidate)
	sessions.OnReset(authGate.Reset)
	sessions.OnReset(navigator.Reset)
	sessions.OnReset(orchestrator.ClearDraft)
	sessions.OnReset(adminSvc.InvalidateStores)

	navigator.OnChange(app.onViewChange)

	return app, nil
}

// Start restores any persisted session and places the operator on their
// default view. A non-development build without a backend address gets the
// persistent critical notification immediately.
func (a *App) Start(ctx context.Context) {
	if !a.cfg.Backend.Configured() && !a.cfg.App.IsDev() {
		a.notifier.Notify(notify.Notification{
			Message:  "Backend address not configured; all operations will fail",
			Severity: notify.SeverityCritical,
			Sticky:   true,
		})
		a.log.Error(ctx, "backend address missing", fmt.Errorf("empty base url"))
	}

	identity := a.sessions.Restore(ctx)
	if identity == nil {
		return
	}
	a.log.Info(a.log.WithUserID(ctx, identity.ID.String()), "session restored")
	a.nav.Activate(a.nav.DefaultView(identity.Role))
	a.refreshAll(ctx)
}

// Login authenticates against the backend, establishes the session and
// places the operator on their role's default view. Placement at login is
// direct; the gate guards later navigation, not the landing view.
func (a *App) Login(ctx context.Context, username, password string) error {
	result, err := a.api.Login(ctx, username, password)
	if err != nil {
		a.notifier.Notify(notify.Notification{
			Message:  pkgerrors.PublicMessage(err),
			Severity: notify.SeverityError,
		})
		return err
	}

	identity, err := a.sessions.Login(ctx, session.LoginInput{
		ID:       result.ID,
		Username: result.Username,
		Role:     result.Role,
		StoreID:  result.StoreID,
		Secret:   result.Secret,
	})
	if err != nil {
		return err
	}

	a.nav.Activate(a.nav.DefaultView(identity.Role))
	a.refreshAll(ctx)
	return nil
}

// Logout tears the session down. The registered reset hooks clear every
// component's identity-derived state.
func (a *App) Logout(ctx context.Context) {
	a.sessions.Logout(ctx)
}

// SetView requests navigation for the active identity. Admin targets may
// open a gate challenge instead of switching; Unlock completes them.
func (a *App) SetView(ctx context.Context, view enums.View) error {
	identity := a.sessions.Current()
	if identity == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}
	return a.nav.Request(identity.Role, view)
}

// Unlock submits the gate secret. A successful challenge completes the
// deferred navigation it was guarding.
func (a *App) Unlock(ctx context.Context, secret string) bool {
	target, ok := a.gate.Challenge(ctx, secret)
	if !ok {
		return false
	}
	if target != nil {
		a.nav.Activate(*target)
	}
	return true
}

// CancelUnlock dismisses an open challenge without navigating.
func (a *App) CancelUnlock() {
	a.gate.Cancel()
}

// AdminScope resolves the store the admin surface operates on: the
// drill-down selection for a platform operator, the identity's own store
// otherwise.
func (a *App) AdminScope() (uuid.UUID, error) {
	identity := a.sessions.Current()
	if identity == nil || !identity.Role.IsAdministrative() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "administrative session required")
	}
	if identity.Role == enums.RoleSuperAdmin {
		selected := a.nav.SelectedStore()
		if selected == nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "select a store first")
		}
		return *selected, nil
	}
	if identity.StoreID == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "identity has no store")
	}
	return *identity.StoreID, nil
}

// Stats returns the scoped store's summary.
func (a *App) Stats(ctx context.Context) (*backend.StoreStats, error) {
	storeID, err := a.AdminScope()
	if err != nil {
		return nil, err
	}
	return a.admin.Stats(ctx, storeID)
}

// StoreOrders lists the scoped store's order history.
func (a *App) StoreOrders(ctx context.Context) ([]backend.Order, error) {
	storeID, err := a.AdminScope()
	if err != nil {
		return nil, err
	}
	return a.admin.Orders(ctx, storeID)
}

// Products lists the scoped store's catalog.
func (a *App) Products(ctx context.Context) ([]backend.Product, error) {
	storeID, err := a.AdminScope()
	if err != nil {
		return nil, err
	}
	return a.admin.Products(ctx, storeID)
}

// CreateProduct adds a catalog entry to the scoped store.
func (a *App) CreateProduct(ctx context.Context, form admin.ProductForm) (*backend.Product, error) {
	storeID, err := a.AdminScope()
	if err != nil {
		return nil, err
	}
	return a.admin.CreateProduct(ctx, storeID, form)
}

// AddInventory registers additional units for the scoped store.
func (a *App) AddInventory(ctx context.Context, barcode string, quantity int) error {
	storeID, err := a.AdminScope()
	if err != nil {
		return err
	}
	return a.admin.AddInventory(ctx, storeID, barcode, quantity)
}

// SelectStore drills the platform listing into one store.
func (a *App) SelectStore(storeID uuid.UUID) error {
	return a.nav.SelectStore(storeID)
}

// Session exposes the session store.
func (a *App) Session() *session.Manager { return a.sessions }

// Nav exposes the navigator.
func (a *App) Nav() *nav.Navigator { return a.nav }

// Sync exposes the cart synchronizer.
func (a *App) Sync() *cartsync.Synchronizer { return a.sync }

// Checkout exposes the checkout orchestrator.
func (a *App) Checkout() *checkout.Orchestrator { return a.checkout }

// Admin exposes the admin service.
func (a *App) Admin() *admin.Service { return a.admin }

// onViewChange runs the reactive refreshes: every view change refetches both
// cart and orders for the active scope, and entering the admin route also
// drops the cached store listing so the platform operator always sees a
// fresh one.
func (a *App) onViewChange(view enums.View) {
	ctx := context.Background()
	if view == enums.ViewAdmin {
		a.admin.InvalidateStores()
	}
	a.refreshAll(ctx)
}

// refreshAll pulls cart and orders for the active scope. A platform operator
// without a drill-down selection has no scope, so nothing is fetched.
// Failures are already absorbed by the synchronizer; the combined error is
// logged here and goes no further.
func (a *App) refreshAll(ctx context.Context) {
	identity := a.sessions.Current()
	if identity == nil || identity.StoreID == nil {
		return
	}
	err := multierr.Combine(
		a.sync.RefreshCart(ctx),
		a.sync.RefreshOrders(ctx),
	)
	if err != nil {
		a.log.Debug(ctx, fmt.Sprintf("refresh incomplete: %v", err))
	}
}
