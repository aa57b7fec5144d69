package nav

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	pkgerrors "github.com/scanbill/pos-client/pkg/errors"
	"github.com/scanbill/pos-client/pkg/enums"
)

// GateKeeper is the authorization gate's navigation interface. Require
// returns true when navigation may proceed and false when a challenge was
// opened instead.
type GateKeeper interface {
	Require(target enums.View) bool
}

// routingTable maps each role onto its reachable navigation targets. The
// admin view is absent for customers by construction; the gate never has to
// consider them.
var routingTable = map[enums.Role][]enums.View{
	enums.RoleCustomer: {
		enums.ViewCatalog, enums.ViewCart, enums.ViewCheckout, enums.ViewHistory,
	},
	enums.RoleAdmin: {
		enums.ViewCatalog, enums.ViewCart, enums.ViewCheckout, enums.ViewHistory, enums.ViewAdmin,
	},
	enums.RoleSuperAdmin: {
		enums.ViewCatalog, enums.ViewCart, enums.ViewCheckout, enums.ViewHistory, enums.ViewAdmin,
	},
}

// Navigator owns the active view and the platform drill-down state machine:
// Listing (no selection) or StoreDetail (a selected store scoping the admin
// view).
type Navigator struct {
	mu              sync.Mutex
	gate            GateKeeper
	onChange        func(view enums.View)
	active          enums.View
	selectedStoreID *uuid.UUID
}

func New(gate GateKeeper) (*Navigator, error) {
	if gate == nil {
		return nil, fmt.Errorf("gate required")
	}
	return &Navigator{gate: gate, active: enums.ViewCatalog}, nil
}

// OnChange registers the reactive hook fired after every view change.
func (n *Navigator) OnChange(hook func(view enums.View)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = hook
}

// ReachableViews returns the navigation targets offered to the role.
func (n *Navigator) ReachableViews(role enums.Role) []enums.View {
	views := routingTable[role]
	return append([]enums.View(nil), views...)
}

// Reachable reports whether the role may ever navigate to the view.
func (n *Navigator) Reachable(role enums.Role, view enums.View) bool {
	for _, candidate := range routingTable[role] {
		if candidate == view {
			return true
		}
	}
	return false
}

// DefaultView returns the initial view selected at login for the role.
func (n *Navigator) DefaultView(role enums.Role) enums.View {
	if role.IsAdministrative() {
		return enums.ViewAdmin
	}
	return enums.ViewCatalog
}

// Request navigates to the view, enforcing the role routing table and the
// authorization gate. A gated request that opens a challenge leaves the
// active view unchanged and returns nil; the gate completes the navigation
// when the challenge passes.
func (n *Navigator) Request(role enums.Role, view enums.View) error {
	if !view.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown view %q", view))
	}
	if !n.Reachable(role, view) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, fmt.Sprintf("view %s not available", view))
	}
	if view == enums.ViewAdmin && !n.gate.Require(view) {
		return nil
	}
	n.Activate(view)
	return nil
}

// Activate sets the active view directly, bypassing the gate. Entering the
// admin route always resets the drill-down position; leaving and returning
// never resumes a prior selection.
func (n *Navigator) Activate(view enums.View) {
	n.mu.Lock()
	if view == enums.ViewAdmin {
		n.selectedStoreID = nil
	}
	changed := n.active != view
	n.active = view
	hook := n.onChange
	n.mu.Unlock()

	if changed && hook != nil {
		hook(view)
	}
}

// Active returns the current view.
func (n *Navigator) Active() enums.View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

// SelectStore drills from the platform listing into one store's admin view.
func (n *Navigator) SelectStore(storeID uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.active != enums.ViewAdmin {
		return pkgerrors.New(pkgerrors.CodeValidation, "store selection requires the admin view")
	}
	id := storeID
	n.selectedStoreID = &id
	return nil
}

// SelectedStore returns the drill-down selection, or nil for the listing.
func (n *Navigator) SelectedStore() *uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.selectedStoreID == nil {
		return nil
	}
	cpy := *n.selectedStoreID
	return &cpy
}

// Back returns from the scoped admin view to the platform listing.
func (n *Navigator) Back() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.selectedStoreID = nil
}

// Reset restores the initial navigation state. Registered as a logout reset
// hook.
func (n *Navigator) Reset() {
	n.mu.Lock()
	n.selectedStoreID = nil
	n.active = enums.ViewCatalog
	n.mu.Unlock()
}
