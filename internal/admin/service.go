package admin

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scanbill/pos-client/internal/backend"
	pkgerrors "github.com/scanbill/pos-client/pkg/errors"
	"github.com/scanbill/pos-client/pkg/logger"
	"github.com/scanbill/pos-client/pkg/notify"
)

// API is the slice of the backend client the admin service needs.
type API interface {
	FetchStats(ctx context.Context, storeID uuid.UUID) (*backend.StoreStats, error)
	ListProducts(ctx context.Context, storeID uuid.UUID) ([]backend.Product, error)
	FetchStoreOrders(ctx context.Context, storeID uuid.UUID) ([]backend.Order, error)
	CreateProduct(ctx context.Context, req backend.CreateProductRequest, initialStock int) (*backend.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	AddInventory(ctx context.Context, barcode string, quantity int, storeID uuid.UUID) error
	ListStores(ctx context.Context) ([]backend.Store, error)
	RegisterStore(ctx context.Context, req backend.RegisterStoreRequest) error
}

// ProductForm is the operator input for a new catalog entry. Price validity
// is checked separately because it is not a string field.
type ProductForm struct {
	Barcode      string `validate:"required"`
	Name         string `validate:"required"`
	Price        decimal.Decimal
	Category     string `validate:"required"`
	ImageURL     string
	InitialStock int `validate:"min=0"`
}

// StoreForm provisions a new store together with its first admin credential.
type StoreForm struct {
	Name          string `validate:"required"`
	Location      string `validate:"required"`
	AdminUsername string `validate:"required"`
	AdminPassword string `validate:"required,min=4"`
}

// Service exposes store-scoped administrative operations. Scope is always an
// explicit store ID supplied by the caller: an admin's own store, or the
// drill-down selection on the platform listing.
type Service struct {
	mu       sync.Mutex
	api      API
	log      *logger.Logger
	notifier notify.Notifier
	validate *validator.Validate

	stores []backend.Store
}

func New(api API, log *logger.Logger, notifier notify.Notifier) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("backend api required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &Service{
		api:      api,
		log:      log,
		notifier: notifier,
		validate: validator.New(),
	}, nil
}

// Stats fetches the revenue and order summary for the store.
func (s *Service) Stats(ctx context.Context, storeID uuid.UUID) (*backend.StoreStats, error) {
	stats, err := s.api.FetchStats(ctx, storeID)
	if err != nil {
		s.log.Debug(s.log.WithStoreID(ctx, storeID.String()), fmt.Sprintf("stats fetch failed: %v", err))
		return nil, err
	}
	return stats, nil
}

// Products lists the store's catalog.
func (s *Service) Products(ctx context.Context, storeID uuid.UUID) ([]backend.Product, error) {
	return s.api.ListProducts(ctx, storeID)
}

// Orders lists the store's order history for auditing. Scoped purely by the
// store, so a drilled-in platform operator sees the same history the store's
// own admin does.
func (s *Service) Orders(ctx context.Context, storeID uuid.UUID) ([]backend.Order, error) {
	return s.api.FetchStoreOrders(ctx, storeID)
}

// CreateProduct validates the form and adds the catalog entry with its
// initial serialized stock. Outcomes are announced either way.
func (s *Service) CreateProduct(ctx context.Context, storeID uuid.UUID, form ProductForm) (*backend.Product, error) {
	if err := s.validate.Struct(form); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "incomplete product form")
	}
	if !form.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	product, err := s.api.CreateProduct(ctx, backend.CreateProductRequest{
		Barcode:  form.Barcode,
		Name:     form.Name,
		Price:    form.Price,
		Category: form.Category,
		ImageURL: form.ImageURL,
		StoreID:  storeID,
	}, form.InitialStock)
	if err != nil {
		s.notifyError(err)
		return nil, err
	}

	s.notifier.Notify(notify.Notification{
		Message:  fmt.Sprintf("Product Added: %s", product.Name),
		Severity: notify.SeveritySuccess,
	})
	return product, nil
}

// DeleteProduct removes the catalog entry.
func (s *Service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.api.DeleteProduct(ctx, productID); err != nil {
		s.notifyError(err)
		return err
	}
	s.notifier.Notify(notify.Notification{
		Message:  "Product Removed",
		Severity: notify.SeverityInfo,
	})
	return nil
}

// AddInventory registers additional serialized units for the barcode.
func (s *Service) AddInventory(ctx context.Context, storeID uuid.UUID, barcode string, quantity int) error {
	if barcode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "barcode required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if err := s.api.AddInventory(ctx, barcode, quantity, storeID); err != nil {
		s.notifyError(err)
		return err
	}
	s.notifier.Notify(notify.Notification{
		Message:  fmt.Sprintf("Inventory Updated: +%d", quantity),
		Severity: notify.SeveritySuccess,
	})
	return nil
}

// Stores returns the platform store listing, serving a cached copy after the
// first successful fetch. The cache lives for one visit to the platform
// listing; InvalidateStores drops it.
func (s *Service) Stores(ctx context.Context) ([]backend.Store, error) {
	s.mu.Lock()
	if s.stores != nil {
		cached := append([]backend.Store(nil), s.stores...)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	stores, err := s.api.ListStores(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stores = stores
	s.mu.Unlock()
	return append([]backend.Store(nil), stores...), nil
}

// InvalidateStores drops the cached listing so the next visit refetches.
func (s *Service) InvalidateStores() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores = nil
}

// RegisterStore validates the form and provisions the store with its initial
// admin credential, then invalidates the listing so the new store appears.
func (s *Service) RegisterStore(ctx context.Context, form StoreForm) error {
	if err := s.validate.Struct(form); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "incomplete store form")
	}

	err := s.api.RegisterStore(ctx, backend.RegisterStoreRequest{
		Name:          form.Name,
		Location:      form.Location,
		AdminUsername: form.AdminUsername,
		AdminPassword: form.AdminPassword,
	})
	if err != nil {
		s.notifyError(err)
		return err
	}

	s.InvalidateStores()
	s.notifier.Notify(notify.Notification{
		Message:  fmt.Sprintf("Store Registered: %s", form.Name),
		Severity: notify.SeveritySuccess,
	})
	return nil
}

func (s *Service) notifyError(err error) {
	s.notifier.Notify(notify.Notification{
		Message:  pkgerrors.PublicMessage(err),
		Severity: notify.SeverityError,
	})
}
