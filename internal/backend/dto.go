package backend

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoginResult is the identity payload returned by the backend on login.
type LoginResult struct {
	ID       uuid.UUID  `json:"id"`
	Username string     `json:"username"`
	Role     string     `json:"role"`
	StoreID  *uuid.UUID `json:"storeId,omitempty"`
	Secret   string     `json:"secret"`
}

// CartItem is one reserved serialized unit.
type CartItem struct {
	SerialNumber string          `json:"serialNumber"`
	ProductName  string          `json:"productName"`
	Price        decimal.Decimal `json:"price"`
}

// Cart is the authoritative cart representation. The client never computes
// totals itself; TotalAmount is always the server's figure.
type Cart struct {
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Order is an immutable completed purchase.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	CustomerName   string          `json:"customerName"`
	CustomerMobile string          `json:"customerMobile"`
	Items          []CartItem      `json:"items"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Store is a tenant visible to the platform listing.
type Store struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location"`
}

// Product is a catalog entry scoped to a store.
type Product struct {
	ID       uuid.UUID       `json:"id"`
	Barcode  string          `json:"barcode"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	ImageURL string          `json:"imageUrl,omitempty"`
	StoreID  uuid.UUID       `json:"storeId"`
}

// StoreStats summarizes a store's processed revenue and order count.
type StoreStats struct {
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalOrders  int             `json:"totalOrders"`
}

// CheckoutRequest carries a single checkout submission.
type CheckoutRequest struct {
	UserID         uuid.UUID
	CustomerName   string
	CustomerMobile string
	StoreID        uuid.UUID
	IdempotencyKey string
}

// RegisterStoreRequest provisions a store with an initial admin credential.
type RegisterStoreRequest struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	AdminUsername string `json:"adminUsername"`
	AdminPassword string `json:"adminPassword"`
}

// CreateProductRequest adds a catalog entry to a store.
type CreateProductRequest struct {
	Barcode  string          `json:"barcode"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	ImageURL string          `json:"imageUrl,omitempty"`
	StoreID  uuid.UUID       `json:"storeId"`
}
