package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/scanbill/pos-client/pkg/errors"
)

const errorBodyReadLimit int64 = 1024

// Client talks to the point-of-sale backend API. Every call is scoped by an
// explicit store identifier except the platform-level listing and
// registration endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a backend client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "backend base URL is required")
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Login authenticates the operator and returns the backend identity payload.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	body := map[string]string{"username": username, "password": password}
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchCart returns the authoritative cart for (userID, storeID).
func (c *Client) FetchCart(ctx context.Context, userID, storeID uuid.UUID) (*Cart, error) {
	query := url.Values{"storeId": {storeID.String()}}
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/api/cart/"+userID.String(), query, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddUnit reserves a serialized unit and returns the resulting cart.
func (c *Client) AddUnit(ctx context.Context, userID uuid.UUID, serialNumber string, storeID uuid.UUID) (*Cart, error) {
	if strings.TrimSpace(serialNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number is required")
	}
	query := url.Values{
		"serialNumber": {serialNumber},
		"storeId":      {storeID.String()},
	}
	var cart Cart
	if err := c.do(ctx, http.MethodPost, "/api/cart/"+userID.String()+"/add", query, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveUnit releases a serialized unit and returns the resulting cart.
func (c *Client) RemoveUnit(ctx context.Context, userID uuid.UUID, serialNumber string, storeID uuid.UUID) (*Cart, error) {
	if strings.TrimSpace(serialNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number is required")
	}
	query := url.Values{
		"serialNumber": {serialNumber},
		"storeId":      {storeID.String()},
	}
	var cart Cart
	if err := c.do(ctx, http.MethodDelete, "/api/cart/"+userID.String()+"/remove", query, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// FetchOrders returns the order history for the store.
func (c *Client) FetchOrders(ctx context.Context, storeID uuid.UUID) ([]Order, error) {
	query := url.Values{"storeId": {storeID.String()}}
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Checkout submits the purchase handshake and returns the created order.
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	if req.IdempotencyKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	query := url.Values{
		"customerName":   {req.CustomerName},
		"customerMobile": {req.CustomerMobile},
		"storeId":        {req.StoreID.String()},
		"idempotencyKey": {req.IdempotencyKey},
	}
	var order Order
	if err := c.do(ctx, http.MethodPost, "/api/orders/checkout/"+req.UserID.String(), query, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListStores returns the platform-level store listing.
func (c *Client) ListStores(ctx context.Context) ([]Store, error) {
	var stores []Store
	if err := c.do(ctx, http.MethodGet, "/api/auth/stores", nil, nil, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// RegisterStore provisions a new store with its initial admin credential.
func (c *Client) RegisterStore(ctx context.Context, req RegisterStoreRequest) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register-store", nil, req, nil)
}

// ListProducts returns the catalog for the store.
func (c *Client) ListProducts(ctx context.Context, storeID uuid.UUID) ([]Product, error) {
	query := url.Values{"storeId": {storeID.String()}}
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/api/products", query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct adds a catalog entry and seeds its initial stock.
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest, initialStock int) (*Product, error) {
	query := url.Values{"initialStock": {strconv.Itoa(initialStock)}}
	var product Product
	if err := c.do(ctx, http.MethodPost, "/api/admin/products", query, req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a catalog entry.
func (c *Client) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/products/"+productID.String(), nil, nil, nil)
}

// AddInventory tops up stock for a barcode in the store.
func (c *Client) AddInventory(ctx context.Context, barcode string, quantity int, storeID uuid.UUID) error {
	if strings.TrimSpace(barcode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	query := url.Values{
		"barcode":  {barcode},
		"quantity": {strconv.Itoa(quantity)},
		"storeId":  {storeID.String()},
	}
	return c.do(ctx, http.MethodPost, "/api/admin/inventory/add", query, nil, nil)
}

// FetchStoreOrders lists a store's order history through the admin surface.
// Unlike FetchOrders it carries no identity scoping, so a platform operator
// can audit any store they have drilled into.
func (c *Client) FetchStoreOrders(ctx context.Context, storeID uuid.UUID) ([]Order, error) {
	query := url.Values{"storeId": {storeID.String()}}
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/api/admin/orders", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// FetchStats returns revenue and order counts for the store.
func (c *Client) FetchStats(ctx context.Context, storeID uuid.UUID) (*StoreStats, error) {
	query := url.Values{"storeId": {storeID.String()}}
	var stats StoreStats
	if err := c.do(ctx, http.MethodGet, "/api/admin/stats", query, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeConfig, "backend client not configured")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "decode response")
	}
	return nil
}

// decodeError maps a non-2xx response onto the client error taxonomy,
// preserving the server-supplied message when one is present.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	message := extractMessage(raw)
	if message == "" {
		message = fmt.Sprintf("backend returned status %d", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	case resp.StatusCode >= http.StatusInternalServerError:
		return pkgerrors.New(pkgerrors.CodeTransport, message)
	default:
		return pkgerrors.New(pkgerrors.CodeRejected, message)
	}
}

func extractMessage(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if strings.HasPrefix(trimmed, "\"") {
		var plain string
		if err := json.Unmarshal(raw, &plain); err == nil {
			return plain
		}
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ""
	}
	return trimmed
}
