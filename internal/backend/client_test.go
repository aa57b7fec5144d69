package backend

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	pkgerrors "github.com/scanbill/pos-client/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("http://pos.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("   ")
	if err == nil {
		t.Fatal("expected error for missing base URL")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConfig {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestFetchCartScopesByStore(t *testing.T) {
	userID := uuid.New()
	storeID := uuid.New()

	var capturedURL string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return jsonResponse(http.StatusOK, `{"items":[{"serialNumber":"TV-001","productName":"Television","price":499.99}],"totalAmount":499.99}`), nil
	})

	cart, err := client.FetchCart(context.Background(), userID, storeID)
	if err != nil {
		t.Fatalf("fetch cart: %v", err)
	}

	wantURL := "http://pos.test/api/cart/" + userID.String() + "?storeId=" + storeID.String()
	if capturedURL != wantURL {
		t.Fatalf("unexpected URL %q, want %q", capturedURL, wantURL)
	}
	if len(cart.Items) != 1 || cart.Items[0].SerialNumber != "TV-001" {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if !cart.TotalAmount.Equal(decimal.RequireFromString("499.99")) {
		t.Fatalf("unexpected total %s", cart.TotalAmount)
	}
}

func TestAddUnitSurfacesServerMessage(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusConflict, `{"message":"unit TV-001 already reserved"}`), nil
	})

	_, err := client.AddUnit(context.Background(), uuid.New(), "TV-001", uuid.New())
	if err == nil {
		t.Fatal("expected rejection error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeRejected {
		t.Fatalf("expected rejection code, got %v", err)
	}
	if typed.Message() != "unit TV-001 already reserved" {
		t.Fatalf("expected server message preserved, got %q", typed.Message())
	}
}

func TestAddUnitRequiresSerialNumber(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	_, err := client.AddUnit(context.Background(), uuid.New(), "  ", uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveUnitUsesDelete(t *testing.T) {
	var capturedMethod string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedMethod = req.Method
		return jsonResponse(http.StatusOK, `{"items":[],"totalAmount":0}`), nil
	})

	cart, err := client.RemoveUnit(context.Background(), uuid.New(), "TV-001", uuid.New())
	if err != nil {
		t.Fatalf("remove unit: %v", err)
	}
	if capturedMethod != http.MethodDelete {
		t.Fatalf("expected DELETE, got %s", capturedMethod)
	}
	if len(cart.Items) != 0 || !cart.TotalAmount.IsZero() {
		t.Fatalf("unexpected cart %+v", cart)
	}
}

func TestCheckoutAttachesAllScopeParameters(t *testing.T) {
	userID := uuid.New()
	storeID := uuid.New()

	var capturedQuery map[string][]string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedQuery = req.URL.Query()
		return jsonResponse(http.StatusOK, `{"id":"`+uuid.NewString()+`","customerName":"A Lee","customerMobile":"5551234","items":[],"totalAmount":49.98,"timestamp":"2025-06-01T10:00:00Z"}`), nil
	})

	order, err := client.Checkout(context.Background(), CheckoutRequest{
		UserID:         userID,
		CustomerName:   "A Lee",
		CustomerMobile: "5551234",
		StoreID:        storeID,
		IdempotencyKey: "token-1",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	for key, want := range map[string]string{
		"customerName":   "A Lee",
		"customerMobile": "5551234",
		"storeId":        storeID.String(),
		"idempotencyKey": "token-1",
	} {
		if got := capturedQuery[key]; len(got) != 1 || got[0] != want {
			t.Fatalf("query %s: expected %q, got %v", key, want, got)
		}
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("49.98")) {
		t.Fatalf("unexpected order total %s", order.TotalAmount)
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	_, err := client.Checkout(context.Background(), CheckoutRequest{UserID: uuid.New(), StoreID: uuid.New()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransportFailureMapsToTransportCode(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, io.ErrUnexpectedEOF
	})

	_, err := client.FetchOrders(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestServerErrorMapsToTransportCode(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusServiceUnavailable, ""), nil
	})

	_, err := client.ListStores(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestDecodeErrorPlainTextBody(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, "Cart is empty"), nil
	})

	_, err := client.Checkout(context.Background(), CheckoutRequest{
		UserID:         uuid.New(),
		StoreID:        uuid.New(),
		IdempotencyKey: "token-1",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeRejected {
		t.Fatalf("expected rejection, got %v", err)
	}
	if typed.Message() != "Cart is empty" {
		t.Fatalf("expected plain text message, got %q", typed.Message())
	}
}

func TestFetchStoreOrdersScopesByStoreOnly(t *testing.T) {
	storeID := uuid.New()

	var capturedURL string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return jsonResponse(http.StatusOK, `[{"customerName":"A Lee","totalAmount":49.98}]`), nil
	})

	orders, err := client.FetchStoreOrders(context.Background(), storeID)
	if err != nil {
		t.Fatalf("fetch store orders: %v", err)
	}

	wantURL := "http://pos.test/api/admin/orders?storeId=" + storeID.String()
	if capturedURL != wantURL {
		t.Fatalf("unexpected URL %q, want %q", capturedURL, wantURL)
	}
	if len(orders) != 1 || orders[0].CustomerName != "A Lee" {
		t.Fatalf("unexpected orders %+v", orders)
	}
}

func TestAddInventoryValidatesInput(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if err := client.AddInventory(context.Background(), "", 5, uuid.New()); err == nil {
		t.Fatal("expected error for missing barcode")
	}
	if err := client.AddInventory(context.Background(), "BC-1", 0, uuid.New()); err == nil {
		t.Fatal("expected error for non-positive quantity")
	}
}

func TestLoginDecodesIdentity(t *testing.T) {
	storeID := uuid.New()
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/auth/login" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"id":"`+uuid.NewString()+`","username":"alice","role":"ADMIN","storeId":"`+storeID.String()+`","secret":"hunter2"}`), nil
	})

	result, err := client.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Username != "alice" || result.Role != "ADMIN" {
		t.Fatalf("unexpected identity %+v", result)
	}
	if result.StoreID == nil || *result.StoreID != storeID {
		t.Fatalf("unexpected store id %v", result.StoreID)
	}
}
