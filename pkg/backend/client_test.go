package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/pagination"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL+"/", "secret-token", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "code": status, "message": "ok", "data": data})
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  ", ""); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestCreateOrderSendsPayload(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		writeEnvelope(w, http.StatusCreated, map[string]any{"id": 981, "name": "#981"})
	})

	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		AssigneeID: 7,
		CustomerID: 3,
		LocationID: 2,
		SourceID:   5,
		LineItems:  []LineItem{{VariantID: 11, Quantity: 2, Price: Amount(decimal.RequireFromString("1500.50"))}},
		Transactions: []TransactionRequest{{
			Amount:          Amount(decimal.NewFromInt(3001)),
			Status:          enums.TransactionStatusSuccess,
			PaymentMethodID: 1,
		}},
		Fulfillment: &Fulfillment{
			DeliveryMethod: enums.DeliveryMethodPickup,
			DeliveryStatus: enums.ShipmentStatusDelivered,
		},
		ShippingLines: []ShippingLine{},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != 981 {
		t.Fatalf("unexpected order %+v", order)
	}

	lines := captured["line_items"].([]any)
	line := lines[0].(map[string]any)
	if line["price"].(float64) != 1500.5 {
		t.Fatalf("price must be sent as a number, got %v", line["price"])
	}
	tx := captured["transactions"].([]any)[0].(map[string]any)
	if tx["status"].(float64) != 2 {
		t.Fatalf("expected settled status 2, got %v", tx["status"])
	}
	fulfillment := captured["fulfillment"].(map[string]any)
	if fulfillment["delivery_method"] != "pickup" || fulfillment["send_notification"] != false {
		t.Fatalf("unexpected fulfillment %v", fulfillment)
	}
	if shipping, ok := captured["shipping_lines"].([]any); !ok || len(shipping) != 0 {
		t.Fatalf("shipping lines must be an empty array, got %v", captured["shipping_lines"])
	}
}

func TestErrorStatusCarriesServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"message":"variant 11 is out of stock","code":400,"data":null}`)
	})

	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{})
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected APIError, got %v", err)
	}
	if ServerMessage(err) != "variant 11 is out of stock" {
		t.Fatalf("unexpected server message %q", ServerMessage(err))
	}
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency code, got %v", err)
	}
}

func TestUnsuccessfulEnvelopeIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"success":false,"message":"location closed","code":422,"data":null}`)
	})
	_, err := client.ListSources(context.Background())
	if ServerMessage(err) != "location closed" {
		t.Fatalf("expected server message, got %v", err)
	}
}

func TestListVariantsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "tea" || q.Get("page") != "2" || q.Get("limit") != "50" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		writeEnvelope(w, http.StatusOK, map[string]any{
			"count": 1,
			"variants": []map[string]any{{
				"id": 11, "product_name": "Green tea", "title": "Large", "price": 1500,
				"inventory_quantity": 4, "unit": "cup", "image": map[string]any{"url": "https://cdn/x.png"},
			}},
		})
	})

	page, err := client.ListVariants(context.Background(), pagination.Params{Key: "tea", Page: 2, Limit: 50})
	if err != nil {
		t.Fatalf("list variants: %v", err)
	}
	if page.Count != 1 || len(page.Variants) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	v := page.Variants[0]
	if !v.Price.Equal(decimal.NewFromInt(1500)) || v.InventoryQuantity != 4 || v.Image == nil {
		t.Fatalf("unexpected variant %+v", v)
	}
}

func TestGetOrderPrint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/admin/orders/981/print") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeEnvelope(w, http.StatusOK, "<html><body><p>Thanks</p></body></html>")
	})
	doc, err := client.GetOrderPrint(context.Background(), 981)
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(doc, "Thanks") {
		t.Fatalf("unexpected document %q", doc)
	}
}

func TestCreateCustomerValidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusCreated, map[string]any{"id": 44, "first_name": "Ana", "phone": "0901"})
	})
	if _, err := client.CreateCustomer(context.Background(), CreateCustomerRequest{}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	customer, err := client.CreateCustomer(context.Background(), CreateCustomerRequest{FirstName: "Ana", Phone: "0901"})
	if err != nil || customer.ID != 44 {
		t.Fatalf("unexpected customer %+v err=%v", customer, err)
	}
}
