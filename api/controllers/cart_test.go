package controllers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func cartRouter(t *testing.T) chi.Router {
	t.Helper()
	store := newTestStore(t)
	r := chi.NewRouter()
	r.Post("/cart/items", CartAddItem(store, nil))
	r.Patch("/cart/items/{productID}", CartUpdateItem(store, nil))
	r.Delete("/cart/items/{productID}", CartRemoveItem(store, nil))
	r.Delete("/cart", CartClear(store, nil))
	r.Put("/tab/discount", TabDiscount(store, nil))
	return r
}

const teaItem = `{"product_id":5,"name":"Tea","sku":" TEA-1 ","price":"10","stock":4}`

func TestCartAddItemIncrementsQuantity(t *testing.T) {
	r := cartRouter(t)
	serve(t, r, http.MethodPost, "/cart/items", teaItem)
	rec := serve(t, r, http.MethodPost, "/cart/items", teaItem)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp tabResponse
	decodeData(t, rec, &resp)
	if len(resp.Tab.Cart) != 1 || resp.Tab.Cart[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", resp.Tab.Cart)
	}
	if resp.Tab.Cart[0].Product.SKU != "TEA-1" {
		t.Fatalf("sku not sanitized: %q", resp.Tab.Cart[0].Product.SKU)
	}
	if !resp.Balance.Total.Equal(decimal.NewFromInt(22)) {
		t.Fatalf("expected total 22, got %s", resp.Balance.Total)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	r := cartRouter(t)
	cases := []struct {
		name string
		body string
	}{
		{"missing product id", `{"name":"Tea","price":"1"}`},
		{"missing name", `{"product_id":5,"price":"1"}`},
		{"negative price", `{"product_id":5,"name":"Tea","price":"-1"}`},
		{"unknown field", `{"product_id":5,"name":"Tea","colour":"green"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, r, http.MethodPost, "/cart/items", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rec.Code)
			}
		})
	}
}

func TestCartUpdateItem(t *testing.T) {
	r := cartRouter(t)
	serve(t, r, http.MethodPost, "/cart/items", teaItem)

	rec := serve(t, r, http.MethodPatch, "/cart/items/5", `{"quantity":3,"note":"  no sugar "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp tabResponse
	decodeData(t, rec, &resp)
	line := resp.Tab.Cart[0]
	if line.Quantity != 3 || line.Note != "no sugar" {
		t.Fatalf("unexpected line %+v", line)
	}

	if rec := serve(t, r, http.MethodPatch, "/cart/items/5", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty patch got %d", rec.Code)
	}
	if rec := serve(t, r, http.MethodPatch, "/cart/items/99", `{"quantity":2}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product got %d", rec.Code)
	}
}

func TestCartUpdateItemNonPositiveQuantityRemovesLine(t *testing.T) {
	for _, body := range []string{`{"quantity":0}`, `{"quantity":-5}`, `{"quantity":0,"note":"gone"}`} {
		t.Run(body, func(t *testing.T) {
			r := cartRouter(t)
			serve(t, r, http.MethodPost, "/cart/items", teaItem)
			serve(t, r, http.MethodPost, "/cart/items", `{"product_id":6,"name":"Cake","price":"4","stock":1}`)

			rec := serve(t, r, http.MethodPatch, "/cart/items/5", body)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d", rec.Code)
			}
			var resp tabResponse
			decodeData(t, rec, &resp)
			if len(resp.Tab.Cart) != 1 || resp.Tab.Cart[0].Product.ID != 6 {
				t.Fatalf("expected tea line removed, got %+v", resp.Tab.Cart)
			}
		})
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	r := cartRouter(t)
	serve(t, r, http.MethodPost, "/cart/items", teaItem)
	serve(t, r, http.MethodPost, "/cart/items", `{"product_id":6,"name":"Cake","price":"4","stock":1}`)

	rec := serve(t, r, http.MethodDelete, "/cart/items/5", "")
	var resp tabResponse
	decodeData(t, rec, &resp)
	if len(resp.Tab.Cart) != 1 || resp.Tab.Cart[0].Product.ID != 6 {
		t.Fatalf("unexpected cart after remove %+v", resp.Tab.Cart)
	}

	rec = serve(t, r, http.MethodDelete, "/cart", "")
	decodeData(t, rec, &resp)
	if len(resp.Tab.Cart) != 0 {
		t.Fatalf("expected empty cart, got %+v", resp.Tab.Cart)
	}
}

func TestTabDiscountAppliesBeforeTax(t *testing.T) {
	r := cartRouter(t)
	serve(t, r, http.MethodPost, "/cart/items", teaItem)

	rec := serve(t, r, http.MethodPut, "/tab/discount", `{"percent":"50"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp tabResponse
	decodeData(t, rec, &resp)
	if !resp.Balance.Total.Equal(decimal.RequireFromString("5.5")) {
		t.Fatalf("expected total 5.5, got %s", resp.Balance.Total)
	}

	if rec := serve(t, r, http.MethodPut, "/tab/discount", `{"percent":150}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
