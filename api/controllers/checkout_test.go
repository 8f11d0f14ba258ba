package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/pos-terminal/api/middleware"
	"github.com/angelmondragon/pos-terminal/internal/checkout"
	"github.com/angelmondragon/pos-terminal/internal/locations"
	"github.com/angelmondragon/pos-terminal/internal/tabs"
	"github.com/angelmondragon/pos-terminal/pkg/auth"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
)

type stubCheckout struct {
	got    checkout.Request
	result *checkout.Result
	err    error
}

func (s *stubCheckout) Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error) {
	s.got = req
	return s.result, s.err
}

func (s *stubCheckout) Readiness(ctx context.Context, req checkout.Request) checkout.Readiness {
	s.got = req
	violations := checkout.Evaluate(checkoutTestTab(), req)
	return checkout.Readiness{TabID: 1, Ready: len(violations) == 0, Violations: violations}
}

type stubLocations struct {
	selected *backend.Location
	err      error
}

func (s stubLocations) List(ctx context.Context) (*locations.Listing, error) {
	return &locations.Listing{}, nil
}

func (s stubLocations) Selected(ctx context.Context) (*backend.Location, error) {
	return s.selected, s.err
}

func (s stubLocations) Select(ctx context.Context, id int64) (*backend.Location, error) {
	return &backend.Location{ID: id}, nil
}

func withOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithOperator(r.Context(), auth.Operator{ID: 12, Name: "Minh"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func checkoutRouter(svc checkout.Service, locs locations.Service, signedIn bool) chi.Router {
	r := chi.NewRouter()
	if signedIn {
		r.Use(withOperator)
	}
	r.Get("/checkout/readiness", CheckoutReadiness(svc, locs, nil))
	r.Post("/checkout", CheckoutSubmit(svc, locs, nil))
	return r
}

func TestCheckoutSubmitUsesSelectedLocationAndOperator(t *testing.T) {
	done := make(chan struct{})
	svc := &stubCheckout{result: &checkout.Result{OrderID: 900, OrderName: "#900", TabID: 1, Printed: true, Done: done}}
	r := checkoutRouter(svc, stubLocations{selected: &backend.Location{ID: 4}}, true)

	rec := serve(t, r, http.MethodPost, "/checkout", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.got.LocationID != 4 {
		t.Fatalf("expected persisted location 4, got %d", svc.got.LocationID)
	}
	if svc.got.Operator == nil || svc.got.Operator.ID != 12 {
		t.Fatalf("expected operator from context, got %+v", svc.got.Operator)
	}

	var resp checkoutResponse
	decodeData(t, rec, &resp)
	if resp.OrderID != 900 || !resp.CleanupPending || resp.PrintWarning != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCheckoutSubmitExplicitLocationWins(t *testing.T) {
	closed := make(chan struct{})
	close(closed)
	svc := &stubCheckout{result: &checkout.Result{OrderID: 1, Done: closed}}
	r := checkoutRouter(svc, stubLocations{selected: &backend.Location{ID: 4}}, true)

	rec := serve(t, r, http.MethodPost, "/checkout", `{"location_id":9}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.got.LocationID != 9 {
		t.Fatalf("expected explicit location 9, got %d", svc.got.LocationID)
	}
	var resp checkoutResponse
	decodeData(t, rec, &resp)
	if resp.CleanupPending {
		t.Fatal("cleanup already finished")
	}
}

func TestCheckoutSubmitReportsPrintWarning(t *testing.T) {
	closed := make(chan struct{})
	close(closed)
	svc := &stubCheckout{result: &checkout.Result{
		OrderID:    5,
		PrintError: pkgerrors.New(pkgerrors.CodePrint, "printer offline"),
		Done:       closed,
	}}
	r := checkoutRouter(svc, stubLocations{selected: &backend.Location{ID: 4}}, true)

	rec := serve(t, r, http.MethodPost, "/checkout", "")
	var resp checkoutResponse
	decodeData(t, rec, &resp)
	if resp.PrintWarning == nil || resp.PrintWarning.Code != string(pkgerrors.CodePrint) || resp.PrintWarning.Message != "printer offline" {
		t.Fatalf("unexpected print warning %+v", resp.PrintWarning)
	}
}

func TestCheckoutSubmitErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   pkgerrors.Code
	}{
		{"precondition", pkgerrors.New(pkgerrors.CodePrecondition, "add products to the cart"), http.StatusUnprocessableEntity, pkgerrors.CodePrecondition},
		{"in flight", pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress"), http.StatusConflict, pkgerrors.CodeConflict},
		{"submission", pkgerrors.New(pkgerrors.CodeSubmission, "out of stock"), http.StatusBadGateway, pkgerrors.CodeSubmission},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCheckout{err: tc.err}
			r := checkoutRouter(svc, stubLocations{selected: &backend.Location{ID: 4}}, true)
			rec := serve(t, r, http.MethodPost, "/checkout", "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d got %d", tc.wantStatus, rec.Code)
			}
			if code := decodeErrorCode(t, rec); code != string(tc.wantCode) {
				t.Fatalf("expected %s got %s", tc.wantCode, code)
			}
		})
	}
}

func TestCheckoutReadinessWithoutLocationOrOperator(t *testing.T) {
	svc := &stubCheckout{}
	r := checkoutRouter(svc, stubLocations{err: pkgerrors.New(pkgerrors.CodeNotFound, "no locations")}, false)

	rec := serve(t, r, http.MethodGet, "/checkout/readiness", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp checkout.Readiness
	decodeData(t, rec, &resp)
	if resp.Ready || len(resp.Violations) < 2 {
		t.Fatalf("expected violations, got %+v", resp)
	}
	if resp.Violations[0].Reason != checkout.ReasonLocationRequired || resp.Violations[1].Reason != checkout.ReasonOperatorRequired {
		t.Fatalf("unexpected order %+v", resp.Violations)
	}

	if rec := serve(t, r, http.MethodGet, "/checkout/readiness?location_id=x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func checkoutTestTab() tabs.Tab {
	tab := tabs.NewTab(1, "tab-key")
	tab.Cart = []tabs.CartLine{{Product: tabs.Product{ID: 1, Name: "Tea", Stock: 3}, Quantity: 1}}
	return tab
}
