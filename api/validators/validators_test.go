package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
)

type paymentBody struct {
	MethodID int64           `json:"method_id" validate:"required,gt=0"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	Percent  decimal.Decimal `json:"percent" validate:"gte=0,lte=100"`
}

func TestDecodeJSONBody(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
		field   string
	}{
		{"valid", `{"method_id":1,"amount":"12.50","percent":10}`, false, ""},
		{"empty body", ``, true, ""},
		{"unknown field", `{"method_id":1,"amount":"1","tip":2}`, true, ""},
		{"trailing object", `{"method_id":1,"amount":"1"}{"method_id":2}`, true, ""},
		{"zero amount", `{"method_id":1,"amount":"0"}`, true, "amount"},
		{"discount above range", `{"method_id":1,"amount":"1","percent":"100.5"}`, true, "percent"},
		{"missing method", `{"amount":"1"}`, true, "method_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest paymentBody
			err := DecodeJSONBody(req, &dest)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !dest.Amount.Equal(decimal.RequireFromString("12.5")) {
					t.Fatalf("unexpected amount %s", dest.Amount)
				}
				return
			}
			if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tc.field == "" {
				return
			}
			details, ok := pkgerrors.As(err).Details().(map[string]string)
			if !ok || details[tc.field] == "" {
				t.Fatalf("expected detail for %s, got %#v", tc.field, pkgerrors.As(err).Details())
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	cases := map[string]struct {
		in   string
		max  int
		want string
	}{
		"trims":             {"  ca phe  ", 0, "ca phe"},
		"drops control":     {"line\x00one\ttwo", 0, "lineonetwo"},
		"cuts on runes":     {"Phở bò tái", 3, "Phở"},
		"short input stays": {"trà", 10, "trà"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := SanitizeString(tc.in, tc.max); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestParsePathID(t *testing.T) {
	r := chi.NewRouter()
	var got int64
	var gotErr error
	r.Get("/tabs/{id}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = ParsePathID(req, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tabs/3", nil))
	if gotErr != nil || got != 3 {
		t.Fatalf("expected 3, got %d (%v)", got, gotErr)
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tabs/0", nil))
	if !pkgerrors.Is(gotErr, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero id, got %v", gotErr)
	}
}

func TestParseOptionalQueryID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?location_id=7", nil)
	if id, err := ParseOptionalQueryID(req, "location_id"); err != nil || id != 7 {
		t.Fatalf("expected 7, got %d (%v)", id, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if id, err := ParseOptionalQueryID(req, "location_id"); err != nil || id != 0 {
		t.Fatalf("expected absent, got %d (%v)", id, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/?location_id=-2", nil)
	if _, err := ParseOptionalQueryID(req, "location_id"); err == nil {
		t.Fatal("expected error for negative id")
	}
}
