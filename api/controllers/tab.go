package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	"github.com/angelmondragon/pos-terminal/internal/paymentmethods"
	"github.com/angelmondragon/pos-terminal/internal/tabs"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

type noteRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// TabNote sets the order-level note of the active tab.
func TabNote(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload noteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab, err := store.UpdateNote(r.Context(), validators.SanitizeString(payload.Note, maxNoteLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTabResponse(tab, store.TaxRate()))
	}
}

type discountRequest struct {
	Percent decimal.Decimal `json:"percent" validate:"gte=0,lte=100"`
}

// TabDiscount sets the active tab's discount percentage.
func TabDiscount(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab, err := store.UpdateDiscount(r.Context(), payload.Percent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTabResponse(tab, store.TaxRate()))
	}
}

type printReceiptRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// TabPrintReceipt toggles whether checkout prints a receipt for the active tab.
func TabPrintReceipt(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload printReceiptRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab, err := store.UpdatePrintReceipt(r.Context(), *payload.Enabled)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTabResponse(tab, store.TaxRate()))
	}
}

type customerRequest struct {
	CustomerID *int64 `json:"customer_id" validate:"omitempty,gt=0"`
	FirstName  string `json:"first_name" validate:"max=100"`
	LastName   string `json:"last_name" validate:"max=100"`
	Phone      string `json:"phone" validate:"max=32"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func (p customerRequest) snapshot() *tabs.CustomerSnapshot {
	if p.CustomerID == nil {
		return nil
	}
	return &tabs.CustomerSnapshot{
		ID:        *p.CustomerID,
		FirstName: validators.SanitizeString(p.FirstName, 100),
		LastName:  validators.SanitizeString(p.LastName, 100),
		Phone:     validators.SanitizeString(p.Phone, 32),
		Email:     strings.TrimSpace(p.Email),
	}
}

// TabCustomer binds a customer to the active tab; a null customer_id clears it.
func TabCustomer(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload customerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab, err := store.UpdateCustomer(r.Context(), payload.CustomerID, payload.snapshot())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTabResponse(tab, store.TaxRate()))
	}
}

type addTransactionRequest struct {
	PaymentMethodID int64           `json:"payment_method_id" validate:"required,gt=0"`
	Amount          decimal.Decimal `json:"amount" validate:"gt=0"`
}

type transactionResponse struct {
	Transaction tabs.Transaction `json:"transaction"`
	tabResponse
}

// TabTransactionAdd records a payment against the active tab. The method name
// is resolved from the backend so receipts show what the cashier picked.
func TabTransactionAdd(store *tabs.Store, methods paymentmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if methods == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}
		var payload addTransactionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := methods.Lookup(r.Context(), payload.PaymentMethodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tx, err := store.AddTransaction(r.Context(), method.ID, method.Name, payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transactionResponse{
			Transaction: tx,
			tabResponse: newTabResponse(store.ActiveTab(), store.TaxRate()),
		})
	}
}

// TabTransactionRemove deletes one payment from the active tab.
func TabTransactionRemove(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required"))
			return
		}
		tab, err := store.RemoveTransaction(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTabResponse(tab, store.TaxRate()))
	}
}

type totalsResponse struct {
	TabID int `json:"tab_id"`
	tabs.Balance
}

// TabTotals returns the active tab's money breakdown and what is still due.
func TabTotals(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab := store.ActiveTab()
		responses.WriteSuccess(w, totalsResponse{TabID: tab.ID, Balance: tabs.BalanceFor(tab, store.TaxRate())})
	}
}
