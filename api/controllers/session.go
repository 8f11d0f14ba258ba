package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	"github.com/angelmondragon/pos-terminal/internal/tabs"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

type sessionResponse struct {
	Tabs          []tabs.Tab   `json:"tabs"`
	ActiveTabID   int          `json:"active_tab_id"`
	ActiveBalance tabs.Balance `json:"active_balance"`
}

type tabResponse struct {
	Tab     tabs.Tab     `json:"tab"`
	Balance tabs.Balance `json:"balance"`
}

func newSessionResponse(store *tabs.Store) sessionResponse {
	session := store.Session()
	return sessionResponse{
		Tabs:          session.Tabs,
		ActiveTabID:   session.ActiveTabID,
		ActiveBalance: store.Balance(),
	}
}

func newTabResponse(tab tabs.Tab, taxRate decimal.Decimal) tabResponse {
	return tabResponse{Tab: tab, Balance: tabs.BalanceFor(tab, taxRate)}
}

func storeUnavailable(store *tabs.Store) error {
	if store == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "tab store unavailable")
	}
	return nil
}

// SessionGet returns every open tab and which one is active.
func SessionGet(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(store))
	}
}

// TabCreate opens a new empty tab and makes it active.
func TabCreate(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab := store.AddTab(r.Context())
		responses.WriteSuccessStatus(w, http.StatusCreated, newTabResponse(tab, store.TaxRate()))
	}
}

// TabDelete closes a tab; the remaining tabs are renumbered.
func TabDelete(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.RemoveTab(r.Context(), int(id)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(store))
	}
}

// TabReset empties a tab while keeping its number and name.
func TabReset(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.ResetTab(r.Context(), int(id)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(store))
	}
}

type activateTabRequest struct {
	ID int `json:"id" validate:"required,gt=0"`
}

// TabActivate switches the tab the cart and payment endpoints operate on.
func TabActivate(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload activateTabRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.SetActiveTab(r.Context(), payload.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(store))
	}
}
