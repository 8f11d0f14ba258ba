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

const maxNoteLength = 500

type addCartItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Name      string          `json:"name" validate:"required,max=255"`
	Title     string          `json:"title" validate:"max=255"`
	SKU       string          `json:"sku" validate:"max=64"`
	Unit      string          `json:"unit" validate:"max=32"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	Stock     int             `json:"stock"`
}

func (p addCartItemRequest) toProduct() tabs.Product {
	return tabs.Product{
		ID:    p.ProductID,
		Name:  validators.SanitizeString(p.Name, 255),
		Title: validators.SanitizeString(p.Title, 255),
		SKU:   validators.SanitizeString(p.SKU, 64),
		Unit:  validators.SanitizeString(p.Unit, 32),
		Image: validators.SanitizeString(p.Image, 0),
		Price: p.Price,
		Stock: p.Stock,
	}
}

// CartAddItem adds a product to the active tab or bumps its quantity by one.
func CartAddItem(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab, err := store.AddToCart(r.Context(), payload.toProduct())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTabResponse(tab, store.TaxRate()))
	}
}

type updateCartItemRequest struct {
	Quantity *int    `json:"quantity"`
	Note     *string `json:"note" validate:"omitempty,max=500"`
}

// CartUpdateItem changes the quantity and/or note of one cart line. A quantity
// of zero or less removes the line.
func CartUpdateItem(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == nil && payload.Note == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "quantity or note is required"))
			return
		}

		var tab tabs.Tab
		if payload.Quantity != nil {
			if tab, err = store.UpdateQuantity(r.Context(), productID, *payload.Quantity); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if payload.Note != nil && (payload.Quantity == nil || *payload.Quantity > 0) {
			note := validators.SanitizeString(*payload.Note, maxNoteLength)
			if tab, err = store.UpdateItemNote(r.Context(), productID, note); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, newTabResponse(tab, store.TaxRate()))
	}
}

// CartRemoveItem drops a product line from the active tab.
func CartRemoveItem(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab, err := store.RemoveFromCart(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTabResponse(tab, store.TaxRate()))
	}
}

// CartClear empties the active tab's cart.
func CartClear(store *tabs.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storeUnavailable(store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tab, err := store.ClearCart(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTabResponse(tab, store.TaxRate()))
	}
}
