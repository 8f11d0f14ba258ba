package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/pos-terminal/api/middleware"
	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	"github.com/angelmondragon/pos-terminal/internal/checkout"
	"github.com/angelmondragon/pos-terminal/internal/locations"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

type checkoutRequest struct {
	LocationID int64 `json:"location_id" validate:"omitempty,gt=0"`
}

type checkoutResponse struct {
	OrderID        int64               `json:"order_id"`
	OrderName      string              `json:"order_name"`
	TabID          int                 `json:"tab_id"`
	Printed        bool                `json:"printed"`
	PrintWarning   *responses.APIError `json:"print_warning,omitempty"`
	CleanupPending bool                `json:"cleanup_pending"`
}

func newCheckoutResponse(result *checkout.Result) checkoutResponse {
	out := checkoutResponse{
		OrderID:   result.OrderID,
		OrderName: result.OrderName,
		TabID:     result.TabID,
		Printed:   result.Printed,
	}
	if result.PrintError != nil {
		_, warning := responses.PublicError(result.PrintError)
		out.PrintWarning = &warning
	}
	if result.Done != nil {
		select {
		case <-result.Done:
		default:
			out.CleanupPending = true
		}
	}
	return out
}

// resolveLocation prefers an explicit location and falls back to the persisted
// selection. Zero means none is known, which checkout reports as a precondition.
func resolveLocation(ctx context.Context, explicit int64, locs locations.Service, logg *logger.Logger) int64 {
	if explicit > 0 || locs == nil {
		return explicit
	}
	loc, err := locs.Selected(ctx)
	if err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeNotFound) && logg != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "checkout.location_lookup_failed")
		}
		return 0
	}
	return loc.ID
}

// CheckoutReadiness lists the rules currently blocking payment for the active tab.
func CheckoutReadiness(svc checkout.Service, locs locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		explicit, err := validators.ParseOptionalQueryID(r, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req := checkout.Request{
			LocationID: resolveLocation(r.Context(), explicit, locs, logg),
			Operator:   middleware.OperatorFromContext(r.Context()),
		}
		responses.WriteSuccess(w, svc.Readiness(r.Context(), req))
	}
}

// CheckoutSubmit finalizes the active tab: submits the order, prints the
// receipt when enabled and retires the tab.
func CheckoutSubmit(svc checkout.Service, locs locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var payload checkoutRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		req := checkout.Request{
			LocationID: resolveLocation(r.Context(), payload.LocationID, locs, logg),
			Operator:   middleware.OperatorFromContext(r.Context()),
		}
		ctx := r.Context()
		if logg != nil && req.LocationID > 0 {
			ctx = logg.WithLocationID(ctx, req.LocationID)
		}
		result, err := svc.Checkout(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}
