package locations

import (
	"context"

	"github.com/angelmondragon/pos-terminal/pkg/backend"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

// Service resolves which fulfillment location this till sells from.
type Service interface {
	List(ctx context.Context) (*Listing, error)
	Selected(ctx context.Context) (*backend.Location, error)
	Select(ctx context.Context, locationID int64) (*backend.Location, error)
}

// Listing is every location plus the one currently in effect.
type Listing struct {
	Locations  []backend.Location `json:"locations"`
	SelectedID int64              `json:"selected_id"`
}

type locationLister interface {
	ListLocations(ctx context.Context) ([]backend.Location, error)
}

type selectionStore interface {
	SaveLocation(ctx context.Context, locationID int64) error
	LoadLocation(ctx context.Context) (int64, bool, error)
}

// ServiceParams groups dependencies for the location service.
type ServiceParams struct {
	Lister    locationLister
	Selection selectionStore
	Logger    *logger.Logger
}

type service struct {
	lister    locationLister
	selection selectionStore
	logg      *logger.Logger
}

// NewService constructs a location service.
func NewService(params ServiceParams) (*service, error) {
	if params.Lister == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "location lister required")
	}
	if params.Selection == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "selection store required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{lister: params.Lister, selection: params.Selection, logg: params.Logger}, nil
}

func (s *service) List(ctx context.Context) (*Listing, error) {
	locations, err := s.lister.ListLocations(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	listing := &Listing{Locations: locations}
	if picked := Pick(locations, s.persisted(ctx)); picked != nil {
		listing.SelectedID = picked.ID
	}
	return listing, nil
}

// Selected returns the location in effect, or NOT_FOUND when the store has none.
func (s *service) Selected(ctx context.Context) (*backend.Location, error) {
	locations, err := s.lister.ListLocations(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	picked := Pick(locations, s.persisted(ctx))
	if picked == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no locations configured")
	}
	return picked, nil
}

// Select makes locationID the till's location and remembers it across restarts.
func (s *service) Select(ctx context.Context, locationID int64) (*backend.Location, error) {
	if locationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id must be positive")
	}
	locations, err := s.lister.ListLocations(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	var chosen *backend.Location
	for i := range locations {
		if locations[i].ID == locationID {
			chosen = &locations[i]
			break
		}
	}
	if chosen == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	if err := s.selection.SaveLocation(ctx, locationID); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithLocationID(ctx, locationID), "locations.selected")
	return chosen, nil
}

func (s *service) persisted(ctx context.Context) int64 {
	id, ok, err := s.selection.LoadLocation(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "locations.load_selection_failed")
		return 0
	}
	if !ok {
		return 0
	}
	return id
}

// Pick prefers the persisted location, then the store default, then the first one.
func Pick(locations []backend.Location, persistedID int64) *backend.Location {
	if len(locations) == 0 {
		return nil
	}
	if persistedID > 0 {
		for i := range locations {
			if locations[i].ID == persistedID {
				return &locations[i]
			}
		}
	}
	for i := range locations {
		if locations[i].DefaultLocation {
			return &locations[i]
		}
	}
	return &locations[0]
}
