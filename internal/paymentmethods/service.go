package paymentmethods

import (
	"context"
	"sync"

	"github.com/angelmondragon/pos-terminal/pkg/backend"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
)

// Service lists the tenders a cashier can record and resolves them by id.
type Service interface {
	List(ctx context.Context) ([]backend.PaymentMethod, error)
	Lookup(ctx context.Context, id int64) (*backend.PaymentMethod, error)
}

type methodLister interface {
	ListPaymentMethods(ctx context.Context) ([]backend.PaymentMethod, error)
}

// ServiceParams groups dependencies for the payment method service.
type ServiceParams struct {
	Lister methodLister
}

type service struct {
	lister methodLister

	mu     sync.RWMutex
	cached map[int64]backend.PaymentMethod
}

// NewService constructs a payment method service.
func NewService(params ServiceParams) (*service, error) {
	if params.Lister == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment method lister required")
	}
	return &service{lister: params.Lister}, nil
}

// List returns active methods only and refreshes the lookup cache.
func (s *service) List(ctx context.Context) ([]backend.PaymentMethod, error) {
	methods, err := s.lister.ListPaymentMethods(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}

	active := make([]backend.PaymentMethod, 0, len(methods))
	byID := make(map[int64]backend.PaymentMethod, len(methods))
	for _, m := range methods {
		if !m.Active() {
			continue
		}
		active = append(active, m)
		byID[m.ID] = m
	}

	s.mu.Lock()
	s.cached = byID
	s.mu.Unlock()
	return active, nil
}

// Lookup resolves an active method, refreshing the list once on a cache miss.
func (s *service) Lookup(ctx context.Context, id int64) (*backend.PaymentMethod, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method id must be positive")
	}
	if m, ok := s.cachedMethod(id); ok {
		return &m, nil
	}
	if _, err := s.List(ctx); err != nil {
		return nil, err
	}
	if m, ok := s.cachedMethod(id); ok {
		return &m, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
}

func (s *service) cachedMethod(id int64) (backend.PaymentMethod, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.cached[id]
	return m, ok
}
