package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/pos-terminal/internal/tabs"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/pagination"
)

var validate = validator.New()

// walkInRules mirrors what the backend accepts for a customer created at the till.
type walkInRules struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
	Phone     string `validate:"required,numeric,min=9,max=11"`
	Email     string `validate:"omitempty,email"`
}

// Service looks up and registers the customers a sale can be bound to.
type Service interface {
	Search(ctx context.Context, params pagination.Params) (*Page, error)
	Create(ctx context.Context, input CreateInput) (*tabs.CustomerSnapshot, error)
}

type Page struct {
	Customers []tabs.CustomerSnapshot `json:"customers"`
	Count     int                     `json:"count"`
	Page      int                     `json:"page"`
	Limit     int                     `json:"limit"`
}

// CreateInput is a walk-in customer captured at the till.
type CreateInput struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

type customerBackend interface {
	ListCustomers(ctx context.Context, params pagination.Params) (*backend.CustomerPage, error)
	CreateCustomer(ctx context.Context, req backend.CreateCustomerRequest) (*backend.Customer, error)
}

// ServiceParams groups dependencies for the customer service.
type ServiceParams struct {
	Backend customerBackend
}

type service struct {
	backend customerBackend
}

// NewService constructs a customer service.
func NewService(params ServiceParams) (*service, error) {
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer backend required")
	}
	return &service{backend: params.Backend}, nil
}

func (s *service) Search(ctx context.Context, params pagination.Params) (*Page, error) {
	params = params.Normalize()
	page, err := s.backend.ListCustomers(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	out := &Page{
		Customers: make([]tabs.CustomerSnapshot, 0, len(page.Customers)),
		Count:     page.Count,
		Page:      params.Page,
		Limit:     params.Limit,
	}
	for _, c := range page.Customers {
		out.Customers = append(out.Customers, Snapshot(c))
	}
	return out, nil
}

// Create validates the walk-in details and registers the customer upstream.
func (s *service) Create(ctx context.Context, input CreateInput) (*tabs.CustomerSnapshot, error) {
	req := backend.CreateCustomerRequest{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     strings.TrimSpace(input.Email),
	}
	if err := checkWalkIn(req); err != nil {
		return nil, err
	}

	created, err := s.backend.CreateCustomer(ctx, req)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	snapshot := Snapshot(*created)
	return &snapshot, nil
}

// Snapshot copies the fields a tab keeps for display.
func Snapshot(c backend.Customer) tabs.CustomerSnapshot {
	return tabs.CustomerSnapshot{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Email:     c.Email,
	}
}

func checkWalkIn(req backend.CreateCustomerRequest) error {
	err := validate.Struct(walkInRules{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
	})
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer")
	}
	first := fieldErrs[0]
	message := "first name, last name and phone are required"
	switch {
	case first.Field() == "Phone" && first.Tag() != "required":
		message = "phone must be 9 to 11 digits"
	case first.Field() == "Email":
		message = "email is not valid"
	case first.Tag() == "max":
		message = "name is too long"
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]any{"field": strings.ToLower(first.Field()), "rule": first.Tag()})
}
