package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/pagination"
)

const (
	pathSources        = "/admin/sources"
	pathPaymentMethods = "/admin/payment-methods"
	pathLocations      = "/admin/locations"
	pathVariants       = "/admin/variants"
	pathCustomers      = "/admin/customers"
	pathOrders         = "/admin/orders"
)

func (c *Client) ListSources(ctx context.Context) ([]Source, error) {
	var out []Source
	if err := c.do(ctx, http.MethodGet, pathSources, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	var out []PaymentMethod
	if err := c.do(ctx, http.MethodGet, pathPaymentMethods, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var out []Location
	if err := c.do(ctx, http.MethodGet, pathLocations, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListVariants searches sellable variants by keyword.
func (c *Client) ListVariants(ctx context.Context, params pagination.Params) (*VariantPage, error) {
	out := &VariantPage{}
	if err := c.do(ctx, http.MethodGet, pathVariants, pageQuery(params), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCustomers searches the customer directory by keyword.
func (c *Client) ListCustomers(ctx context.Context, params pagination.Params) (*CustomerPage, error) {
	out := &CustomerPage{}
	if err := c.do(ctx, http.MethodGet, pathCustomers, pageQuery(params), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name and phone are required")
	}
	out := &Customer{}
	if err := c.do(ctx, http.MethodPost, pathCustomers, nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateOrder submits a finished sale and returns the created order.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	out := &Order{}
	if err := c.do(ctx, http.MethodPost, pathOrders, nil, req, out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend created order without id")
	}
	return out, nil
}

// GetOrderPrint returns the printable receipt document (HTML) for an order.
func (c *Client) GetOrderPrint(ctx context.Context, orderID int64) (string, error) {
	var out string
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d/print", pathOrders, orderID), nil, nil, &out); err != nil {
		return "", err
	}
	return out, nil
}
