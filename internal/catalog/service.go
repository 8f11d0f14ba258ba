package catalog

import (
	"context"
	"strings"

	"github.com/angelmondragon/pos-terminal/internal/tabs"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/pagination"
)

// defaultVariantTitle is what the backend calls a product's only variant.
const defaultVariantTitle = "Default Title"

// Service searches the sellable catalog for the product picker.
type Service interface {
	Search(ctx context.Context, params pagination.Params) (*Page, error)
}

// Page is one page of search results, already shaped as cart products.
type Page struct {
	Products []tabs.Product `json:"products"`
	Count    int            `json:"count"`
	Page     int            `json:"page"`
	Limit    int            `json:"limit"`
}

type variantLister interface {
	ListVariants(ctx context.Context, params pagination.Params) (*backend.VariantPage, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Variants variantLister
}

type service struct {
	variants variantLister
}

// NewService constructs a catalog service.
func NewService(params ServiceParams) (*service, error) {
	if params.Variants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "variant lister required")
	}
	return &service{variants: params.Variants}, nil
}

func (s *service) Search(ctx context.Context, params pagination.Params) (*Page, error) {
	params = params.Normalize()
	page, err := s.variants.ListVariants(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variants")
	}

	out := &Page{
		Products: make([]tabs.Product, 0, len(page.Variants)),
		Count:    page.Count,
		Page:     params.Page,
		Limit:    params.Limit,
	}
	for _, v := range page.Variants {
		out.Products = append(out.Products, ProductFromVariant(v))
	}
	return out, nil
}

// ProductFromVariant snapshots a backend variant into the shape a cart line keeps.
func ProductFromVariant(v backend.Variant) tabs.Product {
	product := tabs.Product{
		ID:    v.ID,
		Name:  DisplayName(v.ProductName, v.Title),
		Title: strings.TrimSpace(v.Title),
		SKU:   strings.TrimSpace(v.SKU),
		Unit:  strings.TrimSpace(v.Unit),
		Price: v.Price,
		Stock: v.InventoryQuantity,
	}
	if v.Image != nil {
		product.Image = v.Image.URL
	}
	return product
}

// DisplayName joins product name and variant title, skipping the placeholder
// title single-variant products carry.
func DisplayName(productName, variantTitle string) string {
	name := strings.TrimSpace(productName)
	title := strings.TrimSpace(variantTitle)
	if title == "" || strings.EqualFold(title, defaultVariantTitle) {
		return name
	}
	if name == "" {
		return title
	}
	return name + " - " + title
}
