package backend

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
)

// Source is a sales channel such as the point of sale.
type Source struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Alias string `json:"alias"`
}

type PaymentMethod struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Active reports whether the method can take payments.
func (p PaymentMethod) Active() bool {
	return p.Status == "" || p.Status == "active"
}

type Location struct {
	ID              int64  `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	Address         string `json:"address"`
	Status          string `json:"status"`
	FulfillOrder    bool   `json:"fulfill_order"`
	DefaultLocation bool   `json:"default_location"`
}

type Attachment struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Variant is a sellable product variant with its on-hand quantity.
type Variant struct {
	ID                int64           `json:"id"`
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode"`
	ProductID         int64           `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Title             string          `json:"title"`
	Image             *Attachment     `json:"image"`
	Price             decimal.Decimal `json:"price"`
	Unit              string          `json:"unit"`
	InventoryQuantity int             `json:"inventory_quantity"`
}

type VariantPage struct {
	Variants []Variant `json:"variants"`
	Count    int       `json:"count"`
}

type Customer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type CustomerPage struct {
	Customers []Customer `json:"customers"`
	Count     int        `json:"count"`
}

type CreateCustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
}

// Amount encodes money as a bare JSON number, which is what the backend expects.
type Amount decimal.Decimal

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(json.Number(decimal.Decimal(a).String()))
}

type LineItem struct {
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note,omitempty"`
	Price     Amount `json:"price"`
}

type TransactionRequest struct {
	Amount          Amount                  `json:"amount"`
	Status          enums.TransactionStatus `json:"status"`
	PaymentMethodID int64                   `json:"payment_method_id"`
}

type Fulfillment struct {
	DeliveryMethod   enums.DeliveryMethod `json:"delivery_method"`
	DeliveryStatus   enums.ShipmentStatus `json:"delivery_status"`
	Note             string               `json:"note"`
	SendNotification bool                 `json:"send_notification"`
}

type ShippingLine struct {
	Name           string `json:"name"`
	Price          Amount `json:"price"`
	ShippingRateID int64  `json:"shipping_rate_id"`
	Type           string `json:"type"`
}

type CreateOrderRequest struct {
	AssigneeID    int64                `json:"assignee_id"`
	CustomerID    int64                `json:"customer_id"`
	Fulfillment   *Fulfillment         `json:"fulfillment,omitempty"`
	LineItems     []LineItem           `json:"line_items"`
	LocationID    int64                `json:"location_id"`
	Note          string               `json:"note"`
	ShippingLines []ShippingLine       `json:"shipping_lines"`
	SourceID      int64                `json:"source_id"`
	Transactions  []TransactionRequest `json:"transactions"`
}

type Order struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
