package tabs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var maxDiscountPercent = decimal.NewFromInt(100)

// Product is the catalog snapshot added to a cart. Stock is carried so the
// checkout stock rule can be evaluated without another lookup.
type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Title string          `json:"title,omitempty"`
	SKU   string          `json:"sku,omitempty"`
	Unit  string          `json:"unit,omitempty"`
	Image string          `json:"image,omitempty"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// CartLine is one product entry in a tab. Quantity is always at least 1.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Note     string  `json:"note,omitempty"`
}

// Transaction is a partial payment applied toward a tab's total.
type Transaction struct {
	ID                string          `json:"id"`
	PaymentMethodID   int64           `json:"payment_method_id"`
	PaymentMethodName string          `json:"payment_method_name"`
	Amount            decimal.Decimal `json:"amount"`
}

// CustomerSnapshot is a denormalized copy of the bound customer for display.
type CustomerSnapshot struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Tab is one in-progress sale. ID is positional (1..N) and changes when an
// earlier tab is removed; Key never changes for the lifetime of the tab.
type Tab struct {
	ID              int               `json:"id"`
	Key             string            `json:"key"`
	Name            string            `json:"name"`
	Cart            []CartLine        `json:"cart"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	CustomerID      *int64            `json:"customer_id"`
	Customer        *CustomerSnapshot `json:"customer"`
	Note            string            `json:"note"`
	Transactions    []Transaction     `json:"transactions"`
	PrintReceipt    bool              `json:"print_receipt"`
}

// Session is the unit of persistence: every tab plus the active one.
type Session struct {
	Tabs        []Tab `json:"tabs"`
	ActiveTabID int   `json:"active_tab_id"`
}

// TabName derives the display name from a positional id.
func TabName(id int) string {
	return fmt.Sprintf("Order %d", id)
}

// NewTab is the only constructor of an empty tab; adding and resetting both use it.
func NewTab(id int, key string) Tab {
	if key == "" {
		key = uuid.NewString()
	}
	return Tab{
		ID:              id,
		Key:             key,
		Name:            TabName(id),
		Cart:            []CartLine{},
		DiscountPercent: decimal.Zero,
		Transactions:    []Transaction{},
		PrintReceipt:    true,
	}
}

// DefaultSession is the first-boot state: one empty active tab.
func DefaultSession() Session {
	return Session{
		Tabs:        []Tab{NewTab(1, "")},
		ActiveTabID: 1,
	}
}

// HasCustomer reports whether a customer is bound to the tab.
func (t Tab) HasCustomer() bool {
	return t.CustomerID != nil
}

func (t Tab) lineIndex(productID int64) int {
	for i, line := range t.Cart {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (t Tab) clone() Tab {
	out := t
	out.Cart = append([]CartLine{}, t.Cart...)
	out.Transactions = append([]Transaction{}, t.Transactions...)
	if t.CustomerID != nil {
		id := *t.CustomerID
		out.CustomerID = &id
	}
	if t.Customer != nil {
		snapshot := *t.Customer
		out.Customer = &snapshot
	}
	return out
}

func (s Session) clone() Session {
	out := Session{ActiveTabID: s.ActiveTabID, Tabs: make([]Tab, len(s.Tabs))}
	for i, tab := range s.Tabs {
		out.Tabs[i] = tab.clone()
	}
	return out
}

func (s Session) indexOf(id int) int {
	for i, tab := range s.Tabs {
		if tab.ID == id {
			return i
		}
	}
	return -1
}

func (s Session) indexOfKey(key string) int {
	for i, tab := range s.Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

// Normalize repairs a restored session so every invariant holds again: at
// least one tab, dense ids, quantities >= 1, discount within [0,100] and an
// active id that points at an existing tab.
func Normalize(s Session) Session {
	if len(s.Tabs) == 0 {
		return DefaultSession()
	}

	activeIdx := s.indexOf(s.ActiveTabID)
	out := Session{Tabs: make([]Tab, 0, len(s.Tabs))}
	for _, tab := range s.Tabs {
		tab = tab.clone()
		lines := tab.Cart[:0]
		for _, line := range tab.Cart {
			if line.Quantity >= 1 {
				lines = append(lines, line)
			}
		}
		tab.Cart = lines
		if tab.DiscountPercent.IsNegative() {
			tab.DiscountPercent = decimal.Zero
		}
		if tab.DiscountPercent.GreaterThan(maxDiscountPercent) {
			tab.DiscountPercent = maxDiscountPercent
		}
		if tab.Key == "" {
			tab.Key = uuid.NewString()
		}
		if tab.CustomerID == nil {
			tab.Customer = nil
		}
		out.Tabs = append(out.Tabs, tab)
	}
	out.Tabs = reindex(out.Tabs)

	if activeIdx < 0 {
		activeIdx = 0
	}
	out.ActiveTabID = out.Tabs[activeIdx].ID
	return out
}
