package checkout

import (
	"github.com/angelmondragon/pos-terminal/internal/tabs"
	"github.com/angelmondragon/pos-terminal/pkg/auth"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
)

// Reason identifies which checkout rule blocked a sale.
type Reason string

const (
	ReasonLocationRequired Reason = "location_required"
	ReasonOperatorRequired Reason = "operator_required"
	ReasonCartEmpty        Reason = "cart_empty"
	ReasonOutOfStock       Reason = "out_of_stock"
	ReasonCustomerRequired Reason = "customer_required"
	ReasonPaymentRequired  Reason = "payment_required"
)

// Violation is one failed rule with the message shown to the cashier.
type Violation struct {
	Reason     Reason  `json:"reason"`
	Message    string  `json:"message"`
	ProductIDs []int64 `json:"product_ids,omitempty"`
}

// Request is the till context a checkout runs in.
type Request struct {
	LocationID int64
	Operator   *auth.Operator
}

// Evaluate returns every failing rule, in the order they are enforced.
func Evaluate(tab tabs.Tab, req Request) []Violation {
	var out []Violation
	if req.LocationID <= 0 {
		out = append(out, Violation{Reason: ReasonLocationRequired, Message: "select a fulfillment location"})
	}
	if req.Operator == nil || req.Operator.ID <= 0 {
		out = append(out, Violation{Reason: ReasonOperatorRequired, Message: "sign in before taking payment"})
	}
	if len(tab.Cart) == 0 {
		out = append(out, Violation{Reason: ReasonCartEmpty, Message: "add products to the cart"})
	}
	if ids := outOfStock(tab.Cart); len(ids) > 0 {
		out = append(out, Violation{Reason: ReasonOutOfStock, Message: "some products in the cart are out of stock", ProductIDs: ids})
	}
	if !tab.HasCustomer() {
		out = append(out, Violation{Reason: ReasonCustomerRequired, Message: "select a customer for this order"})
	}
	if len(tab.Transactions) == 0 {
		out = append(out, Violation{Reason: ReasonPaymentRequired, Message: "add at least one payment"})
	}
	return out
}

func outOfStock(lines []tabs.CartLine) []int64 {
	var ids []int64
	for _, line := range lines {
		if line.Product.Stock <= 0 {
			ids = append(ids, line.Product.ID)
		}
	}
	return ids
}

func preconditionError(v Violation) error {
	return pkgerrors.New(pkgerrors.CodePrecondition, v.Message).WithDetails(v)
}

// ReasonOf extracts the blocking rule from a checkout error, if any.
func ReasonOf(err error) (Reason, bool) {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePrecondition {
		return "", false
	}
	v, ok := typed.Details().(Violation)
	if !ok {
		return "", false
	}
	return v.Reason, true
}
