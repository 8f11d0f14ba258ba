package checkout

import (
	"github.com/angelmondragon/pos-terminal/internal/tabs"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
)

// BuildOrder maps a tab onto the backend's order payload for an in-store pickup.
func BuildOrder(tab tabs.Tab, req Request, sourceID int64, pickupNote string) backend.CreateOrderRequest {
	lines := make([]backend.LineItem, 0, len(tab.Cart))
	for _, line := range tab.Cart {
		lines = append(lines, backend.LineItem{
			VariantID: line.Product.ID,
			Quantity:  line.Quantity,
			Note:      line.Note,
			Price:     backend.Amount(line.Product.Price),
		})
	}

	transactions := make([]backend.TransactionRequest, 0, len(tab.Transactions))
	for _, tx := range tab.Transactions {
		transactions = append(transactions, backend.TransactionRequest{
			Amount:          backend.Amount(tx.Amount),
			Status:          enums.TransactionStatusSuccess,
			PaymentMethodID: tx.PaymentMethodID,
		})
	}

	var customerID int64
	if tab.CustomerID != nil {
		customerID = *tab.CustomerID
	}
	var assigneeID int64
	if req.Operator != nil {
		assigneeID = req.Operator.ID
	}

	return backend.CreateOrderRequest{
		AssigneeID: assigneeID,
		CustomerID: customerID,
		LocationID: req.LocationID,
		SourceID:   sourceID,
		Note:       tab.Note,
		LineItems:  lines,
		Fulfillment: &backend.Fulfillment{
			DeliveryMethod:   enums.DeliveryMethodPickup,
			DeliveryStatus:   enums.ShipmentStatusDelivered,
			Note:             pickupNote,
			SendNotification: false,
		},
		ShippingLines: []backend.ShippingLine{},
		Transactions:  transactions,
	}
}
