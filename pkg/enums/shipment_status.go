package enums

import "fmt"

// ShipmentStatus tracks a fulfillment's delivery progress.
type ShipmentStatus string

const (
	ShipmentStatusPending       ShipmentStatus = "pending"
	ShipmentStatusPickedUp      ShipmentStatus = "picked_up"
	ShipmentStatusDelivering    ShipmentStatus = "delivering"
	ShipmentStatusRetryDelivery ShipmentStatus = "retry_delivery"
	ShipmentStatusReturning     ShipmentStatus = "returning"
	ShipmentStatusDelivered     ShipmentStatus = "delivered"
	ShipmentStatusReturned      ShipmentStatus = "returned"
	ShipmentStatusCancelled     ShipmentStatus = "cancelled"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusPending,
	ShipmentStatusPickedUp,
	ShipmentStatusDelivering,
	ShipmentStatusRetryDelivery,
	ShipmentStatusReturning,
	ShipmentStatusDelivered,
	ShipmentStatusReturned,
	ShipmentStatusCancelled,
}

func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known shipment status.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipmentStatus converts the raw string to ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
