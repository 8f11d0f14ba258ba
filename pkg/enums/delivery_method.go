package enums

import "fmt"

// DeliveryMethod is how a fulfillment leaves the store.
type DeliveryMethod string

const (
	DeliveryMethodNone            DeliveryMethod = "none"
	DeliveryMethodPickup          DeliveryMethod = "pickup"
	DeliveryMethodExternalShipper DeliveryMethod = "external_shipper"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodNone,
	DeliveryMethodPickup,
	DeliveryMethodExternalShipper,
}

// String returns the backend representation.
func (d DeliveryMethod) String() string {
	return string(d)
}

// IsValid reports whether the value is a known delivery method.
func (d DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryMethod converts the raw string to DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
