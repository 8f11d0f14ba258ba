package enums

import "fmt"

// TransactionStatus is the backend's numeric payment state.
type TransactionStatus int

const (
	TransactionStatusPending TransactionStatus = 1
	TransactionStatusSuccess TransactionStatus = 2
)

func (t TransactionStatus) String() string {
	switch t {
	case TransactionStatusPending:
		return "pending"
	case TransactionStatusSuccess:
		return "success"
	default:
		return fmt.Sprintf("transaction_status(%d)", int(t))
	}
}

// IsValid reports whether the value is a known transaction status.
func (t TransactionStatus) IsValid() bool {
	return t == TransactionStatusPending || t == TransactionStatusSuccess
}
