package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// OperatorPayload captures the data available when minting an operator token.
type OperatorPayload struct {
	UserID int64
	Name   string
	Email  string
}

// OperatorClaims is the JWT the store backend issues to a signed-in cashier.
type OperatorClaims struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Operator is the authenticated cashier a sale is assigned to.
type Operator struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Operator projects the claims onto the identity used by checkout.
func (c *OperatorClaims) Operator() Operator {
	return Operator{ID: c.UserID, Name: c.Name, Email: c.Email}
}
