package middleware

import (
	"context"

	"github.com/angelmondragon/pos-terminal/pkg/auth"
)

type contextKey string

const (
	ctxOperator  contextKey = "operator"
	ctxRequestID contextKey = "request_id"
)

// OperatorFromContext returns the signed-in cashier, or nil when the request
// carried no valid operator token.
func OperatorFromContext(ctx context.Context) *auth.Operator {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxOperator).(auth.Operator); ok {
		return &v
	}
	return nil
}

// WithOperator injects the operator into the context for downstream handlers.
func WithOperator(ctx context.Context, op auth.Operator) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOperator, op)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}
