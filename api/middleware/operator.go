package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/pos-terminal/api/responses"
	pkgAuth "github.com/angelmondragon/pos-terminal/pkg/auth"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

// Operator reads an optional bearer token identifying the cashier. A request
// without a token passes through with no operator, which checkout reports as
// a missing sign-in; a token that is present but invalid is rejected.
func Operator(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" || !cfg.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseOperatorToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid operator token"))
				return
			}

			op := claims.Operator()
			ctx := WithOperator(r.Context(), op)
			if logg != nil {
				ctx = logg.WithOperatorID(ctx, strconv.FormatInt(op.ID, 10))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
