package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/wolfman30/carebook/internal/auth"
	"github.com/wolfman30/carebook/internal/tenancy"
)

type contextKey string

const staffClaimsKey contextKey = "staffClaims"

// TokenParser verifies staff bearer tokens.
type TokenParser interface {
	ParseToken(raw string) (*auth.Claims, error)
}

// StaffJWT requires a valid staff token and scopes the request to the token's org.
func StaffJWT(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if parser == nil {
				http.Error(w, "staff auth disabled", http.StatusUnauthorized)
				return
			}
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := parser.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), staffClaimsKey, claims)
			ctx = tenancy.WithOrgID(ctx, claims.OrgID)
			ctx = tenancy.WithStaffID(ctx, claims.StaffID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffClaimsFromContext returns the verified staff claims if present.
func StaffClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(staffClaimsKey).(*auth.Claims)
	return claims, ok
}
