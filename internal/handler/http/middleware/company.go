package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
)

// RequireCompany rejects tokens that do not carry a company, a user and a
// known role. Every attendance query is scoped by the company claim.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.ClaimsFromContext(r.Context()); err != nil {
			response.HandleError(w, auth.ErrMissingClaims)
			return
		}

		next.ServeHTTP(w, r)
	})
}
