package auth

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
)

// Claims is the identity carried by an access token.
type Claims struct {
	UserID     string
	EmployeeID string
	CompanyID  string
	Role       user.Role
}

// ClaimsFromContext reads the verified token placed in ctx by jwtauth.Verifier.
// company_id, user_id and role are mandatory; employee_id may be empty for
// admin accounts that do not punch.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	var c Claims
	c.UserID, _ = claims["user_id"].(string)
	c.CompanyID, _ = claims["company_id"].(string)
	c.EmployeeID, _ = claims["employee_id"].(string)
	role, _ := claims["role"].(string)
	c.Role = user.Role(role)

	if c.UserID == "" || c.CompanyID == "" || !c.Role.IsValid() {
		return Claims{}, ErrMissingClaims
	}
	return c, nil
}

// RequireEmployee returns the employee id or ErrMissingClaims.
func (c Claims) RequireEmployee() (string, error) {
	if c.EmployeeID == "" {
		return "", fmt.Errorf("%w: employee_id", ErrMissingClaims)
	}
	return c.EmployeeID, nil
}
