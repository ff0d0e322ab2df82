package auth

import (
	"github.com/bimworks/portal-backend/internal/domain/user"
)

// Principal is the authenticated caller, passed explicitly into every
// workflow operation.
type Principal struct {
	UserID     string
	EmployeeID string
	Email      string
	Role       user.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == user.RoleAdmin
}

func (p Principal) Can(permission user.Permission) bool {
	return user.HasPermission(p.Role, permission)
}

// PrincipalFromClaims builds a Principal from verified access-token claims.
func PrincipalFromClaims(claims map[string]interface{}) (Principal, error) {
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return Principal{}, ErrInvalidToken
	}
	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || !user.Role(role).IsValid() {
		return Principal{}, ErrInvalidToken
	}
	employeeID, _ := claims["employee_id"].(string)
	email, _ := claims["email"].(string)

	return Principal{
		UserID:     userID,
		EmployeeID: employeeID,
		Email:      email,
		Role:       user.Role(role),
	}, nil
}
