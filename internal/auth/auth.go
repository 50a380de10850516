// Package auth resolves acting principals and gates operations by role.
// The principal is always an explicit parameter into the services; nothing
// reads identity from ambient state.
package auth

import (
	"fmt"

	"github.com/wearhouse/storefront/internal/models"
)

// Principal identifies the acting user for one operation.
type Principal struct {
	UserID int64       `json:"user_id"`
	Role   models.Role `json:"role"`
}

// Authorize checks that a principal is present and holds the required role.
// It returns models.ErrUnauthorized when p is nil or carries an unknown
// role, and models.ErrForbidden when the role does not match. It has no
// side effects.
func Authorize(p *Principal, required models.Role) error {
	if p == nil || !p.Role.Valid() {
		return models.ErrUnauthorized
	}
	if p.Role != required {
		return fmt.Errorf("%w: role %s required", models.ErrForbidden, required)
	}
	return nil
}
