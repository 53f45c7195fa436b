package shared

import (
	"fmt"
	"strings"
)

// Role enumerates the fixed employee roles.
type Role string

const (
	RoleDirector    Role = "DIRECTOR"
	RoleAccountant  Role = "ACCOUNTANT"
	RoleCashier     Role = "CASHIER"
	RoleStockKeeper Role = "STOCK_KEEPER"
)

// ParseRole normalises a stored role value.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleDirector:
		return RoleDirector, nil
	case RoleAccountant:
		return RoleAccountant, nil
	case RoleCashier:
		return RoleCashier, nil
	case RoleStockKeeper:
		return RoleStockKeeper, nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   int64
	Name string
	Role Role
}

// Require is the authorization gate: it verifies that an authenticated actor
// holds one of the allowed roles. It runs before validation, so a denied
// operation has no side effects.
func Require(actor *Actor, allowed ...Role) error {
	if actor == nil || actor.ID == 0 {
		return ErrUnauthenticated
	}
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
