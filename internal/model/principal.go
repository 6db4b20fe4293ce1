package model

import "github.com/google/uuid"

const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleDriver  = "DRIVER"
	RoleSystem  = "SYSTEM"
)

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID   uuid.UUID
	BranchID uuid.UUID
	Role     string
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) IsManager() bool { return p.Role == RoleManager }
func (p Principal) IsDriver() bool  { return p.Role == RoleDriver }
func (p Principal) IsSystem() bool  { return p.Role == RoleSystem }

// IsOperator reports whether the principal may trigger billing mutations.
func (p Principal) IsOperator() bool {
	return p.IsAdmin() || p.IsManager() || p.IsSystem()
}

// SystemPrincipal is used by the embedded scheduler, which runs the same
// operations as an operator would.
func SystemPrincipal() Principal {
	return Principal{Role: RoleSystem}
}
