package model

import "github.com/google/uuid"

// Branch is the read model of the operating unit a contract belongs to.
// Only used for receipt and statement rendering.
type Branch struct {
	ID        uuid.UUID
	Name      string
	LegalName string
	Document  string
	Address   string
	Phone     string
}
