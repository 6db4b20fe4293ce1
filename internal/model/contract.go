package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "DRAFT"
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusSuspended ContractStatus = "SUSPENDED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
	ContractStatusFinished  ContractStatus = "FINISHED"
)

// Contract is the read model of a driver's rental agreement. Contracts are
// owned by the surrounding CRUD module; billing consults them but never
// writes to them.
type Contract struct {
	ID              uuid.UUID
	Number          string
	BranchID        uuid.UUID
	DriverID        uuid.UUID
	VehicleID       uuid.UUID
	PlanID          uuid.UUID
	StartDate       time.Time
	EndDate         time.Time
	BillingDay      int // 1..31, clamped to month length when due dates resolve
	MonthlyAmount   decimal.Decimal
	Deposit         decimal.Decimal
	StartOdometer   int64
	CurrentOdometer int64
	Status          ContractStatus
	SignedAt        *time.Time
	Plan            Plan
}

// CoversDate reports whether the contract window includes the given day.
func (c *Contract) CoversDate(day time.Time) bool {
	return !day.Before(c.StartDate) && !day.After(c.EndDate)
}
