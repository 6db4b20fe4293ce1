package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "PENDING"
	ChargeStatusOverdue   ChargeStatus = "OVERDUE"
	ChargeStatusPaid      ChargeStatus = "PAID"
	ChargeStatusCancelled ChargeStatus = "CANCELLED"
)

// Charge is one billing-period invoice generated against a contract.
// ReferenceMonth is always the first day of the calendar month the charge
// covers, distinct from DueDate. There is at most one charge per
// (contract, reference month); the database enforces it.
type Charge struct {
	ID             uuid.UUID       `json:"id"`
	ContractID     uuid.UUID       `json:"contract_id"`
	ReferenceMonth time.Time       `json:"reference_month"`
	DueDate        time.Time       `json:"due_date"`
	Amount         decimal.Decimal `json:"amount"`
	Status         ChargeStatus    `json:"status"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	PaymentMethod  *string         `json:"payment_method,omitempty"`
	DaysLate       int             `json:"days_late"`
	PenaltyAmount  decimal.Decimal `json:"penalty_amount"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsOpen reports whether the charge can still receive a payment or be
// cancelled.
func (c *Charge) IsOpen() bool {
	return c.Status == ChargeStatusPending || c.Status == ChargeStatusOverdue
}

// ChargeFilter narrows charge listings. Nil fields match everything.
type ChargeFilter struct {
	ContractID *uuid.UUID
	Status     *ChargeStatus
}
