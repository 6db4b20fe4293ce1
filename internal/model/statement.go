package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementRow is a charge joined with the contract identifiers a
// statement needs to be readable.
type StatementRow struct {
	Charge         Charge `gorm:"-"`
	ContractNumber string
	BranchID       uuid.UUID
}

// StatementGroup collects the rows of one charge status.
type StatementGroup struct {
	Status ChargeStatus
	Rows   []StatementRow
}

// ChargeStatement is the input of the statement workbook: one billing
// period across one branch (or all branches).
type ChargeStatement struct {
	Branch      *Branch
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalBilled decimal.Decimal
	TotalPaid   decimal.Decimal
	TotalOpen   decimal.Decimal
	Groups      []StatementGroup
}

// ReceiptDocument carries everything the payment receipt PDF renders.
type ReceiptDocument struct {
	Charge   Charge
	Contract Contract
	Branch   Branch
}
