package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan is a pricing template. KmIncluded nil means the plan is unlimited
// and never produces a mileage surcharge.
type Plan struct {
	ID           uuid.UUID
	Name         string
	DailyPrice   decimal.Decimal
	WeeklyPrice  decimal.Decimal
	MonthlyPrice decimal.Decimal
	KmIncluded   *int64
	KmExtraPrice decimal.Decimal
}

// Unlimited reports whether the plan has no mileage quota.
func (p *Plan) Unlimited() bool {
	return p.KmIncluded == nil
}
