package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/driveon/rental-billing/internal/model"
)

// MileageOverage is the result of reconciling driven distance against a
// plan's included-kilometer quota.
type MileageOverage struct {
	DistanceKm int64           `json:"distance_km"`
	OverageKm  int64           `json:"overage_km"`
	Surcharge  decimal.Decimal `json:"surcharge_amount"`
}

// ReconcileMileage computes billable overage from odometer readings
// inside one billing period. Readings must be ordered oldest first.
// Fewer than two readings means there is not enough data to bill, which
// is a zero overage, not an error. Unlimited plans always reconcile to
// zero.
func ReconcileMileage(readings []model.OdometerReading, kmIncluded *int64, kmExtraPrice decimal.Decimal) MileageOverage {
	zero := MileageOverage{Surcharge: decimal.Zero}
	if kmIncluded == nil {
		return zero
	}
	if len(readings) < 2 {
		return zero
	}

	first := readings[0].Value
	last := readings[len(readings)-1].Value
	distance := last - first
	if distance < 0 {
		distance = 0
	}

	overage := distance - *kmIncluded
	if overage < 0 {
		overage = 0
	}

	return MileageOverage{
		DistanceKm: distance,
		OverageKm:  overage,
		Surcharge:  kmExtraPrice.Mul(decimal.NewFromInt(overage)),
	}
}

// GetMileageOverage is the reporting entry point. It resolves the
// contract's plan and readings and runs the same reconciliation the
// charge generator uses.
func (s *BillingService) GetMileageOverage(
	ctx context.Context,
	contractID uuid.UUID,
	periodStart, periodEnd time.Time,
) (*MileageOverage, error) {
	if contractID == uuid.Nil {
		return nil, fmt.Errorf("%w: contract_id is required", ErrInvalidInput)
	}
	periodStart = dateOnly(periodStart)
	periodEnd = dateOnly(periodEnd)
	if periodStart.IsZero() || periodEnd.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}
	if !periodStart.Before(periodEnd) {
		return nil, fmt.Errorf("%w: period_start must be before period_end", ErrInvalidInput)
	}

	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if contract.Plan.Unlimited() {
		return &MileageOverage{Surcharge: decimal.Zero}, nil
	}

	readings, err := s.contracts.ListOdometerReadings(ctx, contractID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	overage := ReconcileMileage(readings, contract.Plan.KmIncluded, contract.Plan.KmExtraPrice)
	return &overage, nil
}
