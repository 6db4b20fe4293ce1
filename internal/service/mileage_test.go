package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveon/rental-billing/internal/model"
)

func readingAt(contractID uuid.UUID, day time.Time, value int64) model.OdometerReading {
	return model.OdometerReading{ContractID: contractID, RecordedAt: day, Value: value}
}

func TestReconcileMileageOverage(t *testing.T) {
	contractID := uuid.New()
	kmIncluded := int64(3000)
	readings := []model.OdometerReading{
		readingAt(contractID, date(2025, time.November, 1), 100000),
		readingAt(contractID, date(2025, time.November, 28), 103200),
	}

	result := ReconcileMileage(readings, &kmIncluded, dec("0.50"))

	assert.Equal(t, int64(3200), result.DistanceKm)
	assert.Equal(t, int64(200), result.OverageKm)
	assert.True(t, result.Surcharge.Equal(dec("100.00")), "got %s", result.Surcharge)
}

func TestReconcileMileageWithinQuota(t *testing.T) {
	contractID := uuid.New()
	kmIncluded := int64(3000)
	readings := []model.OdometerReading{
		readingAt(contractID, date(2025, time.November, 1), 50000),
		readingAt(contractID, date(2025, time.November, 20), 51500),
	}

	result := ReconcileMileage(readings, &kmIncluded, dec("0.50"))

	assert.Equal(t, int64(1500), result.DistanceKm)
	assert.Equal(t, int64(0), result.OverageKm)
	assert.True(t, result.Surcharge.IsZero())
}

func TestReconcileMileageInsufficientData(t *testing.T) {
	contractID := uuid.New()
	kmIncluded := int64(3000)

	single := ReconcileMileage([]model.OdometerReading{
		readingAt(contractID, date(2025, time.November, 1), 50000),
	}, &kmIncluded, dec("0.50"))
	assert.Equal(t, int64(0), single.OverageKm)
	assert.True(t, single.Surcharge.IsZero())

	none := ReconcileMileage(nil, &kmIncluded, dec("0.50"))
	assert.True(t, none.Surcharge.IsZero())
}

func TestReconcileMileageUnlimitedPlan(t *testing.T) {
	contractID := uuid.New()
	readings := []model.OdometerReading{
		readingAt(contractID, date(2025, time.November, 1), 0),
		readingAt(contractID, date(2025, time.November, 28), 99999),
	}

	result := ReconcileMileage(readings, nil, dec("0.50"))
	assert.Equal(t, int64(0), result.OverageKm)
	assert.True(t, result.Surcharge.IsZero())
}

func TestGetMileageOverage(t *testing.T) {
	contract := activeContract("1800.00")
	kmIncluded := int64(3000)
	contract.Plan.KmIncluded = &kmIncluded

	contracts := newFakeContractStore(contract)
	contracts.readings[contract.ID] = []model.OdometerReading{
		readingAt(contract.ID, date(2025, time.November, 2), 100000),
		readingAt(contract.ID, date(2025, time.November, 28), 103200),
		// Outside the period, must be ignored.
		readingAt(contract.ID, date(2025, time.December, 2), 104000),
	}

	svc := newService(newFakeChargeStore(), contracts)

	result, err := svc.GetMileageOverage(context.Background(), contract.ID,
		date(2025, time.November, 1), date(2025, time.December, 1))
	require.NoError(t, err)

	assert.Equal(t, int64(3200), result.DistanceKm)
	assert.Equal(t, int64(200), result.OverageKm)
	assert.True(t, result.Surcharge.Equal(dec("100.00")))
}

func TestGetMileageOverageInvalidPeriod(t *testing.T) {
	svc := newService(newFakeChargeStore(), newFakeContractStore())

	_, err := svc.GetMileageOverage(context.Background(), uuid.New(),
		date(2025, time.December, 1), date(2025, time.November, 1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetMileageOverageUnknownContract(t *testing.T) {
	svc := newService(newFakeChargeStore(), newFakeContractStore())

	_, err := svc.GetMileageOverage(context.Background(), uuid.New(),
		date(2025, time.November, 1), date(2025, time.December, 1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMileageOverageUnlimitedPlan(t *testing.T) {
	contract := activeContract("1800.00")
	contracts := newFakeContractStore(contract)
	svc := newService(newFakeChargeStore(), contracts)

	result, err := svc.GetMileageOverage(context.Background(), contract.ID,
		date(2025, time.November, 1), date(2025, time.December, 1))
	require.NoError(t, err)

	assert.True(t, result.Surcharge.Equal(decimal.Zero))
	assert.Zero(t, contracts.readingCalls)
}
