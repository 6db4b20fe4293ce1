package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/driveon/rental-billing/internal/model"
)

// ContractRepository reads the contract, plan, branch and odometer models
// owned by the surrounding CRUD modules. Billing never writes to them.
type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

type contractRow struct {
	ID               uuid.UUID
	Number           string
	BranchID         uuid.UUID
	DriverID         uuid.UUID
	VehicleID        uuid.UUID
	PlanID           uuid.UUID
	StartDate        time.Time
	EndDate          time.Time
	BillingDay       int
	MonthlyAmount    decimal.Decimal
	Deposit          decimal.Decimal
	StartOdometer    int64
	CurrentOdometer  int64
	Status           model.ContractStatus
	SignedAt         *time.Time
	PlanName         string
	PlanDailyPrice   decimal.Decimal
	PlanWeeklyPrice  decimal.Decimal
	PlanMonthlyPrice decimal.Decimal
	PlanKmIncluded   *int64
	PlanKmExtraPrice decimal.Decimal
}

const contractSelect = `
	SELECT
		c.id,
		c.number,
		c.branch_id,
		c.driver_id,
		c.vehicle_id,
		c.plan_id,
		c.start_date,
		c.end_date,
		c.billing_day,
		c.monthly_amount,
		c.deposit,
		c.start_odometer,
		c.current_odometer,
		c.status,
		c.signed_at,
		p.name AS plan_name,
		p.daily_price AS plan_daily_price,
		p.weekly_price AS plan_weekly_price,
		p.monthly_price AS plan_monthly_price,
		p.km_included AS plan_km_included,
		p.km_extra_price AS plan_km_extra_price
	FROM contracts c
	JOIN plans p ON p.id = c.plan_id`

func (row contractRow) toModel() model.Contract {
	return model.Contract{
		ID:              row.ID,
		Number:          row.Number,
		BranchID:        row.BranchID,
		DriverID:        row.DriverID,
		VehicleID:       row.VehicleID,
		PlanID:          row.PlanID,
		StartDate:       row.StartDate,
		EndDate:         row.EndDate,
		BillingDay:      row.BillingDay,
		MonthlyAmount:   row.MonthlyAmount,
		Deposit:         row.Deposit,
		StartOdometer:   row.StartOdometer,
		CurrentOdometer: row.CurrentOdometer,
		Status:          row.Status,
		SignedAt:        row.SignedAt,
		Plan: model.Plan{
			ID:           row.PlanID,
			Name:         row.PlanName,
			DailyPrice:   row.PlanDailyPrice,
			WeeklyPrice:  row.PlanWeeklyPrice,
			MonthlyPrice: row.PlanMonthlyPrice,
			KmIncluded:   row.PlanKmIncluded,
			KmExtraPrice: row.PlanKmExtraPrice,
		},
	}
}

// ListBillable returns the active contracts whose window covers the given
// day, with their plans preloaded.
func (r *ContractRepository) ListBillable(ctx context.Context, day time.Time) ([]model.Contract, error) {
	var rows []contractRow
	err := r.db.WithContext(ctx).Raw(contractSelect+`
		WHERE c.status = 'ACTIVE'
			AND c.start_date <= CAST(? AS DATE)
			AND c.end_date >= CAST(? AS DATE)
		ORDER BY c.number ASC
	`, day, day).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	contracts := make([]model.Contract, 0, len(rows))
	for _, row := range rows {
		contracts = append(contracts, row.toModel())
	}
	return contracts, nil
}

func (r *ContractRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var row contractRow
	err := r.db.WithContext(ctx).Raw(contractSelect+`
		WHERE c.id = ?
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	contract := row.toModel()
	return &contract, nil
}

func (r *ContractRepository) GetBranch(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var branch model.Branch
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, legal_name, document, address, phone
		FROM branches
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&branch).Error
	if err != nil {
		return nil, err
	}
	if branch.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &branch, nil
}

// ListOdometerReadings returns the readings of one contract inside
// [from, to), oldest first.
func (r *ContractRepository) ListOdometerReadings(
	ctx context.Context,
	contractID uuid.UUID,
	from, to time.Time,
) ([]model.OdometerReading, error) {
	var readings []model.OdometerReading
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, vehicle_id, recorded_at, value
		FROM odometer_readings
		WHERE contract_id = ?
			AND recorded_at >= ?
			AND recorded_at < ?
		ORDER BY recorded_at ASC
	`, contractID, from, to).Scan(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}
