package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/driveon/rental-billing/internal/model"
)

// ChargeStore is the persistence surface the billing engine needs. The
// uniqueness of (contract, reference month) and the open-state
// compare-and-set live behind this interface, in the database.
type ChargeStore interface {
	Insert(ctx context.Context, charge model.Charge) (created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Charge, error)
	List(ctx context.Context, filter model.ChargeFilter) ([]model.Charge, error)
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
	RefreshDaysLate(ctx context.Context, today time.Time) (int64, error)
	SettleIfOpen(ctx context.Context, id uuid.UUID, paidAt time.Time, method string, penalty decimal.Decimal, notes *string) (*model.Charge, error)
	CancelIfOpen(ctx context.Context, id uuid.UUID) (*model.Charge, error)
}

// ContractStore reads the contract-side models owned by other modules.
type ContractStore interface {
	ListBillable(ctx context.Context, day time.Time) ([]model.Contract, error)
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	GetBranch(ctx context.Context, id uuid.UUID) (*model.Branch, error)
	ListOdometerReadings(ctx context.Context, contractID uuid.UUID, from, to time.Time) ([]model.OdometerReading, error)
}

type BillingService struct {
	charges   ChargeStore
	contracts ContractStore
	log       zerolog.Logger
}

func NewBillingService(charges ChargeStore, contracts ContractStore, log zerolog.Logger) *BillingService {
	return &BillingService{
		charges:   charges,
		contracts: contracts,
		log:       log,
	}
}

// GenerationSummary reports one generator run. Skipped counts contracts
// whose charge for the month already existed; Failed counts contracts
// whose charge could not be built or stored.
type GenerationSummary struct {
	Created int64 `json:"created"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

// SweepSummary reports one overdue sweep.
type SweepSummary struct {
	MarkedOverdue int64 `json:"marked_overdue"`
	Refreshed     int64 `json:"refreshed"`
	Updated       int64 `json:"updated"`
}

// PaymentInput carries a manually confirmed payment. Penalty is supplied
// by the operator (negotiated waivers happen); it is not computed here.
type PaymentInput struct {
	PaidAt    time.Time
	Method    string
	Penalty   decimal.Decimal
	Notes     *string
	Principal model.Principal
}

// GenerateMonthlyCharges emits at most one charge per active contract for
// the month containing today. Safe to re-run and safe under concurrent
// runs: creation is keyed on the store's uniqueness constraint, and a
// conflict counts as skipped. One contract's failure never aborts the
// batch.
func (s *BillingService) GenerateMonthlyCharges(ctx context.Context, principal model.Principal, today time.Time) (*GenerationSummary, error) {
	if !principal.IsOperator() {
		return nil, ErrPermissionDenied
	}

	today = dateOnly(today)
	refMonth := monthStart(today)

	contracts, err := s.contracts.ListBillable(ctx, today)
	if err != nil {
		return nil, err
	}

	summary := &GenerationSummary{}
	for _, contract := range contracts {
		if !contract.CoversDate(today) || contract.Status != model.ContractStatusActive {
			summary.Skipped++
			continue
		}

		charge, err := s.buildCharge(ctx, contract, refMonth)
		if err != nil {
			s.log.Error().Err(err).
				Str("contract", contract.Number).
				Str("reference_month", refMonth.Format("2006-01")).
				Msg("charge build failed")
			summary.Failed++
			continue
		}

		created, err := s.charges.Insert(ctx, *charge)
		if err != nil {
			s.log.Error().Err(err).
				Str("contract", contract.Number).
				Str("reference_month", refMonth.Format("2006-01")).
				Msg("charge insert failed")
			summary.Failed++
			continue
		}
		if created {
			summary.Created++
		} else {
			summary.Skipped++
		}
	}

	s.log.Info().
		Str("reference_month", refMonth.Format("2006-01")).
		Int64("created", summary.Created).
		Int64("skipped", summary.Skipped).
		Int64("failed", summary.Failed).
		Msg("charge generation finished")
	return summary, nil
}

func (s *BillingService) buildCharge(ctx context.Context, contract model.Contract, refMonth time.Time) (*model.Charge, error) {
	amount := contract.MonthlyAmount

	// Mileage is reconciled over the previous period; unlimited plans
	// short-circuit without touching the readings.
	if !contract.Plan.Unlimited() {
		periodStart := refMonth.AddDate(0, -1, 0)
		readings, err := s.contracts.ListOdometerReadings(ctx, contract.ID, periodStart, refMonth)
		if err != nil {
			return nil, err
		}
		overage := ReconcileMileage(readings, contract.Plan.KmIncluded, contract.Plan.KmExtraPrice)
		amount = amount.Add(overage.Surcharge)
	}

	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: negative charge amount %s for contract %s", ErrDataIntegrity, amount, contract.Number)
	}

	return &model.Charge{
		ContractID:     contract.ID,
		ReferenceMonth: refMonth,
		DueDate:        dueDateFor(refMonth, contract.BillingDay),
		Amount:         amount,
		Status:         model.ChargeStatusPending,
		PenaltyAmount:  decimal.Zero,
	}, nil
}

// SweepOverdueCharges promotes pending charges past their due date and
// refreshes the late-day count of already-overdue ones. Idempotent for a
// given date; paid and cancelled charges are never touched.
func (s *BillingService) SweepOverdueCharges(ctx context.Context, principal model.Principal, today time.Time) (*SweepSummary, error) {
	if !principal.IsOperator() {
		return nil, ErrPermissionDenied
	}

	today = dateOnly(today)

	marked, err := s.charges.MarkOverdue(ctx, today)
	if err != nil {
		return nil, err
	}
	refreshed, err := s.charges.RefreshDaysLate(ctx, today)
	if err != nil {
		return nil, err
	}

	summary := &SweepSummary{
		MarkedOverdue: marked,
		Refreshed:     refreshed,
		Updated:       marked + refreshed,
	}
	s.log.Info().
		Int64("marked_overdue", marked).
		Int64("refreshed", refreshed).
		Msg("overdue sweep finished")
	return summary, nil
}

// RecordPayment transitions one open charge to PAID. The store update is
// a compare-and-set; when it misses, the charge is re-read to tell a
// terminal state from a missing charge. The late-day count already on
// the charge is preserved.
func (s *BillingService) RecordPayment(ctx context.Context, chargeID uuid.UUID, input PaymentInput) (*model.Charge, error) {
	if input.Principal.IsDriver() {
		return nil, ErrPermissionDenied
	}
	if chargeID == uuid.Nil {
		return nil, fmt.Errorf("%w: charge id is required", ErrInvalidInput)
	}
	if input.PaidAt.IsZero() {
		return nil, fmt.Errorf("%w: payment date is required", ErrInvalidInput)
	}
	if input.Method == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidInput)
	}
	if input.Penalty.IsNegative() {
		return nil, fmt.Errorf("%w: penalty must not be negative", ErrInvalidInput)
	}

	charge, err := s.charges.SettleIfOpen(ctx, chargeID, dateOnly(input.PaidAt), input.Method, input.Penalty, input.Notes)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, s.classifyMissedUpdate(ctx, chargeID, model.ChargeStatusPaid)
	}

	s.log.Info().
		Str("charge_id", charge.ID.String()).
		Str("method", input.Method).
		Int("days_late", charge.DaysLate).
		Msg("payment recorded")
	return charge, nil
}

// CancelCharge is the manual open -> CANCELLED transition. Cancelled
// charges stay in the ledger; nothing is ever physically deleted.
func (s *BillingService) CancelCharge(ctx context.Context, principal model.Principal, chargeID uuid.UUID) (*model.Charge, error) {
	if principal.IsDriver() {
		return nil, ErrPermissionDenied
	}
	if chargeID == uuid.Nil {
		return nil, fmt.Errorf("%w: charge id is required", ErrInvalidInput)
	}

	charge, err := s.charges.CancelIfOpen(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, s.classifyMissedUpdate(ctx, chargeID, model.ChargeStatusCancelled)
	}

	s.log.Info().Str("charge_id", charge.ID.String()).Msg("charge cancelled")
	return charge, nil
}

func (s *BillingService) ListCharges(ctx context.Context, filter model.ChargeFilter) ([]model.Charge, error) {
	return s.charges.List(ctx, filter)
}

// classifyMissedUpdate explains a compare-and-set that matched no row:
// either the charge does not exist, or it is already in a terminal state.
func (s *BillingService) classifyMissedUpdate(ctx context.Context, chargeID uuid.UUID, attempted model.ChargeStatus) error {
	existing, err := s.charges.GetByID(ctx, chargeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	return fmt.Errorf("%w: charge is %s, cannot move to %s", ErrInvalidStateTransition, existing.Status, attempted)
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthStart truncates a day to the first of its month, the canonical
// reference-month value.
func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// dueDateFor resolves a contract's billing day inside the reference
// month, clamped to the month's last day (day 31 in April bills on the
// 30th).
func dueDateFor(refMonth time.Time, billingDay int) time.Time {
	lastDay := refMonth.AddDate(0, 1, -1).Day()
	day := billingDay
	if day < 1 {
		day = 1
	}
	if day > lastDay {
		day = lastDay
	}
	return time.Date(refMonth.Year(), refMonth.Month(), day, 0, 0, 0, 0, time.UTC)
}
