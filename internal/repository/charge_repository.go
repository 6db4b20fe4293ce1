package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/driveon/rental-billing/internal/model"
)

type ChargeRepository struct {
	db *gorm.DB
}

func NewChargeRepository(db *gorm.DB) *ChargeRepository {
	return &ChargeRepository{db: db}
}

const chargeColumns = `
	id,
	contract_id,
	reference_month,
	due_date,
	amount,
	status,
	paid_at,
	payment_method,
	days_late,
	penalty_amount,
	notes,
	created_at,
	updated_at`

// Insert creates the charge unless one already exists for the same
// (contract, reference month). The uniqueness conflict is not an error:
// it means a previous or concurrent run already generated the charge.
func (r *ChargeRepository) Insert(ctx context.Context, charge model.Charge) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO charges (
			contract_id,
			reference_month,
			due_date,
			amount,
			status,
			days_late,
			penalty_amount,
			notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (contract_id, reference_month) DO NOTHING
	`,
		charge.ContractID,
		charge.ReferenceMonth,
		charge.DueDate,
		charge.Amount,
		charge.Status,
		charge.DaysLate,
		charge.PenaltyAmount,
		charge.Notes,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ChargeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Charge, error) {
	var charge model.Charge
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+chargeColumns+`
		FROM charges
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&charge).Error
	if err != nil {
		return nil, err
	}
	if charge.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &charge, nil
}

func (r *ChargeRepository) List(ctx context.Context, filter model.ChargeFilter) ([]model.Charge, error) {
	query := `
		SELECT ` + chargeColumns + `
		FROM charges
		WHERE 1=1`
	var args []interface{}
	if filter.ContractID != nil {
		query += ` AND contract_id = ?`
		args = append(args, *filter.ContractID)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY reference_month DESC, created_at DESC`

	var charges []model.Charge
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}

// MarkOverdue promotes every pending charge past its due date and stamps
// the elapsed whole days. One atomic statement, safe under concurrent
// sweeps.
func (r *ChargeRepository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE charges
		SET
			status = 'OVERDUE',
			days_late = CAST(? AS DATE) - due_date,
			updated_at = NOW()
		WHERE status = 'PENDING' AND due_date < CAST(? AS DATE)
	`, today, today)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// RefreshDaysLate recomputes the late-day count of charges that are
// already overdue. GREATEST keeps the count monotonic even if the sweep
// runs with a stale date.
func (r *ChargeRepository) RefreshDaysLate(ctx context.Context, today time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE charges
		SET
			days_late = GREATEST(days_late, CAST(? AS DATE) - due_date),
			updated_at = NOW()
		WHERE status = 'OVERDUE' AND days_late < CAST(? AS DATE) - due_date
	`, today, today)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SettleIfOpen transitions the charge to PAID only if it is still open.
// Returns nil without error when no open charge matched, so the caller
// can distinguish a lost compare-and-set from a missing charge.
func (r *ChargeRepository) SettleIfOpen(
	ctx context.Context,
	id uuid.UUID,
	paidAt time.Time,
	method string,
	penalty decimal.Decimal,
	notes *string,
) (*model.Charge, error) {
	var charge model.Charge
	err := r.db.WithContext(ctx).Raw(`
		UPDATE charges
		SET
			status = 'PAID',
			paid_at = ?,
			payment_method = ?,
			penalty_amount = ?,
			notes = COALESCE(?, notes),
			updated_at = NOW()
		WHERE id = ? AND status IN ('PENDING', 'OVERDUE')
		RETURNING `+chargeColumns+`
	`, paidAt, method, penalty, notes, id).Scan(&charge).Error
	if err != nil {
		return nil, err
	}
	if charge.ID == uuid.Nil {
		return nil, nil
	}
	return &charge, nil
}

// CancelIfOpen is the manual PENDING/OVERDUE -> CANCELLED transition.
// Same compare-and-set contract as SettleIfOpen.
func (r *ChargeRepository) CancelIfOpen(ctx context.Context, id uuid.UUID) (*model.Charge, error) {
	var charge model.Charge
	err := r.db.WithContext(ctx).Raw(`
		UPDATE charges
		SET
			status = 'CANCELLED',
			updated_at = NOW()
		WHERE id = ? AND status IN ('PENDING', 'OVERDUE')
		RETURNING `+chargeColumns+`
	`, id).Scan(&charge).Error
	if err != nil {
		return nil, err
	}
	if charge.ID == uuid.Nil {
		return nil, nil
	}
	return &charge, nil
}

// ListForStatement returns the charges of one billing period joined with
// their contract identifiers, optionally narrowed to a branch.
func (r *ChargeRepository) ListForStatement(
	ctx context.Context,
	branchID *uuid.UUID,
	from, to time.Time,
) ([]model.StatementRow, error) {
	type row struct {
		ID             uuid.UUID
		ContractID     uuid.UUID
		ReferenceMonth time.Time
		DueDate        time.Time
		Amount         decimal.Decimal
		Status         model.ChargeStatus
		PaidAt         *time.Time
		PaymentMethod  *string
		DaysLate       int
		PenaltyAmount  decimal.Decimal
		Notes          *string
		CreatedAt      time.Time
		UpdatedAt      time.Time
		ContractNumber string
		BranchID       uuid.UUID
	}

	query := `
		SELECT
			ch.id,
			ch.contract_id,
			ch.reference_month,
			ch.due_date,
			ch.amount,
			ch.status,
			ch.paid_at,
			ch.payment_method,
			ch.days_late,
			ch.penalty_amount,
			ch.notes,
			ch.created_at,
			ch.updated_at,
			c.number AS contract_number,
			c.branch_id
		FROM charges ch
		JOIN contracts c ON c.id = ch.contract_id
		WHERE ch.reference_month >= ? AND ch.reference_month < ?`
	args := []interface{}{from, to}
	if branchID != nil {
		query += ` AND c.branch_id = ?`
		args = append(args, *branchID)
	}
	query += ` ORDER BY ch.reference_month ASC, c.number ASC`

	var rows []row
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]model.StatementRow, 0, len(rows))
	for _, item := range rows {
		result = append(result, model.StatementRow{
			Charge: model.Charge{
				ID:             item.ID,
				ContractID:     item.ContractID,
				ReferenceMonth: item.ReferenceMonth,
				DueDate:        item.DueDate,
				Amount:         item.Amount,
				Status:         item.Status,
				PaidAt:         item.PaidAt,
				PaymentMethod:  item.PaymentMethod,
				DaysLate:       item.DaysLate,
				PenaltyAmount:  item.PenaltyAmount,
				Notes:          item.Notes,
				CreatedAt:      item.CreatedAt,
				UpdatedAt:      item.UpdatedAt,
			},
			ContractNumber: item.ContractNumber,
			BranchID:       item.BranchID,
		})
	}
	return result, nil
}
