package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/driveon/rental-billing/internal/model"
)

type ExcelGenerator interface {
	Generate(statement model.ChargeStatement) ([]byte, error)
}

type PDFGenerator interface {
	Generate(doc model.ReceiptDocument) ([]byte, error)
}

// StatementStore is the slice of charge persistence the statement
// service needs.
type StatementStore interface {
	ListForStatement(ctx context.Context, branchID *uuid.UUID, from, to time.Time) ([]model.StatementRow, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Charge, error)
}

type StatementService struct {
	charges   StatementStore
	contracts ContractStore
	excel     ExcelGenerator
	pdf       PDFGenerator
	log       zerolog.Logger
}

func NewStatementService(
	charges StatementStore,
	contracts ContractStore,
	excel ExcelGenerator,
	pdf PDFGenerator,
	log zerolog.Logger,
) *StatementService {
	return &StatementService{
		charges:   charges,
		contracts: contracts,
		excel:     excel,
		pdf:       pdf,
		log:       log,
	}
}

type StatementInput struct {
	BranchID    *uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Principal   model.Principal
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// ExportStatement builds the charge statement workbook for one period.
// The period bounds are inclusive dates over reference months.
func (s *StatementService) ExportStatement(ctx context.Context, input StatementInput) (*ExportResult, error) {
	if !input.Principal.IsOperator() {
		return nil, ErrPermissionDenied
	}
	periodStart := dateOnly(input.PeriodStart)
	periodEnd := dateOnly(input.PeriodEnd)
	if periodStart.IsZero() || periodEnd.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}
	if periodStart.After(periodEnd) {
		return nil, fmt.Errorf("%w: period_start must be before or equal to period_end", ErrInvalidInput)
	}

	var branch *model.Branch
	if input.BranchID != nil {
		found, err := s.contracts.GetBranch(ctx, *input.BranchID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, ErrNotFound
			}
			return nil, err
		}
		branch = found
	}

	endExclusive := periodEnd.AddDate(0, 0, 1)
	rows, err := s.charges.ListForStatement(ctx, input.BranchID, periodStart, endExclusive)
	if err != nil {
		return nil, err
	}

	statement := buildStatement(branch, periodStart, periodEnd, rows)
	content, err := s.excel.Generate(statement)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName: statementFileName(statement),
		Content:  content,
	}, nil
}

// BuildReceipt renders the payment receipt of a paid charge.
func (s *StatementService) BuildReceipt(ctx context.Context, principal model.Principal, chargeID uuid.UUID) (*ExportResult, error) {
	if principal.IsDriver() {
		return nil, ErrPermissionDenied
	}

	charge, err := s.charges.GetByID(ctx, chargeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if charge.Status != model.ChargeStatusPaid {
		return nil, fmt.Errorf("%w: receipt requires a paid charge, got %s", ErrInvalidInput, charge.Status)
	}

	contract, err := s.contracts.GetContract(ctx, charge.ContractID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	branch, err := s.contracts.GetBranch(ctx, contract.BranchID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	content, err := s.pdf.Generate(model.ReceiptDocument{
		Charge:   *charge,
		Contract: *contract,
		Branch:   *branch,
	})
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("receipt-%s-%s.pdf", contract.Number, charge.ReferenceMonth.Format("200601"))
	return &ExportResult{FileName: sanitizeFileName(fileName), Content: content}, nil
}

func buildStatement(branch *model.Branch, periodStart, periodEnd time.Time, rows []model.StatementRow) model.ChargeStatement {
	statement := model.ChargeStatement{
		Branch:      branch,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		TotalBilled: decimal.Zero,
		TotalPaid:   decimal.Zero,
		TotalOpen:   decimal.Zero,
	}

	order := []model.ChargeStatus{
		model.ChargeStatusPending,
		model.ChargeStatusOverdue,
		model.ChargeStatusPaid,
		model.ChargeStatusCancelled,
	}
	grouped := make(map[model.ChargeStatus][]model.StatementRow, len(order))
	for _, row := range rows {
		grouped[row.Charge.Status] = append(grouped[row.Charge.Status], row)

		switch row.Charge.Status {
		case model.ChargeStatusPaid:
			statement.TotalBilled = statement.TotalBilled.Add(row.Charge.Amount)
			statement.TotalPaid = statement.TotalPaid.Add(row.Charge.Amount).Add(row.Charge.PenaltyAmount)
		case model.ChargeStatusPending, model.ChargeStatusOverdue:
			statement.TotalBilled = statement.TotalBilled.Add(row.Charge.Amount)
			statement.TotalOpen = statement.TotalOpen.Add(row.Charge.Amount)
		}
	}

	for _, status := range order {
		if len(grouped[status]) == 0 {
			continue
		}
		statement.Groups = append(statement.Groups, model.StatementGroup{
			Status: status,
			Rows:   grouped[status],
		})
	}
	return statement
}

func statementFileName(statement model.ChargeStatement) string {
	target := "all-branches"
	if statement.Branch != nil {
		target = sanitizeFileName(statement.Branch.Name)
		if target == "" {
			target = statement.Branch.ID.String()
		}
	}
	period := fmt.Sprintf("%s-%s", statement.PeriodStart.Format("20060102"), statement.PeriodEnd.Format("20060102"))
	return fmt.Sprintf("charges-%s-%s.xlsx", target, period)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_', r == '.':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
