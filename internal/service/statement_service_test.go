package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveon/rental-billing/internal/model"
)

type stubExcel struct{ statements []model.ChargeStatement }

func (s *stubExcel) Generate(statement model.ChargeStatement) ([]byte, error) {
	s.statements = append(s.statements, statement)
	return []byte("xlsx"), nil
}

type stubPDF struct{ docs []model.ReceiptDocument }

func (s *stubPDF) Generate(doc model.ReceiptDocument) ([]byte, error) {
	s.docs = append(s.docs, doc)
	return []byte("pdf"), nil
}

type stubStatementStore struct {
	rows    []model.StatementRow
	charges map[uuid.UUID]*model.Charge
}

func (s *stubStatementStore) ListForStatement(_ context.Context, _ *uuid.UUID, _, _ time.Time) ([]model.StatementRow, error) {
	return s.rows, nil
}

func (s *stubStatementStore) GetByID(_ context.Context, id uuid.UUID) (*model.Charge, error) {
	return (&fakeChargeStore{charges: s.charges}).GetByID(context.Background(), id)
}

func statementRow(number string, status model.ChargeStatus, amount, penalty string) model.StatementRow {
	return model.StatementRow{
		Charge: model.Charge{
			ID:             uuid.New(),
			ReferenceMonth: date(2025, time.November, 1),
			DueDate:        date(2025, time.November, 5),
			Amount:         dec(amount),
			Status:         status,
			PenaltyAmount:  dec(penalty),
		},
		ContractNumber: number,
	}
}

func TestExportStatementTotals(t *testing.T) {
	store := &stubStatementStore{rows: []model.StatementRow{
		statementRow("CT-1", model.ChargeStatusPaid, "1800.00", "36.00"),
		statementRow("CT-2", model.ChargeStatusOverdue, "1500.00", "0"),
		statementRow("CT-3", model.ChargeStatusPending, "1200.00", "0"),
		statementRow("CT-4", model.ChargeStatusCancelled, "900.00", "0"),
	}}
	excel := &stubExcel{}
	svc := NewStatementService(store, newFakeContractStore(), excel, &stubPDF{}, zerolog.Nop())

	result, err := svc.ExportStatement(context.Background(), StatementInput{
		PeriodStart: date(2025, time.November, 1),
		PeriodEnd:   date(2025, time.November, 30),
		Principal:   operator(),
	})
	require.NoError(t, err)
	assert.Equal(t, "charges-all-branches-20251101-20251130.xlsx", result.FileName)

	require.Len(t, excel.statements, 1)
	statement := excel.statements[0]
	// Cancelled charges are excluded from every total.
	assert.True(t, statement.TotalBilled.Equal(dec("4500.00")), "billed %s", statement.TotalBilled)
	assert.True(t, statement.TotalPaid.Equal(dec("1836.00")), "paid %s", statement.TotalPaid)
	assert.True(t, statement.TotalOpen.Equal(dec("2700.00")), "open %s", statement.TotalOpen)
	require.Len(t, statement.Groups, 4)
	assert.Equal(t, model.ChargeStatusPending, statement.Groups[0].Status)
}

func TestExportStatementRequiresOperator(t *testing.T) {
	svc := NewStatementService(&stubStatementStore{}, newFakeContractStore(), &stubExcel{}, &stubPDF{}, zerolog.Nop())

	_, err := svc.ExportStatement(context.Background(), StatementInput{
		PeriodStart: date(2025, time.November, 1),
		PeriodEnd:   date(2025, time.November, 30),
		Principal:   model.Principal{Role: model.RoleDriver},
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestBuildReceiptRequiresPaidCharge(t *testing.T) {
	contract := activeContract("1800.00")
	branch := model.Branch{ID: contract.BranchID, Name: "Centro"}

	paidAt := date(2025, time.November, 12)
	method := "PIX"
	paid := &model.Charge{
		ID:             uuid.New(),
		ContractID:     contract.ID,
		ReferenceMonth: date(2025, time.November, 1),
		DueDate:        date(2025, time.November, 5),
		Amount:         dec("1800.00"),
		Status:         model.ChargeStatusPaid,
		PaidAt:         &paidAt,
		PaymentMethod:  &method,
	}
	pending := &model.Charge{
		ID:         uuid.New(),
		ContractID: contract.ID,
		Status:     model.ChargeStatusPending,
	}

	contracts := newFakeContractStore(contract)
	contracts.branches[branch.ID] = branch
	store := &stubStatementStore{charges: map[uuid.UUID]*model.Charge{
		paid.ID:    paid,
		pending.ID: pending,
	}}
	pdf := &stubPDF{}
	svc := NewStatementService(store, contracts, &stubExcel{}, pdf, zerolog.Nop())

	result, err := svc.BuildReceipt(context.Background(), operator(), paid.ID)
	require.NoError(t, err)
	assert.Equal(t, "receipt-CT-1001-202511.pdf", result.FileName)
	require.Len(t, pdf.docs, 1)
	assert.Equal(t, branch.Name, pdf.docs[0].Branch.Name)

	_, err = svc.BuildReceipt(context.Background(), operator(), pending.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.BuildReceipt(context.Background(), operator(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
