package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/driveon/rental-billing/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func pendingCharge() model.Charge {
	return model.Charge{
		ContractID:     uuid.New(),
		ReferenceMonth: time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2025, time.November, 5, 0, 0, 0, 0, time.UTC),
		Amount:         decimal.RequireFromString("1800.00"),
		Status:         model.ChargeStatusPending,
		PenaltyAmount:  decimal.Zero,
	}
}

func TestInsertCreatesCharge(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargeRepository(db)

	mock.ExpectExec("INSERT INTO charges").
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.Insert(context.Background(), pendingCharge())
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertConflictIsNotAnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargeRepository(db)

	// ON CONFLICT DO NOTHING: zero rows affected means the charge for
	// this (contract, month) already exists.
	mock.ExpectExec("INSERT INTO charges").
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.Insert(context.Background(), pendingCharge())
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkOverdueReturnsAffectedCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargeRepository(db)

	mock.ExpectExec("UPDATE charges").
		WillReturnResult(sqlmock.NewResult(0, 3))

	updated, err := repo.MarkOverdue(context.Background(), time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleIfOpenMissReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargeRepository(db)

	mock.ExpectQuery("UPDATE charges").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	charge, err := repo.SettleIfOpen(
		context.Background(),
		uuid.New(),
		time.Date(2025, time.November, 12, 0, 0, 0, 0, time.UTC),
		"PIX",
		decimal.Zero,
		nil,
	)
	require.NoError(t, err)
	assert.Nil(t, charge, "a lost compare-and-set must not be an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDScansCharge(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargeRepository(db)

	id := uuid.New()
	contractID := uuid.New()
	rows := sqlmock.NewRows([]string{
		"id", "contract_id", "reference_month", "due_date", "amount", "status",
		"paid_at", "payment_method", "days_late", "penalty_amount", "notes",
		"created_at", "updated_at",
	}).AddRow(
		id, contractID,
		time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.November, 5, 0, 0, 0, 0, time.UTC),
		"1800.00", "OVERDUE",
		nil, nil, 5, "0.00", nil,
		time.Now(), time.Now(),
	)
	mock.ExpectQuery("SELECT(.|\n)*FROM charges").WillReturnRows(rows)

	charge, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, charge.ID)
	assert.Equal(t, contractID, charge.ContractID)
	assert.Equal(t, model.ChargeStatusOverdue, charge.Status)
	assert.Equal(t, 5, charge.DaysLate)
	assert.True(t, charge.Amount.Equal(decimal.RequireFromString("1800.00")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargeRepository(db)

	mock.ExpectQuery("SELECT(.|\n)*FROM charges").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
