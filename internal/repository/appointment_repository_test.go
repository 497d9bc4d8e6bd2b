package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/telehealth-backend/internal/domain/valueobject"
	"github.com/ignatzorin/telehealth-backend/internal/models"
	"github.com/ignatzorin/telehealth-backend/internal/repository/common"
)

var (
	lockAppointmentQuery = regexp.QuoteMeta("FROM appointments a") + ".*" +
		regexp.QuoteMeta("WHERE a.id = $1 FOR UPDATE OF a")
	saveResolutionQuery = regexp.QuoteMeta("UPDATE appointments") + ".*" +
		regexp.QuoteMeta("WHERE id = $1 AND resolved_at IS NULL")
	appointmentColumns = []string{"id", "status", "payment_id", "payment_amount", "resolved_at",
		"customer_user_id", "dermatologist_user_id"}
)

func TestAppointmentRepository_LockForResolution(t *testing.T) {
	conn, tx, mock := newMockTx(t)
	repo := NewAppointmentRepository(conn, 5*time.Second)
	id, paymentID, doctorUserID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = 5000")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(lockAppointmentQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(appointmentColumns).
			AddRow(id.String(), "DISPUTED", paymentID.String(), "400.00", nil, nil, doctorUserID.String()))

	a, err := repo.LockForResolution(context.Background(), tx, id)

	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, valueobject.AppointmentStatusDisputed, a.Status)
	assert.False(t, a.IsResolved())
	require.True(t, a.PaymentAmount.Valid)
	assert.True(t, a.PaymentAmount.Decimal.Equal(decimal.RequireFromString("400")))
	assert.Nil(t, a.CustomerUserID)
	require.NotNil(t, a.DermatologistUserID)
	assert.Equal(t, doctorUserID, *a.DermatologistUserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_LockForResolution_WithoutTimeout(t *testing.T) {
	conn, tx, mock := newMockTx(t)
	repo := NewAppointmentRepository(conn, 0)
	id := uuid.New()

	mock.ExpectQuery(lockAppointmentQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(appointmentColumns).
			AddRow(id.String(), "COMPLETED", nil, nil, nil, nil, nil))

	a, err := repo.LockForResolution(context.Background(), tx, id)

	require.NoError(t, err)
	assert.False(t, a.PaymentAmount.Valid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_LockForResolution_NotFound(t *testing.T) {
	conn, tx, mock := newMockTx(t)
	repo := NewAppointmentRepository(conn, 0)
	id := uuid.New()

	mock.ExpectQuery(lockAppointmentQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(appointmentColumns))

	a, err := repo.LockForResolution(context.Background(), tx, id)

	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_LockForResolution_LockTimeout(t *testing.T) {
	conn, tx, mock := newMockTx(t)
	repo := NewAppointmentRepository(conn, 200*time.Millisecond)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = 200")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(lockAppointmentQuery).
		WithArgs(id).
		WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})

	_, err := repo.LockForResolution(context.Background(), tx, id)

	require.Error(t, err)
	assert.True(t, common.IsLockNotAvailable(err), "got %v", err)
	assert.False(t, errors.Is(err, ErrAppointmentNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_SaveResolution(t *testing.T) {
	reason := valueobject.TerminationReasonDoctorNoShow
	res := models.AppointmentResolution{
		AppointmentID:     uuid.New(),
		Status:            valueobject.AppointmentStatusSettled,
		TerminationReason: &reason,
		AdminNote:         "Врач не подключился",
		ResolvedAt:        time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		ResolvedBy:        uuid.New(),
	}

	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"first resolution", 1, nil},
		{"audit already written", 0, ErrAppointmentAlreadyResolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, tx, mock := newMockTx(t)
			repo := NewAppointmentRepository(conn, 0)

			mock.ExpectExec(saveResolutionQuery).
				WithArgs(res.AppointmentID, res.Status, res.TerminationReason, res.AdminNote, sqlmock.AnyArg(), res.ResolvedBy).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.SaveResolution(context.Background(), tx, res)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAppointmentRepository_SaveResolution_DriverError(t *testing.T) {
	conn, tx, mock := newMockTx(t)
	repo := NewAppointmentRepository(conn, 0)

	mock.ExpectExec(saveResolutionQuery).
		WillReturnError(errors.New("connection reset by peer"))

	err := repo.SaveResolution(context.Background(), tx, models.AppointmentResolution{AppointmentID: uuid.New()})

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAppointmentAlreadyResolved))
	require.NoError(t, mock.ExpectationsWereMet())
}
