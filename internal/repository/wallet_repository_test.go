package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lockBalanceQuery   = regexp.QuoteMeta("SELECT balance FROM users WHERE id = $1 FOR UPDATE")
	updateBalanceQuery = regexp.QuoteMeta("UPDATE users SET balance = $2, updated_at = NOW() WHERE id = $1")
)

func TestWalletRepository_UpdateBalance(t *testing.T) {
	tests := []struct {
		name       string
		balance    string
		delta      string
		newBalance string
	}{
		{"credit", "100.00", "50", "150"},
		{"debit", "100.00", "-40.50", "59.5"},
		{"debit to zero", "100.00", "-100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, tx, mock := newMockTx(t)
			userID := uuid.New()

			mock.ExpectQuery(lockBalanceQuery).
				WithArgs(userID).
				WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(tt.balance))
			mock.ExpectExec(updateBalanceQuery).
				WithArgs(userID, tt.newBalance).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := NewWalletRepository().UpdateBalance(context.Background(), tx, userID, decimal.RequireFromString(tt.delta))

			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWalletRepository_UpdateBalance_ZeroDeltaIsNoop(t *testing.T) {
	_, tx, mock := newMockTx(t)

	err := NewWalletRepository().UpdateBalance(context.Background(), tx, uuid.New(), decimal.Zero)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepository_UpdateBalance_InsufficientFunds(t *testing.T) {
	_, tx, mock := newMockTx(t)
	userID := uuid.New()

	mock.ExpectQuery(lockBalanceQuery).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("100.00"))

	err := NewWalletRepository().UpdateBalance(context.Background(), tx, userID, decimal.RequireFromString("-100.01"))

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepository_UpdateBalance_CheckViolation(t *testing.T) {
	_, tx, mock := newMockTx(t)
	userID := uuid.New()

	mock.ExpectQuery(lockBalanceQuery).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("10.00"))
	mock.ExpectExec(updateBalanceQuery).
		WillReturnError(&pq.Error{Code: "23514", Message: `new row for relation "users" violates check constraint`})

	err := NewWalletRepository().UpdateBalance(context.Background(), tx, userID, decimal.RequireFromString("-5"))

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepository_UpdateBalance_UserNotFound(t *testing.T) {
	_, tx, mock := newMockTx(t)
	userID := uuid.New()

	mock.ExpectQuery(lockBalanceQuery).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))

	err := NewWalletRepository().UpdateBalance(context.Background(), tx, userID, decimal.NewFromInt(10))

	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
