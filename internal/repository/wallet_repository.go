package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/telehealth-backend/internal/logger"
	"github.com/ignatzorin/telehealth-backend/internal/repository/common"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// WalletRepository изменяет баланс кошелька пользователя в рамках транзакции вызывающего.
type WalletRepository struct{}

func NewWalletRepository() *WalletRepository {
	return &WalletRepository{}
}

// UpdateBalance прибавляет delta к балансу пользователя.
// Отсутствующий пользователь и уход баланса в минус прерывают транзакцию вызывающего.
func (r *WalletRepository) UpdateBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		logger.Log.WithField("user_id", userID).Warn("Изменение баланса на 0 пропущено")
		return nil
	}

	var balance decimal.Decimal
	err := tx.GetContext(ctx, &balance, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("wallet repository: lock balance: %w", err)
	}

	newBalance := balance.Add(delta)
	if newBalance.IsNegative() {
		return ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = $2, updated_at = NOW() WHERE id = $1`, userID, newBalance); err != nil {
		// CHECK (balance >= 0) на стороне БД
		if common.IsCheckViolation(err) {
			return ErrInsufficientFunds
		}
		return fmt.Errorf("wallet repository: update balance: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":     userID,
		"delta":       delta.String(),
		"new_balance": newBalance.String(),
	}).Info("Баланс пользователя обновлён")
	return nil
}

