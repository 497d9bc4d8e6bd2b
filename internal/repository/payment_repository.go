package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/telehealth-backend/internal/models"
	"github.com/ignatzorin/telehealth-backend/internal/repository/common"
)

// PaymentRepository пишет записи о выплатах. Записи не изменяются и не удаляются.
type PaymentRepository struct {
	db   *sqlx.DB
	node *snowflake.Node
}

func NewPaymentRepository(db *sqlx.DB, node *snowflake.Node) *PaymentRepository {
	return &PaymentRepository{db: db, node: node}
}

// NewPaymentCode генерирует уникальный код платежа, по которому выплату можно найти в выписке.
func (r *PaymentRepository) NewPaymentCode() string {
	return models.PaymentCodePrefix + r.node.Generate().String()
}

// CreatePayout добавляет запись о выплате на кошелёк в транзакции вызывающего.
// Дубликаты не проверяются: повторный вызов исключает блокировка приёма.
func (r *PaymentRepository) CreatePayout(ctx context.Context, tx *sqlx.Tx, payeeID uuid.UUID, amount decimal.Decimal, appointmentID uuid.UUID) (*models.Payment, error) {
	now := time.Now().UTC()
	transferContent := appointmentID.String()

	payment := models.Payment{
		ID:              uuid.New(),
		PaymentCode:     r.NewPaymentCode(),
		PaymentType:     models.PaymentTypeTopup,
		UserID:          &payeeID,
		Amount:          amount,
		PaidAmount:      amount,
		PaymentMethod:   models.PaymentMethodWallet,
		Status:          models.PaymentStatusCompleted,
		TransferContent: &transferContent,
		PaidAt:          &now,
	}

	err := tx.QueryRowxContext(ctx, `
		INSERT INTO payments (id, payment_code, payment_type, user_id, amount, paid_amount,
			payment_method, status, transfer_content, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, payment.ID, payment.PaymentCode, payment.PaymentType, payment.UserID, payment.Amount, payment.PaidAmount,
		payment.PaymentMethod, payment.Status, payment.TransferContent, payment.PaidAt).Scan(&payment.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return nil, fmt.Errorf("payment repository: payment code %s: %w", payment.PaymentCode, common.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("payment repository: create payout: %w", err)
	}

	return &payment, nil
}

// ListPayoutsByAppointment возвращает выплаты, записанные при урегулировании приёма.
func (r *PaymentRepository) ListPayoutsByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.Payment, error) {
	payments, err := common.SelectByField[models.Payment](ctx, r.db, "payments", "transfer_content",
		appointmentID.String(), "created_at")
	if err != nil {
		return nil, fmt.Errorf("payment repository: %w", err)
	}

	payouts := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		if p.PaymentType == models.PaymentTypeTopup && p.PaymentMethod == models.PaymentMethodWallet {
			payouts = append(payouts, p)
		}
	}
	return payouts, nil
}

