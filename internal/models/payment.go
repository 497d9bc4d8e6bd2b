package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Выплаты при урегулировании записываются как пополнение кошелька
const (
	PaymentTypeTopup       = "topup"
	PaymentMethodWallet    = "wallet"
	PaymentStatusCompleted = "completed"
)

// PaymentCodePrefix - префикс кода платежа, по нему выплаты находятся в выписках.
const PaymentCodePrefix = "SKWSTAPP"

// Payment представляет запись о платеже. Записи только добавляются.
type Payment struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	PaymentCode     string          `db:"payment_code" json:"payment_code"`
	PaymentType     string          `db:"payment_type" json:"payment_type"`
	UserID          *uuid.UUID      `db:"user_id" json:"user_id,omitempty"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	PaidAmount      decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	Status          string          `db:"status" json:"status"`
	TransferContent *string         `db:"transfer_content" json:"transfer_content,omitempty"`
	PaidAt          *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
