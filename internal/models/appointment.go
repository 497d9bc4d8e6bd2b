package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/telehealth-backend/internal/domain/settlement"
	"github.com/ignatzorin/telehealth-backend/internal/domain/valueobject"
)

// Appointment - приём у дерматолога вместе с данными, нужными для урегулирования:
// суммой оплаты, подпиской и пользователями-владельцами кошельков обеих сторон.
type Appointment struct {
	ID                     uuid.UUID                      `db:"id" json:"id"`
	CustomerID             *uuid.UUID                     `db:"customer_id" json:"customer_id,omitempty"`
	DermatologistID        *uuid.UUID                     `db:"dermatologist_id" json:"dermatologist_id,omitempty"`
	PaymentID              *uuid.UUID                     `db:"payment_id" json:"payment_id,omitempty"`
	CustomerSubscriptionID *uuid.UUID                     `db:"customer_subscription_id" json:"customer_subscription_id,omitempty"`
	Price                  decimal.Decimal                `db:"price" json:"price"`
	StartTime              time.Time                      `db:"start_time" json:"start_time"`
	EndTime                time.Time                      `db:"end_time" json:"end_time"`
	Status                 valueobject.AppointmentStatus  `db:"status" json:"status"`
	TerminationReason      *valueobject.TerminationReason `db:"termination_reason" json:"termination_reason,omitempty"`
	TerminationNote        *string                        `db:"termination_note" json:"termination_note,omitempty"`
	AdminNote              *string                        `db:"admin_note" json:"admin_note,omitempty"`
	ResolvedAt             *time.Time                     `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy             *uuid.UUID                     `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt              time.Time                      `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time                      `db:"updated_at" json:"updated_at"`

	// Поля из связанных таблиц
	PaymentAmount       decimal.NullDecimal `db:"payment_amount" json:"payment_amount"`
	CustomerUserID      *uuid.UUID          `db:"customer_user_id" json:"customer_user_id,omitempty"`
	DermatologistUserID *uuid.UUID          `db:"dermatologist_user_id" json:"dermatologist_user_id,omitempty"`
}

// Funding определяет источник оплаты приёма. Если заданы обе ссылки, приоритет у прямой оплаты.
func (a *Appointment) Funding() settlement.Funding {
	if a.PaymentID != nil && a.PaymentAmount.Valid {
		return settlement.DirectPayment(a.PaymentAmount.Decimal)
	}
	if a.CustomerSubscriptionID != nil {
		return settlement.SubscriptionSession(*a.CustomerSubscriptionID)
	}
	return settlement.Funding{Source: settlement.FundingNone}
}

// IsResolved - аудит урегулирования записывается один раз.
func (a *Appointment) IsResolved() bool {
	return a.ResolvedAt != nil
}

// AppointmentResolution - изменения приёма, которые сохраняются при урегулировании.
type AppointmentResolution struct {
	AppointmentID     uuid.UUID
	Status            valueobject.AppointmentStatus
	TerminationReason *valueobject.TerminationReason
	AdminNote         string
	ResolvedAt        time.Time
	ResolvedBy        uuid.UUID
}

// AppointmentFilter - фильтр списка приёмов для администратора.
type AppointmentFilter struct {
	Statuses []valueobject.AppointmentStatus
	Limit    int
	Offset   int
}
