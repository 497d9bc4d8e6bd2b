package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/telehealth-backend/internal/models"
	"github.com/ignatzorin/telehealth-backend/internal/service"
)

// ResolutionResponse - результат урегулирования приёма.
type ResolutionResponse struct {
	AppointmentID     uuid.UUID        `json:"appointment_id"`
	FinalStatus       string           `json:"final_status"`
	Decision          string           `json:"decision"`
	TerminationReason *string          `json:"termination_reason,omitempty"`
	CustomerRefund    decimal.Decimal  `json:"customer_refund"`
	ProviderPayout    decimal.Decimal  `json:"provider_payout"`
	PlatformRetained  decimal.Decimal  `json:"platform_retained"`
	SessionsRestored  int              `json:"sessions_restored"`
	Payouts           []models.Payment `json:"payouts"`
	ResolvedAt        time.Time        `json:"resolved_at"`
	ResolvedBy        uuid.UUID        `json:"resolved_by"`
}

// NewResolutionResponse собирает ответ из результата сервиса.
func NewResolutionResponse(r *service.ResolveDisputeResult) ResolutionResponse {
	resp := ResolutionResponse{
		AppointmentID:    r.AppointmentID,
		FinalStatus:      string(r.FinalStatus),
		Decision:         string(r.Decision),
		CustomerRefund:   r.CustomerRefund,
		ProviderPayout:   r.ProviderPayout,
		PlatformRetained: r.PlatformRetained,
		SessionsRestored: r.SessionsRestored,
		Payouts:          r.Payouts,
		ResolvedAt:       r.ResolvedAt,
		ResolvedBy:       r.ResolvedBy,
	}
	if resp.Payouts == nil {
		resp.Payouts = []models.Payment{}
	}
	if r.TerminationReason != nil {
		reason := string(*r.TerminationReason)
		resp.TerminationReason = &reason
	}
	return resp
}

// FundingInfo - источник оплаты приёма.
type FundingInfo struct {
	Source         string                       `json:"source"`
	Amount         *decimal.Decimal             `json:"amount,omitempty"`
	SubscriptionID *uuid.UUID                   `json:"subscription_id,omitempty"`
	Subscription   *models.CustomerSubscription `json:"subscription,omitempty"`
}

// AppointmentDetailResponse - карточка приёма для администратора.
type AppointmentDetailResponse struct {
	*models.Appointment
	Funding FundingInfo `json:"funding"`
}

// NewAppointmentDetailResponse собирает карточку приёма.
func NewAppointmentDetailResponse(d *service.AppointmentDetails) AppointmentDetailResponse {
	funding := FundingInfo{Source: string(d.Funding.Source), Subscription: d.Subscription}
	switch {
	case d.Funding.Amount.IsPositive():
		amount := d.Funding.Amount
		funding.Amount = &amount
	case d.Funding.SubscriptionID != uuid.Nil:
		id := d.Funding.SubscriptionID
		funding.SubscriptionID = &id
	}
	return AppointmentDetailResponse{Appointment: d.Appointment, Funding: funding}
}

// PaginatedAppointmentsResponse - страница списка приёмов.
type PaginatedAppointmentsResponse struct {
	Data       []models.Appointment `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

// Pagination - метаданные постраничного вывода.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// NewPagination считает has_more по общему числу записей.
func NewPagination(total, limit, offset, returned int) Pagination {
	return Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+returned < total,
	}
}

// ErrorResponse - стандартное тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse - стандартное тело успешного ответа.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
