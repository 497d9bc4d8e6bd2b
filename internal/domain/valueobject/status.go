package valueobject

import (
	"strings"

	"github.com/ignatzorin/telehealth-backend/internal/pkg/apperror"
)

type AppointmentStatus string

const (
	AppointmentStatusPendingPayment AppointmentStatus = "PENDING_PAYMENT"
	AppointmentStatusScheduled      AppointmentStatus = "SCHEDULED"
	AppointmentStatusInProgress     AppointmentStatus = "IN_PROGRESS"
	AppointmentStatusCompleted      AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled      AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow         AppointmentStatus = "NO_SHOW"
	AppointmentStatusInterrupted    AppointmentStatus = "INTERRUPTED"
	AppointmentStatusDisputed       AppointmentStatus = "DISPUTED"
	AppointmentStatusSettled        AppointmentStatus = "SETTLED"
)

// ResolvableStatuses - статусы, из которых администратор может закрыть спор.
var ResolvableStatuses = []AppointmentStatus{
	AppointmentStatusDisputed,
	AppointmentStatusInterrupted,
	AppointmentStatusCompleted,
}

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPendingPayment, AppointmentStatusScheduled, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow,
		AppointmentStatusInterrupted, AppointmentStatusDisputed, AppointmentStatusSettled:
		return true
	}
	return false
}

// IsResolvable сообщает, можно ли урегулировать приём в текущем статусе.
func (s AppointmentStatus) IsResolvable() bool {
	for _, status := range ResolvableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransitionTo описывает только переходы, которые выполняет урегулирование спора.
func (s AppointmentStatus) CanTransitionTo(newStatus AppointmentStatus) bool {
	if !s.IsResolvable() {
		return false
	}
	return newStatus == AppointmentStatusCancelled || newStatus == AppointmentStatusSettled
}

func NewAppointmentStatus(status string) (AppointmentStatus, error) {
	s := AppointmentStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус приёма")
	}
	return s, nil
}

type TerminationReason string

const (
	TerminationReasonCustomerCancelledEarly TerminationReason = "CUSTOMER_CANCELLED_EARLY"
	TerminationReasonCustomerCancelledLate  TerminationReason = "CUSTOMER_CANCELLED_LATE"
	TerminationReasonDoctorCancelled        TerminationReason = "DOCTOR_CANCELLED"
	TerminationReasonPaymentTimeout         TerminationReason = "PAYMENT_TIMEOUT"
	TerminationReasonSystemCancelled        TerminationReason = "SYSTEM_CANCELLED"
	TerminationReasonCustomerNoShow         TerminationReason = "CUSTOMER_NO_SHOW"
	TerminationReasonDoctorNoShow           TerminationReason = "DOCTOR_NO_SHOW"
	TerminationReasonCustomerIssue          TerminationReason = "CUSTOMER_ISSUE"
	TerminationReasonDoctorIssue            TerminationReason = "DOCTOR_ISSUE"
	TerminationReasonPlatformIssue          TerminationReason = "PLATFORM_ISSUE"
)

// DisputeReasons - причины, которые администратор может указать как итоговые при разборе спора.
var DisputeReasons = []TerminationReason{
	TerminationReasonDoctorNoShow,
	TerminationReasonCustomerNoShow,
	TerminationReasonDoctorIssue,
	TerminationReasonCustomerIssue,
	TerminationReasonPlatformIssue,
	TerminationReasonSystemCancelled,
}

func (r TerminationReason) IsDisputeReason() bool {
	for _, reason := range DisputeReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// NewDisputeReason разбирает итоговую причину, заданную администратором.
func NewDisputeReason(reason string) (TerminationReason, error) {
	r := TerminationReason(strings.ToUpper(strings.TrimSpace(reason)))
	if !r.IsDisputeReason() {
		return "", apperror.New(apperror.ErrCodeValidation,
			"итоговая причина должна относиться к разбору спора (неявка, проблема врача, клиента или платформы)")
	}
	return r, nil
}

type DisputeDecision string

const (
	DisputeDecisionRefundCustomer DisputeDecision = "REFUND_CUSTOMER"
	DisputeDecisionPayoutDoctor   DisputeDecision = "PAYOUT_DOCTOR"
	DisputeDecisionPartialRefund  DisputeDecision = "PARTIAL_REFUND"
)

func (d DisputeDecision) IsValid() bool {
	switch d {
	case DisputeDecisionRefundCustomer, DisputeDecisionPayoutDoctor, DisputeDecisionPartialRefund:
		return true
	}
	return false
}

func NewDisputeDecision(decision string) (DisputeDecision, error) {
	d := DisputeDecision(strings.ToUpper(strings.TrimSpace(decision)))
	if !d.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректное решение по спору")
	}
	return d, nil
}
