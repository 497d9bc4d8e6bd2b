package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/telehealth-backend/internal/domain/valueobject"
	"github.com/ignatzorin/telehealth-backend/internal/pkg/apperror"
)

// Decision - закрытый набор решений администратора.
// Реализации: RefundCustomer, PayoutDoctor, PartialRefund.
type Decision interface {
	Kind() valueobject.DisputeDecision
	decision()
}

// RefundCustomer - спор выигран клиентом, оплата возвращается полностью.
type RefundCustomer struct{}

// PayoutDoctor - спор выигран врачом, оплата уходит врачу за вычетом комиссии.
type PayoutDoctor struct{}

// PartialRefund - клиенту возвращается RefundAmount, остаток делится между врачом и платформой.
type PartialRefund struct {
	RefundAmount decimal.Decimal
}

func (RefundCustomer) Kind() valueobject.DisputeDecision { return valueobject.DisputeDecisionRefundCustomer }
func (PayoutDoctor) Kind() valueobject.DisputeDecision   { return valueobject.DisputeDecisionPayoutDoctor }
func (PartialRefund) Kind() valueobject.DisputeDecision  { return valueobject.DisputeDecisionPartialRefund }

func (RefundCustomer) decision() {}
func (PayoutDoctor) decision()   {}
func (PartialRefund) decision()  {}

// NewDecision собирает решение из входных данных запроса.
// refundAmount обязателен и должен быть > 0 только для PARTIAL_REFUND, для остальных решений игнорируется.
func NewDecision(kind valueobject.DisputeDecision, refundAmount *decimal.Decimal) (Decision, error) {
	switch kind {
	case valueobject.DisputeDecisionRefundCustomer:
		return RefundCustomer{}, nil
	case valueobject.DisputeDecisionPayoutDoctor:
		return PayoutDoctor{}, nil
	case valueobject.DisputeDecisionPartialRefund:
		if refundAmount == nil {
			return nil, apperror.Wrap(ErrRefundAmountRequired, apperror.ErrCodeValidation,
				"для частичного возврата нужно указать refund_amount")
		}
		if !refundAmount.IsPositive() {
			return nil, apperror.Wrap(ErrRefundAmountOutOfRange, apperror.ErrCodeValidation,
				"сумма частичного возврата должна быть больше нуля")
		}
		if !refundAmount.Equal(valueobject.RoundMoney(*refundAmount)) {
			return nil, apperror.Wrap(ErrRefundAmountOutOfRange, apperror.ErrCodeValidation,
				"сумма частичного возврата указывается с точностью до копеек")
		}
		return PartialRefund{RefundAmount: *refundAmount}, nil
	default:
		return nil, apperror.Wrap(ErrUnknownDecision, apperror.ErrCodeValidation, "некорректное решение по спору")
	}
}
