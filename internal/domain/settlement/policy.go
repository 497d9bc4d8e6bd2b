// Package settlement содержит чистую логику урегулирования спора по приёму:
// по источнику оплаты и решению администратора строит план движений средств.
// Пакет не работает с БД и не имеет побочных эффектов.
package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/telehealth-backend/internal/domain/valueobject"
	"github.com/ignatzorin/telehealth-backend/internal/pkg/apperror"
)

// Input - всё, что нужно политике для построения плана.
type Input struct {
	Funding       Funding
	Decision      Decision
	CurrentReason *valueobject.TerminationReason
	// ReasonOverride - итоговая причина от администратора, уже проверенная по списку допустимых.
	ReasonOverride *valueobject.TerminationReason
}

type Policy struct {
	feeRate valueobject.FeeRate
}

func NewPolicy(feeRate valueobject.FeeRate) *Policy {
	return &Policy{feeRate: feeRate}
}

func (p *Policy) FeeRate() valueobject.FeeRate {
	return p.feeRate
}

// Plan строит план урегулирования. Ошибки - только валидационные, до каких-либо изменений.
func (p *Policy) Plan(in Input) (*Plan, error) {
	if in.Decision == nil {
		return nil, apperror.Wrap(ErrUnknownDecision, apperror.ErrCodeValidation, "не указано решение по спору")
	}

	plan := &Plan{
		Decision: in.Decision.Kind(),
		Funding:  in.Funding.Source,
	}
	if in.Funding.Source == FundingDirectPayment {
		plan.OriginalAmount = in.Funding.Amount
	}

	switch d := in.Decision.(type) {
	case RefundCustomer:
		p.planRefund(plan, in.Funding)
		plan.Status = valueobject.AppointmentStatusCancelled
		plan.TerminationReason = reasonOr(in.ReasonOverride, valueobject.TerminationReasonSystemCancelled)
	case PayoutDoctor:
		p.planPayout(plan, in.Funding)
		plan.Status = valueobject.AppointmentStatusSettled
		plan.TerminationReason = in.CurrentReason
		if in.ReasonOverride != nil {
			plan.TerminationReason = in.ReasonOverride
		}
	case PartialRefund:
		if err := p.planPartialRefund(plan, in.Funding, d.RefundAmount); err != nil {
			return nil, err
		}
		plan.Status = valueobject.AppointmentStatusSettled
		plan.TerminationReason = reasonOr(in.ReasonOverride, valueobject.TerminationReasonPlatformIssue)
	default:
		return nil, apperror.Wrap(ErrUnknownDecision, apperror.ErrCodeValidation, "некорректное решение по спору")
	}

	if !plan.IsBalanced() {
		return nil, apperror.Wrap(
			fmt.Errorf("%w: refund=%s payout=%s retained=%s original=%s", ErrUnbalancedPlan,
				plan.CustomerRefund, plan.ProviderPayout, plan.PlatformRetained, plan.OriginalAmount),
			apperror.ErrCodeInternal, "ошибка расчёта урегулирования")
	}
	return plan, nil
}

func (p *Policy) planRefund(plan *Plan, funding Funding) {
	switch funding.Source {
	case FundingDirectPayment:
		plan.add(Movement{Kind: MovementCustomerRefund, Amount: funding.Amount})
	case FundingSubscription:
		plan.add(Movement{Kind: MovementSessionRestore, SubscriptionID: funding.SubscriptionID})
	}
}

func (p *Policy) planPayout(plan *Plan, funding Funding) {
	// при оплате подпиской выплата врачу идёт вне этого движка
	if funding.Source != FundingDirectPayment {
		return
	}
	payout, retained := p.feeRate.Split(funding.Amount)
	plan.PlatformRetained = retained
	if payout.IsPositive() {
		plan.add(Movement{Kind: MovementProviderPayout, Amount: payout})
	}
}

func (p *Policy) planPartialRefund(plan *Plan, funding Funding, refundAmount decimal.Decimal) error {
	switch funding.Source {
	case FundingSubscription:
		return apperror.Wrap(ErrSplitSessionCredit, apperror.ErrCodeValidation,
			"частичный возврат невозможен для приёма, оплаченного подпиской")
	case FundingDirectPayment:
	default:
		return apperror.Wrap(ErrNoFundingToSplit, apperror.ErrCodeValidation,
			"частичный возврат невозможен: у приёма нет оплаты")
	}

	original := funding.Amount
	if !refundAmount.IsPositive() || refundAmount.GreaterThanOrEqual(original) {
		return apperror.Wrap(ErrRefundAmountOutOfRange, apperror.ErrCodeValidation,
			fmt.Sprintf("сумма возврата должна быть больше 0 и меньше %s", original.StringFixed(valueobject.MoneyScale)))
	}

	plan.add(Movement{Kind: MovementCustomerRefund, Amount: refundAmount})

	payout, retained := p.feeRate.Split(original.Sub(refundAmount))
	plan.PlatformRetained = retained
	if payout.IsPositive() {
		plan.add(Movement{Kind: MovementProviderPayout, Amount: payout})
	}
	return nil
}

func reasonOr(override *valueobject.TerminationReason, fallback valueobject.TerminationReason) *valueobject.TerminationReason {
	if override != nil {
		return override
	}
	return &fallback
}
