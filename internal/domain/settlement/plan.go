package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/telehealth-backend/internal/domain/valueobject"
)

// FundingSource - чем был оплачен приём.
type FundingSource string

const (
	FundingNone          FundingSource = "none"
	FundingDirectPayment FundingSource = "direct_payment"
	FundingSubscription  FundingSource = "subscription"
)

// Funding описывает источник оплаты приёма.
type Funding struct {
	Source         FundingSource
	Amount         decimal.Decimal
	SubscriptionID uuid.UUID
}

// DirectPayment - приём оплачен из кошелька или напрямую.
func DirectPayment(amount decimal.Decimal) Funding {
	return Funding{Source: FundingDirectPayment, Amount: amount}
}

// SubscriptionSession - приём списан с подписки.
func SubscriptionSession(subscriptionID uuid.UUID) Funding {
	return Funding{Source: FundingSubscription, SubscriptionID: subscriptionID}
}

type MovementKind string

const (
	// MovementCustomerRefund - зачисление клиенту в кошелёк.
	MovementCustomerRefund MovementKind = "customer_refund"
	// MovementProviderPayout - зачисление врачу в кошелёк, сопровождается платёжной записью.
	MovementProviderPayout MovementKind = "provider_payout"
	// MovementSessionRestore - возврат одной сессии на подписку.
	MovementSessionRestore MovementKind = "session_restore"
)

// Movement - одно движение средств или кредитов при урегулировании.
type Movement struct {
	Kind           MovementKind
	Amount         decimal.Decimal
	SubscriptionID uuid.UUID
}

func (m Movement) IsWalletCredit() bool {
	return m.Kind == MovementCustomerRefund || m.Kind == MovementProviderPayout
}

// RequiresPaymentRecord - платёжная запись пишется только для выплат врачу, возврат клиенту её не создаёт.
func (m Movement) RequiresPaymentRecord() bool {
	return m.Kind == MovementProviderPayout
}

// Plan - результат работы политики: движения, итоговый статус и разбивка сумм.
type Plan struct {
	Decision          valueobject.DisputeDecision
	Funding           FundingSource
	Movements         []Movement
	Status            valueobject.AppointmentStatus
	TerminationReason *valueobject.TerminationReason

	OriginalAmount   decimal.Decimal
	CustomerRefund   decimal.Decimal
	ProviderPayout   decimal.Decimal
	PlatformRetained decimal.Decimal
	SessionsRestored int
}

func (p *Plan) add(m Movement) {
	p.Movements = append(p.Movements, m)
	switch m.Kind {
	case MovementCustomerRefund:
		p.CustomerRefund = p.CustomerRefund.Add(m.Amount)
	case MovementProviderPayout:
		p.ProviderPayout = p.ProviderPayout.Add(m.Amount)
	case MovementSessionRestore:
		p.SessionsRestored++
	}
}

// IsBalanced проверяет сохранение денег: возврат + выплата + удержание == исходная сумма.
func (p *Plan) IsBalanced() bool {
	if p.Funding != FundingDirectPayment {
		return p.CustomerRefund.IsZero() && p.ProviderPayout.IsZero() && p.PlatformRetained.IsZero()
	}
	if len(p.Movements) == 0 {
		return true
	}
	total := p.CustomerRefund.Add(p.ProviderPayout).Add(p.PlatformRetained)
	return total.Equal(p.OriginalAmount)
}
