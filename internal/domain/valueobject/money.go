package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/telehealth-backend/internal/pkg/apperror"
)

// MoneyScale - суммы в кошельках и платежах хранятся с точностью до сотых (numeric(15,2)).
const MoneyScale = 2

// RoundMoney округляет сумму до сотых.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyScale)
}

// FeeRate - доля платформы с каждой выплаты врачу.
type FeeRate struct {
	rate decimal.Decimal
}

func NewFeeRate(rate decimal.Decimal) (FeeRate, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return FeeRate{}, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("комиссия платформы должна быть в диапазоне [0, 1], получено %s", rate.String()))
	}
	return FeeRate{rate: rate}, nil
}

func (f FeeRate) Decimal() decimal.Decimal {
	return f.rate
}

// Split делит базу выплаты на долю врача и удержание платформы.
// Доля врача округляется вниз до сотых, удержание - точный остаток: payout+retained == base
// и платформа не получает меньше base*rate.
func (f FeeRate) Split(base decimal.Decimal) (payout, retained decimal.Decimal) {
	payout = base.Mul(decimal.NewFromInt(1).Sub(f.rate)).RoundDown(MoneyScale)
	retained = base.Sub(payout)
	return payout, retained
}

func (f FeeRate) String() string {
	return f.rate.String()
}
