package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
)

// DefaultCurrency используется, если кампания не указала валюту.
const DefaultCurrency = "USD"

// NewPositiveAmount проверяет, что сумма строго больше нуля и не длиннее двух знаков после запятой.
func NewPositiveAmount(field string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.Validation(field, "сумма должна быть положительной")
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, apperror.Validation(field, "сумма не может содержать больше двух знаков после запятой")
	}
	return amount, nil
}

// FeeBreakdown - результат применения комиссии к запрошенной сумме.
type FeeBreakdown struct {
	Requested decimal.Decimal
	Fee       decimal.Decimal
	Final     decimal.Decimal
}

// ApplyFee проверяет 0 ≤ fee ≤ requested и считает итоговую сумму к перечислению.
func ApplyFee(requested, fee decimal.Decimal) (FeeBreakdown, error) {
	if fee.IsNegative() || fee.GreaterThan(requested) || !fee.Equal(fee.Round(2)) {
		return FeeBreakdown{}, apperror.ErrInvalidFee.
			WithDetail("field", "processing_fee").
			WithDetail("requested_amount", requested.StringFixed(2))
	}
	return FeeBreakdown{
		Requested: requested,
		Fee:       fee,
		Final:     requested.Sub(fee),
	}, nil
}
