package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
)

// CampaignLedger - счётчики кампании: собрано, выведено и доступно.
// AmountRaised принадлежит подсистеме пожертвований и здесь только читается.
type CampaignLedger struct {
	CampaignID      uuid.UUID
	Currency        string
	AmountRaised    decimal.Decimal
	AmountWithdrawn decimal.Decimal
	UpdatedAt       time.Time
}

func (l CampaignLedger) Available() decimal.Decimal {
	return l.AmountRaised.Sub(l.AmountWithdrawn)
}

// Withdraw увеличивает AmountWithdrawn, не допуская отрицательного доступного остатка.
func (l *CampaignLedger) Withdraw(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return apperror.Validation("amount", "сумма списания должна быть положительной")
	}
	if l.AmountWithdrawn.Add(amount).GreaterThan(l.AmountRaised) {
		return apperror.ErrInsufficientFunds.
			WithDetail("campaign_id", l.CampaignID.String()).
			WithDetail("available", l.Available().StringFixed(2))
	}
	l.AmountWithdrawn = l.AmountWithdrawn.Add(amount)
	l.UpdatedAt = now
	return nil
}
