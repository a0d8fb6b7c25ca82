package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
)

// LedgerRepository - единственная точка изменения amountWithdrawn.
type LedgerRepository interface {
	GetBalances(ctx context.Context, campaignID uuid.UUID) (*entity.CampaignLedger, error)
	// IncrementWithdrawn под блокировкой строки кампании увеличивает amountWithdrawn
	// или возвращает INSUFFICIENT_FUNDS, ничего не меняя.
	IncrementWithdrawn(ctx context.Context, campaignID uuid.UUID, amount decimal.Decimal) (*entity.CampaignLedger, error)
	// Upsert нужен сидеру и тестам; в проде строки кампаний ведёт подсистема пожертвований.
	Upsert(ctx context.Context, ledger *entity.CampaignLedger) error
}
