package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
)

type WithdrawalRepository interface {
	Create(ctx context.Context, tx *entity.WithdrawalTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.WithdrawalTransaction, error)
	// FindByIDForUpdate блокирует транзакцию до конца единицы работы.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.WithdrawalTransaction, error)
	// UpdateIfStatus записывает транзакцию, только если статус в хранилище всё ещё expected.
	// Возвращает apperror с кодом INVALID_STATE_TRANSITION, если статус уже другой.
	UpdateIfStatus(ctx context.Context, tx *entity.WithdrawalTransaction, expected valueobject.WithdrawalStatus) error
	// ReferenceExists проверяет референс среди завершённых транзакций, кроме excludeID.
	ReferenceExists(ctx context.Context, reference string, excludeID uuid.UUID) (bool, error)
	ListByCampaign(ctx context.Context, filter WithdrawalFilter) ([]*entity.WithdrawalTransaction, int, error)
}

type WithdrawalFilter struct {
	CampaignID uuid.UUID
	Status     *valueobject.WithdrawalStatus
	Limit      int
	Offset     int
}
