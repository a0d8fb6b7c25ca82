package withdrawal

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
)

func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*entity.WithdrawalTransaction, error) {
	tx, err := e.uow.Repositories().Withdrawals.FindByID(ctx, id)
	if err != nil {
		return nil, normalize(err)
	}
	return tx, nil
}

// History возвращает записи аудита от старых к новым.
func (e *Engine) History(ctx context.Context, id uuid.UUID) ([]entity.AuditEntry, error) {
	repos := e.uow.Repositories()
	if _, err := repos.Withdrawals.FindByID(ctx, id); err != nil {
		return nil, normalize(err)
	}
	entries, err := repos.Audit.ListByTransaction(ctx, id)
	if err != nil {
		return nil, normalize(err)
	}
	return entries, nil
}

type ListInput struct {
	CampaignID uuid.UUID
	Status     string
	Limit      int
	Offset     int
}

func (e *Engine) ListByCampaign(ctx context.Context, in ListInput) ([]*entity.WithdrawalTransaction, int, error) {
	filter := repository.WithdrawalFilter{
		CampaignID: in.CampaignID,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}
	if in.Status != "" {
		status, err := valueobject.NewWithdrawalStatus(in.Status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = &status
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, total, err := e.uow.Repositories().Withdrawals.ListByCampaign(ctx, filter)
	if err != nil {
		return nil, 0, normalize(err)
	}
	return items, total, nil
}

func (e *Engine) Ledger(ctx context.Context, campaignID uuid.UUID) (*entity.CampaignLedger, error) {
	ledger, err := e.uow.Repositories().Ledgers.GetBalances(ctx, campaignID)
	if err != nil {
		return nil, normalize(err)
	}
	return ledger, nil
}
