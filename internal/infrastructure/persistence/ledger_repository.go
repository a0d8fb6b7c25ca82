package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
	"github.com/ignatzorin/fundraising-backend/internal/repository/common"
)

type LedgerRepository struct {
	db  sqlx.ExtContext
	now func() time.Time
}

var _ repository.LedgerRepository = (*LedgerRepository)(nil)

func NewLedgerRepository(db sqlx.ExtContext) *LedgerRepository {
	return &LedgerRepository{db: db, now: time.Now}
}

func (r *LedgerRepository) GetBalances(ctx context.Context, campaignID uuid.UUID) (*entity.CampaignLedger, error) {
	return r.get(ctx, `SELECT `+ledgerColumns+` FROM campaign_ledgers WHERE campaign_id = $1`, campaignID)
}

// IncrementWithdrawn должен вызываться внутри транзакции: FOR UPDATE держит строку
// кампании до коммита, и параллельные выплаты одной кампании проходят по очереди.
func (r *LedgerRepository) IncrementWithdrawn(ctx context.Context, campaignID uuid.UUID, amount decimal.Decimal) (*entity.CampaignLedger, error) {
	ledger, err := r.get(ctx, `SELECT `+ledgerColumns+` FROM campaign_ledgers WHERE campaign_id = $1 FOR UPDATE`, campaignID)
	if err != nil {
		return nil, err
	}
	if err := ledger.Withdraw(amount, r.now().UTC()); err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE campaign_ledgers SET amount_withdrawn = $2, updated_at = $3 WHERE campaign_id = $1`,
		ledger.CampaignID, ledger.AmountWithdrawn, ledger.UpdatedAt,
	)
	if err != nil {
		if common.IsCheckViolation(err, "campaign_ledgers_available_non_negative") {
			return nil, apperror.ErrInsufficientFunds.WithDetail("campaign_id", campaignID.String())
		}
		return nil, fmt.Errorf("increment withdrawn %s: %w", campaignID, err)
	}
	return ledger, nil
}

func (r *LedgerRepository) Upsert(ctx context.Context, ledger *entity.CampaignLedger) error {
	currency := ledger.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	updatedAt := ledger.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now().UTC()
	}

	query := `
		INSERT INTO campaign_ledgers (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (campaign_id) DO UPDATE
		SET currency = EXCLUDED.currency,
		    amount_raised = EXCLUDED.amount_raised,
		    amount_withdrawn = EXCLUDED.amount_withdrawn,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, ledger.CampaignID, currency, ledger.AmountRaised, ledger.AmountWithdrawn, updatedAt)
	if err != nil {
		if common.IsCheckViolation(err, "") {
			return apperror.ErrInsufficientFunds.WithDetail("campaign_id", ledger.CampaignID.String())
		}
		return fmt.Errorf("upsert ledger %s: %w", ledger.CampaignID, err)
	}
	return nil
}

func (r *LedgerRepository) get(ctx context.Context, query string, campaignID uuid.UUID) (*entity.CampaignLedger, error) {
	row, err := common.GetOne[ledgerRow](ctx, r.db, apperror.ErrCampaignNotFound, query, campaignID)
	if err != nil {
		if errors.Is(err, apperror.ErrCampaignNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get ledger %s: %w", campaignID, err)
	}
	return row.toEntity(), nil
}
