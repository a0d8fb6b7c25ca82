package withdrawal

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/logger"
)

type BankAccountInput struct {
	BankName           string
	AccountHolder      string
	AccountNumber      string
	VerificationStatus string
	DocumentRef        *string
}

type AdmitInput struct {
	CampaignID     uuid.UUID
	CreatorID      uuid.UUID
	Approver       entity.Employee
	Amount         decimal.Decimal
	WithdrawalType string
	Reason         string
	BankAccount    BankAccountInput
	Notes          *string
}

// AdmitApproved принимает заявку, одобренную внешним процессом согласования.
// Реквизиты копируются здесь и дальше не перечитываются.
func (e *Engine) AdmitApproved(ctx context.Context, in AdmitInput) (*entity.WithdrawalTransaction, error) {
	if err := authorize(in.Approver); err != nil {
		return nil, err
	}

	snapshot, err := entity.NewBankAccountSnapshot(
		in.BankAccount.BankName,
		in.BankAccount.AccountHolder,
		in.BankAccount.AccountNumber,
		in.BankAccount.VerificationStatus,
		in.BankAccount.DocumentRef,
	)
	if err != nil {
		return nil, err
	}

	now := e.now()
	tx, err := entity.NewApprovedTransaction(entity.NewApprovedInput{
		CampaignID:     in.CampaignID,
		CreatorID:      in.CreatorID,
		ApprovedBy:     in.Approver.ID,
		Amount:         in.Amount,
		WithdrawalType: in.WithdrawalType,
		Reason:         in.Reason,
		BankAccount:    snapshot,
	}, now)
	if err != nil {
		return nil, err
	}

	err = e.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// Кампания должна существовать: без строки леджера завершить выплату будет нельзя.
		if _, err := repos.Ledgers.GetBalances(ctx, tx.CampaignID); err != nil {
			return err
		}
		if err := repos.Withdrawals.Create(ctx, tx); err != nil {
			return err
		}
		entry := entity.NewAuditEntry(tx, "", valueobject.ActionApprove, in.Approver, in.Notes, now)
		return repos.Audit.Append(ctx, &entry)
	})
	if err != nil {
		return nil, normalize(err)
	}

	logger.L().WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"campaign_id":    tx.CampaignID,
		"amount":         tx.RequestedAmount.String(),
		"employee_id":    in.Approver.ID,
	}).Info("withdrawal: принята одобренная заявка")

	return tx, nil
}
