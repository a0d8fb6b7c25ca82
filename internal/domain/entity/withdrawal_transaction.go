package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
	"github.com/ignatzorin/fundraising-backend/internal/validation"
)

// WithdrawalTransaction - заявка на вывод собранных средств кампании на банковский счёт.
type WithdrawalTransaction struct {
	ID                  uuid.UUID
	CampaignID          uuid.UUID
	CreatorID           uuid.UUID
	RequestedAmount     decimal.Decimal
	BankAccount         BankAccountSnapshot
	Status              valueobject.WithdrawalStatus
	WithdrawalType      valueobject.WithdrawalType
	Reason              string
	EmployeeProcessedBy uuid.UUID
	Processing          *ProcessingDetails
	Failure             *FailureDetails
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ProcessingDetails заполняется только при переходе в completed.
type ProcessingDetails struct {
	TransactionReference string
	ProcessingFee        decimal.Decimal
	FinalAmount          decimal.Decimal
	ProcessedBy          uuid.UUID
	ProcessedByName      string
	ProcessedAt          time.Time
	Notes                *string
}

// FailureDetails заполняется только при переходе в failed.
type FailureDetails struct {
	Reason       string
	FailedBy     uuid.UUID
	FailedByName string
	FailedAt     time.Time
}

type NewApprovedInput struct {
	CampaignID     uuid.UUID
	CreatorID      uuid.UUID
	ApprovedBy     uuid.UUID
	Amount         decimal.Decimal
	WithdrawalType string
	Reason         string
	BankAccount    BankAccountSnapshot
}

// NewApprovedTransaction создаёт транзакцию в начальном статусе approved.
func NewApprovedTransaction(in NewApprovedInput, now time.Time) (*WithdrawalTransaction, error) {
	if in.CampaignID == uuid.Nil {
		return nil, apperror.Validation("campaign_id", "кампания обязательна")
	}
	if in.CreatorID == uuid.Nil {
		return nil, apperror.Validation("creator_id", "автор кампании обязателен")
	}
	if in.ApprovedBy == uuid.Nil {
		return nil, apperror.Validation("approved_by", "сотрудник, одобривший заявку, обязателен")
	}
	amount, err := valueobject.NewPositiveAmount("requested_amount", in.Amount)
	if err != nil {
		return nil, err
	}
	wType, err := valueobject.NewWithdrawalType(in.WithdrawalType)
	if err != nil {
		return nil, err
	}
	if in.BankAccount.AccountNumber == "" {
		return nil, errSnapshotRequired()
	}
	reason := strings.TrimSpace(in.Reason)
	if err := validation.ValidateLength("reason", reason, 0, validation.MaxCreatorReasonLength); err != nil {
		return nil, err
	}

	return &WithdrawalTransaction{
		ID:                  uuid.New(),
		CampaignID:          in.CampaignID,
		CreatorID:           in.CreatorID,
		RequestedAmount:     amount,
		BankAccount:         in.BankAccount,
		Status:              valueobject.WithdrawalStatusApproved,
		WithdrawalType:      wType,
		Reason:              reason,
		EmployeeProcessedBy: in.ApprovedBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

func (t *WithdrawalTransaction) MarkProcessing(now time.Time) error {
	next, err := valueobject.Transition(t.Status, valueobject.ActionMarkProcessing)
	if err != nil {
		return err
	}
	t.Status = next
	t.UpdatedAt = now
	return nil
}

// Complete переводит транзакцию в completed. Списание с баланса кампании
// делает движок: сущность про леджер ничего не знает.
func (t *WithdrawalTransaction) Complete(actor Employee, reference string, fee decimal.Decimal, notes *string, now time.Time) error {
	next, err := valueobject.Transition(t.Status, valueobject.ActionComplete)
	if err != nil {
		return err
	}
	if err := validation.ValidateTransactionReference(reference); err != nil {
		return err
	}
	breakdown, err := valueobject.ApplyFee(t.RequestedAmount, fee)
	if err != nil {
		return err
	}

	t.Status = next
	t.Processing = &ProcessingDetails{
		TransactionReference: strings.TrimSpace(reference),
		ProcessingFee:        breakdown.Fee,
		FinalAmount:          breakdown.Final,
		ProcessedBy:          actor.ID,
		ProcessedByName:      actor.Name,
		ProcessedAt:          now,
		Notes:                trimmedOrNil(notes),
	}
	t.UpdatedAt = now
	return nil
}

// MarkFailed переводит транзакцию в failed. Деньги кампании не возвращаются
// явно: до completed они не списывались.
func (t *WithdrawalTransaction) MarkFailed(actor Employee, reason string, now time.Time) error {
	next, err := valueobject.Transition(t.Status, valueobject.ActionMarkFailed)
	if err != nil {
		return err
	}
	if err := validation.ValidateFailureReason(reason); err != nil {
		return err
	}

	t.Status = next
	t.Failure = &FailureDetails{
		Reason:       strings.TrimSpace(reason),
		FailedBy:     actor.ID,
		FailedByName: actor.Name,
		FailedAt:     now,
	}
	t.UpdatedAt = now
	return nil
}

// CheckInvariants проверяет согласованность статуса и деталей.
func (t *WithdrawalTransaction) CheckInvariants() error {
	if !t.Status.IsValid() {
		return apperror.New(apperror.ErrCodeInternal, "некорректный статус транзакции: "+string(t.Status))
	}
	if (t.Processing != nil) != (t.Status == valueobject.WithdrawalStatusCompleted) {
		return apperror.New(apperror.ErrCodeInternal, "детали проведения не соответствуют статусу")
	}
	if (t.Failure != nil) != (t.Status == valueobject.WithdrawalStatusFailed) {
		return apperror.New(apperror.ErrCodeInternal, "детали отказа не соответствуют статусу")
	}
	if t.Processing != nil {
		if !t.Processing.FinalAmount.Equal(t.RequestedAmount.Sub(t.Processing.ProcessingFee)) || t.Processing.FinalAmount.IsNegative() {
			return apperror.New(apperror.ErrCodeInternal, "итоговая сумма не равна запрошенной за вычетом комиссии")
		}
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
