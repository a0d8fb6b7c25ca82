package withdrawal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/logger"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
	"github.com/ignatzorin/fundraising-backend/internal/validation"
)

// Engine проводит одобренные заявки на вывод через машину состояний.
//
// Баланс кампании меняется только в Complete, одной записью в той же единице работы,
// что и смена статуса. MarkFailed баланс не трогает ни из approved, ни из processing:
// до завершения деньги не списывались, поэтому и возвращать нечего.
type Engine struct {
	uow         repository.UnitOfWork
	now         func() time.Time
	lockTimeout time.Duration
}

func NewEngine(uow repository.UnitOfWork, lockTimeout time.Duration) *Engine {
	return &Engine{
		uow:         uow,
		now:         time.Now,
		lockTimeout: lockTimeout,
	}
}

// WithClock подменяет источник времени (для тестов).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

type MarkProcessingInput struct {
	TransactionID uuid.UUID
	Actor         entity.Employee
	Notes         *string
}

type CompleteInput struct {
	TransactionID        uuid.UUID
	Actor                entity.Employee
	TransactionReference string
	ProcessingFee        decimal.Decimal
	Notes                *string
}

type MarkFailedInput struct {
	TransactionID uuid.UUID
	Actor         entity.Employee
	Reason        string
}

func (e *Engine) MarkProcessing(ctx context.Context, in MarkProcessingInput) (*entity.WithdrawalTransaction, error) {
	if err := authorize(in.Actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotes(in.Notes); err != nil {
		return nil, err
	}

	return e.apply(ctx, in.TransactionID, in.Actor, valueobject.ActionMarkProcessing, in.Notes,
		func(_ context.Context, _ repository.Repositories, tx *entity.WithdrawalTransaction, now time.Time) error {
			return tx.MarkProcessing(now)
		})
}

func (e *Engine) Complete(ctx context.Context, in CompleteInput) (*entity.WithdrawalTransaction, error) {
	if err := authorize(in.Actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotes(in.Notes); err != nil {
		return nil, err
	}

	tx, err := e.apply(ctx, in.TransactionID, in.Actor, valueobject.ActionComplete, in.Notes,
		func(ctx context.Context, repos repository.Repositories, tx *entity.WithdrawalTransaction, now time.Time) error {
			// Сначала статус и аргументы: повтор на завершённой транзакции
			// должен получить INVALID_STATE_TRANSITION, а не ошибку валидации.
			if err := tx.Complete(in.Actor, in.TransactionReference, in.ProcessingFee, in.Notes, now); err != nil {
				return err
			}

			if repos.AML != nil {
				flagged, err := repos.AML.HasOpenAlert(ctx, tx.ID)
				if err != nil {
					return err
				}
				if flagged {
					return apperror.ErrAMLReviewPending
				}
			}

			exists, err := repos.Withdrawals.ReferenceExists(ctx, tx.Processing.TransactionReference, tx.ID)
			if err != nil {
				return err
			}
			if exists {
				return apperror.ErrDuplicateReference.WithDetail("field", "transaction_reference")
			}

			// Списываем запрошенную сумму, а не итоговую: комиссия идёт из доли платформы.
			_, err = repos.Ledgers.IncrementWithdrawn(ctx, tx.CampaignID, tx.RequestedAmount)
			return err
		})
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == apperror.ErrCodeInsufficientFunds {
		// Одобренная заявка не помещается в остаток: расхождение raised/withdrawn, нужна ручная сверка.
		logger.L().WithFields(logrus.Fields{
			"transaction_id": in.TransactionID,
			"employee_id":    in.Actor.ID,
			"campaign_id":    appErr.Details["campaign_id"],
			"available":      appErr.Details["available"],
		}).Error("withdrawal: недостаточно средств кампании при проведении выплаты")
	}
	return tx, err
}

func (e *Engine) MarkFailed(ctx context.Context, in MarkFailedInput) (*entity.WithdrawalTransaction, error) {
	if err := authorize(in.Actor); err != nil {
		return nil, err
	}

	return e.apply(ctx, in.TransactionID, in.Actor, valueobject.ActionMarkFailed, nil,
		func(_ context.Context, _ repository.Repositories, tx *entity.WithdrawalTransaction, now time.Time) error {
			return tx.MarkFailed(in.Actor, in.Reason, now)
		})
}

type mutation func(ctx context.Context, repos repository.Repositories, tx *entity.WithdrawalTransaction, now time.Time) error

// apply выполняет переход в одной единице работы: блокировка строки транзакции,
// изменение, запись со сравнением статуса и запись в аудит.
func (e *Engine) apply(ctx context.Context, id uuid.UUID, actor entity.Employee, action valueobject.WithdrawalAction, notes *string, mutate mutation) (*entity.WithdrawalTransaction, error) {
	if e.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.lockTimeout)
		defer cancel()
	}

	var (
		result *entity.WithdrawalTransaction
		from   valueobject.WithdrawalStatus
	)
	err := e.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		tx, err := repos.Withdrawals.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = tx.Status
		now := e.now()

		if err := mutate(ctx, repos, tx, now); err != nil {
			return err
		}
		if err := repos.Withdrawals.UpdateIfStatus(ctx, tx, from); err != nil {
			return err
		}

		entry := entity.NewAuditEntry(tx, from, action, actor, notes, now)
		if err := repos.Audit.Append(ctx, &entry); err != nil {
			return err
		}

		result = tx
		return nil
	})
	if err != nil {
		return nil, normalize(err)
	}

	logger.L().WithFields(logrus.Fields{
		"transaction_id": result.ID,
		"campaign_id":    result.CampaignID,
		"action":         action,
		"from":           from,
		"to":             result.Status,
		"employee_id":    actor.ID,
	}).Info("withdrawal: статус транзакции изменён")

	return result, nil
}

func authorize(actor entity.Employee) error {
	if !actor.CanProcessWithdrawals() {
		return apperror.ErrUnauthorized
	}
	return nil
}

// normalize приводит ошибки инфраструктуры к apperror, не трогая доменные.
func normalize(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.Wrap(err, apperror.ErrCodeConflict, "транзакция занята другим сотрудником, повторите запрос")
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обработать транзакцию вывода")
}
