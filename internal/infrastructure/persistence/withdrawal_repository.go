package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
	"github.com/ignatzorin/fundraising-backend/internal/repository/common"
)

const referenceIndex = "uq_withdrawal_transactions_reference"

// WithdrawalRepository работает поверх *sqlx.DB или *sqlx.Tx.
type WithdrawalRepository struct {
	db sqlx.ExtContext
}

var _ repository.WithdrawalRepository = (*WithdrawalRepository)(nil)

func NewWithdrawalRepository(db sqlx.ExtContext) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, tx *entity.WithdrawalTransaction) error {
	row := newWithdrawalRow(tx)
	query := `INSERT INTO withdrawal_transactions (` + withdrawalColumns + `)
		VALUES (:id, :campaign_id, :creator_id, :requested_amount,
			:bank_name, :account_holder, :account_number, :verification_status, :document_ref,
			:status, :withdrawal_type, :reason, :employee_processed_by,
			:transaction_reference, :processing_fee, :final_amount, :processed_by, :processed_by_name, :processed_at, :processing_notes,
			:failure_reason, :failed_by, :failed_by_name, :failed_at,
			:created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, row); err != nil {
		if common.IsUniqueViolation(err, "") {
			return apperror.Wrap(err, apperror.ErrCodeConflict, "транзакция с таким идентификатором уже существует")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать транзакцию вывода")
	}
	return nil
}

func (r *WithdrawalRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.WithdrawalTransaction, error) {
	return r.find(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_transactions WHERE id = $1`, id)
}

func (r *WithdrawalRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.WithdrawalTransaction, error) {
	return r.find(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_transactions WHERE id = $1 FOR UPDATE`, id)
}

func (r *WithdrawalRepository) find(ctx context.Context, query string, id uuid.UUID) (*entity.WithdrawalTransaction, error) {
	row, err := common.GetOne[withdrawalRow](ctx, r.db, apperror.ErrTransactionNotFound, query, id)
	if err != nil {
		if errors.Is(err, apperror.ErrTransactionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find withdrawal %s: %w", id, err)
	}
	return row.toEntity(), nil
}

func (r *WithdrawalRepository) UpdateIfStatus(ctx context.Context, tx *entity.WithdrawalTransaction, expected valueobject.WithdrawalStatus) error {
	row := newWithdrawalRow(tx)
	query := `
		UPDATE withdrawal_transactions
		SET status = $3,
		    transaction_reference = $4, processing_fee = $5, final_amount = $6,
		    processed_by = $7, processed_by_name = $8, processed_at = $9, processing_notes = $10,
		    failure_reason = $11, failed_by = $12, failed_by_name = $13, failed_at = $14,
		    updated_at = $15
		WHERE id = $1 AND status = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		row.ID, string(expected), row.Status,
		row.TransactionReference, row.ProcessingFee, row.FinalAmount,
		row.ProcessedBy, row.ProcessedByName, row.ProcessedAt, row.ProcessingNotes,
		row.FailureReason, row.FailedBy, row.FailedByName, row.FailedAt,
		row.UpdatedAt,
	)
	if err != nil {
		if common.IsUniqueViolation(err, referenceIndex) {
			return apperror.ErrDuplicateReference.WithDetail("field", "transaction_reference")
		}
		return fmt.Errorf("update withdrawal %s: %w", tx.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update withdrawal %s: %w", tx.ID, err)
	}
	if affected == 1 {
		return nil
	}

	// Статус уже другой: сообщаем текущий, чтобы клиент понял, что произошло.
	var current string
	err = sqlx.GetContext(ctx, r.db, &current, `SELECT status FROM withdrawal_transactions WHERE id = $1`, tx.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.ErrTransactionNotFound
	}
	if err != nil {
		return fmt.Errorf("read withdrawal status %s: %w", tx.ID, err)
	}
	return valueobject.ErrStatusChanged(valueobject.WithdrawalStatus(current), tx.Status)
}

func (r *WithdrawalRepository) ReferenceExists(ctx context.Context, reference string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM withdrawal_transactions
			WHERE transaction_reference = $1 AND status = 'completed' AND id <> $2
		)
	`
	if err := sqlx.GetContext(ctx, r.db, &exists, query, reference, excludeID); err != nil {
		return false, fmt.Errorf("check reference: %w", err)
	}
	return exists, nil
}

func (r *WithdrawalRepository) ListByCampaign(ctx context.Context, filter repository.WithdrawalFilter) ([]*entity.WithdrawalTransaction, int, error) {
	where := []string{"campaign_id = $1"}
	args := []interface{}{filter.CampaignID}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM withdrawal_transactions WHERE `+cond, args...); err != nil {
		return nil, 0, fmt.Errorf("count withdrawals: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM withdrawal_transactions WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		withdrawalColumns, cond, len(args)-1, len(args))

	var rows []withdrawalRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list withdrawals: %w", err)
	}

	items := make([]*entity.WithdrawalTransaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, total, nil
}

