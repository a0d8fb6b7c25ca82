package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
)

// AuditRepository пишет в withdrawal_audit_log. UPDATE и DELETE запрещены триггером.
type AuditRepository struct {
	db sqlx.ExtContext
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(db sqlx.ExtContext) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, e *entity.AuditEntry) error {
	var from *string
	if e.FromStatus != nil {
		s := string(*e.FromStatus)
		from = &s
	}

	query := `INSERT INTO withdrawal_audit_log (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.TransactionID, string(e.Action), from, string(e.ToStatus),
		e.EmployeeID, e.EmployeeName, e.Designation, e.Notes, e.Reference, e.Fee, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry for %s: %w", e.TransactionID, err)
	}
	return nil
}

func (r *AuditRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]entity.AuditEntry, error) {
	var rows []auditRow
	query := `SELECT ` + auditColumns + ` FROM withdrawal_audit_log WHERE transaction_id = $1 ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, transactionID); err != nil {
		return nil, fmt.Errorf("list audit entries for %s: %w", transactionID, err)
	}

	entries := make([]entity.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntity())
	}
	return entries, nil
}
