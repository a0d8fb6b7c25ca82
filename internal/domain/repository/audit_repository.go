package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
)

// AuditRepository только дописывает записи. Методов изменения и удаления нет намеренно.
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]entity.AuditEntry, error)
}
