package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
)

type AMLGate struct {
	db sqlx.ExtContext
}

var _ repository.AMLGate = (*AMLGate)(nil)

func NewAMLGate(db sqlx.ExtContext) *AMLGate {
	return &AMLGate{db: db}
}

func (g *AMLGate) HasOpenAlert(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	var open bool
	query := `SELECT EXISTS (SELECT 1 FROM aml_alerts WHERE transaction_id = $1 AND status = 'open')`
	if err := sqlx.GetContext(ctx, g.db, &open, query, transactionID); err != nil {
		return false, fmt.Errorf("check aml alerts for %s: %w", transactionID, err)
	}
	return open, nil
}
