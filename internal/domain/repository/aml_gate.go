package repository

import (
	"context"

	"github.com/google/uuid"
)

// AMLGate отвечает, есть ли по транзакции открытый AML-алерт.
// Алерты создаёт внешний пайплайн скоринга.
type AMLGate interface {
	HasOpenAlert(ctx context.Context, transactionID uuid.UUID) (bool, error)
}
