package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/repository/common"
)

// UnitOfWork открывает транзакцию PostgreSQL на каждый вызов Do.
type UnitOfWork struct {
	db *sqlx.DB
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *sqlx.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return common.WithTransaction(ctx, u.db, func(tx *sqlx.Tx) error {
		return fn(ctx, repositoriesOn(tx))
	})
}

func (u *UnitOfWork) Repositories() repository.Repositories {
	return repositoriesOn(u.db)
}

func repositoriesOn(db sqlx.ExtContext) repository.Repositories {
	return repository.Repositories{
		Withdrawals: NewWithdrawalRepository(db),
		Ledgers:     NewLedgerRepository(db),
		Audit:       NewAuditRepository(db),
		AML:         NewAMLGate(db),
	}
}
