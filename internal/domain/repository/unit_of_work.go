package repository

import "context"

// Repositories - набор репозиториев, привязанных к одной единице работы.
type Repositories struct {
	Withdrawals WithdrawalRepository
	Ledgers     LedgerRepository
	Audit       AuditRepository
	AML         AMLGate
}

// UnitOfWork выполняет fn атомарно: либо применяются все записи, либо ни одной.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// Repositories возвращает репозитории вне транзакции для чтения.
	Repositories() Repositories
}
