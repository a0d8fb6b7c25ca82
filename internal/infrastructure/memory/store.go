package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
)

// Store - хранилище в памяти для локальной разработки и тестов.
// Семантика совпадает с PostgreSQL: блокировка строк до конца единицы работы,
// запись со сравнением статуса и откат всех изменений при ошибке.
type Store struct {
	mu      sync.RWMutex
	txs     map[uuid.UUID]*entity.WithdrawalTransaction
	ledgers map[uuid.UUID]entity.CampaignLedger
	audit   map[uuid.UUID][]entity.AuditEntry
	alerts  map[uuid.UUID]bool

	locks *keyedLocks
}

var _ repository.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		txs:     make(map[uuid.UUID]*entity.WithdrawalTransaction),
		ledgers: make(map[uuid.UUID]entity.CampaignLedger),
		audit:   make(map[uuid.UUID][]entity.AuditEntry),
		alerts:  make(map[uuid.UUID]bool),
		locks:   newKeyedLocks(),
	}
}

// Do выполняет fn с отложенной записью. Изменения применяются только если fn
// вернула nil и проверки при фиксации прошли.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	sess := newSession(s)
	defer sess.releaseAll()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(ctx, (&view{store: s, sess: sess}).repositories()); err != nil {
		return err
	}
	return sess.commit()
}

func (s *Store) Repositories() repository.Repositories {
	return (&view{store: s}).repositories()
}

// FlagAML открывает AML-алерт по транзакции.
func (s *Store) FlagAML(transactionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[transactionID] = true
}

// ResolveAML закрывает алерт.
func (s *Store) ResolveAML(transactionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.alerts, transactionID)
}

type pendingUpdate struct {
	tx       *entity.WithdrawalTransaction
	expected valueobject.WithdrawalStatus
}

type session struct {
	store   *Store
	held    map[string]bool
	order   []string
	created map[uuid.UUID]*entity.WithdrawalTransaction
	updated map[uuid.UUID]pendingUpdate
	ledgers map[uuid.UUID]entity.CampaignLedger
	audit   []entity.AuditEntry
}

func newSession(s *Store) *session {
	return &session{
		store:   s,
		held:    make(map[string]bool),
		created: make(map[uuid.UUID]*entity.WithdrawalTransaction),
		updated: make(map[uuid.UUID]pendingUpdate),
		ledgers: make(map[uuid.UUID]entity.CampaignLedger),
	}
}

// lock захватывает ключ один раз за сессию; повторный захват не блокирует.
func (sess *session) lock(ctx context.Context, key string) error {
	if sess.held[key] {
		return nil
	}
	if err := sess.store.locks.acquire(ctx, key); err != nil {
		return err
	}
	sess.held[key] = true
	sess.order = append(sess.order, key)
	return nil
}

func (sess *session) releaseAll() {
	for i := len(sess.order) - 1; i >= 0; i-- {
		sess.store.locks.release(sess.order[i])
	}
	sess.order = nil
	sess.held = map[string]bool{}
}

func (sess *session) commit() error {
	s := sess.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range sess.created {
		if _, ok := s.txs[id]; ok {
			return apperror.New(apperror.ErrCodeConflict, "транзакция с таким идентификатором уже существует")
		}
	}
	for id, upd := range sess.updated {
		current, ok := s.txs[id]
		if !ok {
			if _, staged := sess.created[id]; staged {
				continue
			}
			return apperror.ErrTransactionNotFound
		}
		if current.Status != upd.expected {
			return valueobject.ErrStatusChanged(current.Status, upd.tx.Status)
		}
	}
	for id, upd := range sess.updated {
		if upd.tx.Processing == nil || upd.tx.Status != valueobject.WithdrawalStatusCompleted {
			continue
		}
		if referenceTaken(s.txs, upd.tx.Processing.TransactionReference, id) {
			return apperror.ErrDuplicateReference.WithDetail("field", "transaction_reference")
		}
	}

	for id, tx := range sess.created {
		s.txs[id] = tx
	}
	for id, upd := range sess.updated {
		s.txs[id] = upd.tx
	}
	for id, ledger := range sess.ledgers {
		s.ledgers[id] = ledger
	}
	for _, entry := range sess.audit {
		s.audit[entry.TransactionID] = append(s.audit[entry.TransactionID], entry)
	}
	return nil
}

func referenceTaken(txs map[uuid.UUID]*entity.WithdrawalTransaction, reference string, excludeID uuid.UUID) bool {
	for id, tx := range txs {
		if id == excludeID || tx.Status != valueobject.WithdrawalStatusCompleted || tx.Processing == nil {
			continue
		}
		if tx.Processing.TransactionReference == reference {
			return true
		}
	}
	return false
}

func cloneTx(t *entity.WithdrawalTransaction) *entity.WithdrawalTransaction {
	cp := *t
	if t.BankAccount.DocumentRef != nil {
		doc := *t.BankAccount.DocumentRef
		cp.BankAccount.DocumentRef = &doc
	}
	if t.Processing != nil {
		p := *t.Processing
		if p.Notes != nil {
			notes := *p.Notes
			p.Notes = &notes
		}
		cp.Processing = &p
	}
	if t.Failure != nil {
		f := *t.Failure
		cp.Failure = &f
	}
	return &cp
}
