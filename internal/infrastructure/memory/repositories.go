package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
)

// view - репозитории поверх Store. Без сессии пишут сразу, с сессией копят изменения.
type view struct {
	store *Store
	sess  *session
}

func (v *view) repositories() repository.Repositories {
	return repository.Repositories{
		Withdrawals: &withdrawalRepo{v: v},
		Ledgers:     &ledgerRepo{v: v},
		Audit:       &auditRepo{v: v},
		AML:         &amlGate{v: v},
	}
}

func (v *view) lookupTx(id uuid.UUID) (*entity.WithdrawalTransaction, bool) {
	if v.sess != nil {
		if upd, ok := v.sess.updated[id]; ok {
			return upd.tx, true
		}
		if tx, ok := v.sess.created[id]; ok {
			return tx, true
		}
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	tx, ok := v.store.txs[id]
	return tx, ok
}

// snapshotTxs сливает зафиксированные транзакции со staged-изменениями сессии.
func (v *view) snapshotTxs() map[uuid.UUID]*entity.WithdrawalTransaction {
	v.store.mu.RLock()
	out := make(map[uuid.UUID]*entity.WithdrawalTransaction, len(v.store.txs))
	for id, tx := range v.store.txs {
		out[id] = tx
	}
	v.store.mu.RUnlock()

	if v.sess != nil {
		for id, tx := range v.sess.created {
			out[id] = tx
		}
		for id, upd := range v.sess.updated {
			out[id] = upd.tx
		}
	}
	return out
}

func (v *view) lookupLedger(id uuid.UUID) (entity.CampaignLedger, bool) {
	if v.sess != nil {
		if l, ok := v.sess.ledgers[id]; ok {
			return l, true
		}
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	l, ok := v.store.ledgers[id]
	return l, ok
}

type withdrawalRepo struct {
	v *view
}

func (r *withdrawalRepo) Create(_ context.Context, tx *entity.WithdrawalTransaction) error {
	if _, ok := r.v.lookupTx(tx.ID); ok {
		return apperror.New(apperror.ErrCodeConflict, "транзакция с таким идентификатором уже существует")
	}
	if r.v.sess != nil {
		r.v.sess.created[tx.ID] = cloneTx(tx)
		return nil
	}

	r.v.store.mu.Lock()
	defer r.v.store.mu.Unlock()
	r.v.store.txs[tx.ID] = cloneTx(tx)
	return nil
}

func (r *withdrawalRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.WithdrawalTransaction, error) {
	tx, ok := r.v.lookupTx(id)
	if !ok {
		return nil, apperror.ErrTransactionNotFound
	}
	return cloneTx(tx), nil
}

func (r *withdrawalRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.WithdrawalTransaction, error) {
	if r.v.sess != nil {
		if err := r.v.sess.lock(ctx, "tx:"+id.String()); err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *withdrawalRepo) UpdateIfStatus(_ context.Context, tx *entity.WithdrawalTransaction, expected valueobject.WithdrawalStatus) error {
	if r.v.sess != nil {
		current, ok := r.v.lookupTx(tx.ID)
		if !ok {
			return apperror.ErrTransactionNotFound
		}
		if current.Status != expected {
			return valueobject.ErrStatusChanged(current.Status, tx.Status)
		}
		r.v.sess.updated[tx.ID] = pendingUpdate{tx: cloneTx(tx), expected: expected}
		return nil
	}

	r.v.store.mu.Lock()
	defer r.v.store.mu.Unlock()
	current, ok := r.v.store.txs[tx.ID]
	if !ok {
		return apperror.ErrTransactionNotFound
	}
	if current.Status != expected {
		return valueobject.ErrStatusChanged(current.Status, tx.Status)
	}
	r.v.store.txs[tx.ID] = cloneTx(tx)
	return nil
}

func (r *withdrawalRepo) ReferenceExists(_ context.Context, reference string, excludeID uuid.UUID) (bool, error) {
	return referenceTaken(r.v.snapshotTxs(), reference, excludeID), nil
}

func (r *withdrawalRepo) ListByCampaign(_ context.Context, filter repository.WithdrawalFilter) ([]*entity.WithdrawalTransaction, int, error) {
	var matched []*entity.WithdrawalTransaction
	for _, tx := range r.v.snapshotTxs() {
		if tx.CampaignID != filter.CampaignID {
			continue
		}
		if filter.Status != nil && tx.Status != *filter.Status {
			continue
		}
		matched = append(matched, tx)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset >= total {
		return []*entity.WithdrawalTransaction{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < total {
		end = filter.Offset + filter.Limit
	}

	page := make([]*entity.WithdrawalTransaction, 0, end-filter.Offset)
	for _, tx := range matched[filter.Offset:end] {
		page = append(page, cloneTx(tx))
	}
	return page, total, nil
}

type ledgerRepo struct {
	v *view
}

func (r *ledgerRepo) GetBalances(_ context.Context, campaignID uuid.UUID) (*entity.CampaignLedger, error) {
	l, ok := r.v.lookupLedger(campaignID)
	if !ok {
		return nil, apperror.ErrCampaignNotFound
	}
	return &l, nil
}

func (r *ledgerRepo) IncrementWithdrawn(ctx context.Context, campaignID uuid.UUID, amount decimal.Decimal) (*entity.CampaignLedger, error) {
	if r.v.sess == nil {
		r.v.store.mu.Lock()
		defer r.v.store.mu.Unlock()
		l, ok := r.v.store.ledgers[campaignID]
		if !ok {
			return nil, apperror.ErrCampaignNotFound
		}
		if err := l.Withdraw(amount, time.Now().UTC()); err != nil {
			return nil, err
		}
		r.v.store.ledgers[campaignID] = l
		return &l, nil
	}

	if err := r.v.sess.lock(ctx, "ledger:"+campaignID.String()); err != nil {
		return nil, err
	}
	l, ok := r.v.lookupLedger(campaignID)
	if !ok {
		return nil, apperror.ErrCampaignNotFound
	}
	if err := l.Withdraw(amount, time.Now().UTC()); err != nil {
		return nil, err
	}
	r.v.sess.ledgers[campaignID] = l
	return &l, nil
}

func (r *ledgerRepo) Upsert(ctx context.Context, ledger *entity.CampaignLedger) error {
	l := *ledger
	if l.Currency == "" {
		l.Currency = valueobject.DefaultCurrency
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = time.Now().UTC()
	}
	if l.AmountWithdrawn.GreaterThan(l.AmountRaised) {
		return apperror.ErrInsufficientFunds.WithDetail("campaign_id", l.CampaignID.String())
	}

	if r.v.sess != nil {
		if err := r.v.sess.lock(ctx, "ledger:"+l.CampaignID.String()); err != nil {
			return err
		}
		r.v.sess.ledgers[l.CampaignID] = l
		return nil
	}

	r.v.store.mu.Lock()
	defer r.v.store.mu.Unlock()
	r.v.store.ledgers[l.CampaignID] = l
	return nil
}

type auditRepo struct {
	v *view
}

func (r *auditRepo) Append(_ context.Context, entry *entity.AuditEntry) error {
	if r.v.sess != nil {
		r.v.sess.audit = append(r.v.sess.audit, *entry)
		return nil
	}

	r.v.store.mu.Lock()
	defer r.v.store.mu.Unlock()
	r.v.store.audit[entry.TransactionID] = append(r.v.store.audit[entry.TransactionID], *entry)
	return nil
}

func (r *auditRepo) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]entity.AuditEntry, error) {
	r.v.store.mu.RLock()
	entries := append([]entity.AuditEntry(nil), r.v.store.audit[transactionID]...)
	r.v.store.mu.RUnlock()

	if r.v.sess != nil {
		for _, e := range r.v.sess.audit {
			if e.TransactionID == transactionID {
				entries = append(entries, e)
			}
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

type amlGate struct {
	v *view
}

func (g *amlGate) HasOpenAlert(_ context.Context, transactionID uuid.UUID) (bool, error) {
	g.v.store.mu.RLock()
	defer g.v.store.mu.RUnlock()
	return g.v.store.alerts[transactionID], nil
}
