package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
)

func newStoredTransaction(t *testing.T, s *Store) *entity.WithdrawalTransaction {
	t.Helper()
	campaignID := uuid.New()
	require.NoError(t, s.Repositories().Ledgers.Upsert(context.Background(), &entity.CampaignLedger{
		CampaignID:   campaignID,
		AmountRaised: decimal.NewFromInt(1000),
	}))
	tx := &entity.WithdrawalTransaction{
		ID:              uuid.New(),
		CampaignID:      campaignID,
		RequestedAmount: decimal.NewFromInt(400),
		Status:          valueobject.WithdrawalStatusApproved,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, s.Repositories().Withdrawals.Create(context.Background(), tx))
	return tx
}

func TestStore_RollbackOnError(t *testing.T) {
	s := NewStore()
	tx := newStoredTransaction(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		locked, err := repos.Withdrawals.FindByIDForUpdate(ctx, tx.ID)
		require.NoError(t, err)
		locked.Status = valueobject.WithdrawalStatusProcessing
		require.NoError(t, repos.Withdrawals.UpdateIfStatus(ctx, locked, valueobject.WithdrawalStatusApproved))
		_, err = repos.Ledgers.IncrementWithdrawn(ctx, tx.CampaignID, decimal.NewFromInt(400))
		require.NoError(t, err)
		require.NoError(t, repos.Audit.Append(ctx, &entity.AuditEntry{ID: uuid.New(), TransactionID: tx.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Repositories().Withdrawals.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.WithdrawalStatusApproved, got.Status)

	ledger, err := s.Repositories().Ledgers.GetBalances(ctx, tx.CampaignID)
	require.NoError(t, err)
	assert.True(t, ledger.AmountWithdrawn.IsZero())

	entries, err := s.Repositories().Audit.ListByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_SessionSeesOwnWrites(t *testing.T) {
	s := NewStore()
	tx := newStoredTransaction(t, s)
	ctx := context.Background()

	err := s.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Ledgers.IncrementWithdrawn(ctx, tx.CampaignID, decimal.NewFromInt(300))
		require.NoError(t, err)

		l, err := repos.Ledgers.GetBalances(ctx, tx.CampaignID)
		require.NoError(t, err)
		assert.True(t, l.AmountWithdrawn.Equal(decimal.NewFromInt(300)))

		// Повторный захват той же строки внутри сессии не блокирует.
		_, err = repos.Ledgers.IncrementWithdrawn(ctx, tx.CampaignID, decimal.NewFromInt(800))
		assert.Equal(t, apperror.ErrCodeInsufficientFunds, apperror.CodeOf(err))
		return nil
	})
	require.NoError(t, err)

	l, err := s.Repositories().Ledgers.GetBalances(ctx, tx.CampaignID)
	require.NoError(t, err)
	assert.True(t, l.AmountWithdrawn.Equal(decimal.NewFromInt(300)))
}

func TestStore_UpdateIfStatusRejectsStaleStatus(t *testing.T) {
	s := NewStore()
	tx := newStoredTransaction(t, s)
	ctx := context.Background()

	stale := *tx
	stale.Status = valueobject.WithdrawalStatusFailed
	err := s.Repositories().Withdrawals.UpdateIfStatus(ctx, &stale, valueobject.WithdrawalStatusProcessing)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeInvalidStateTransition, appErr.Code)
	assert.Equal(t, "approved", appErr.Details["current_status"])
}

func TestStore_LockWaitHonoursContext(t *testing.T) {
	s := NewStore()
	tx := newStoredTransaction(t, s)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Do(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
			if _, err := repos.Withdrawals.FindByIDForUpdate(ctx, tx.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := s.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Withdrawals.FindByIDForUpdate(ctx, tx.ID)
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)

	// После освобождения строку можно снова заблокировать.
	err = s.Do(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Withdrawals.FindByIDForUpdate(ctx, tx.ID)
		return err
	})
	assert.NoError(t, err)
}

func TestStore_CommitRejectsDuplicateReference(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	first := newStoredTransaction(t, s)
	second := newStoredTransaction(t, s)

	complete := func(tx *entity.WithdrawalTransaction) error {
		return s.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
			locked, err := repos.Withdrawals.FindByIDForUpdate(ctx, tx.ID)
			if err != nil {
				return err
			}
			locked.Status = valueobject.WithdrawalStatusCompleted
			locked.Processing = &entity.ProcessingDetails{TransactionReference: "REF-1", FinalAmount: locked.RequestedAmount}
			return repos.Withdrawals.UpdateIfStatus(ctx, locked, valueobject.WithdrawalStatusApproved)
		})
	}

	require.NoError(t, complete(first))
	err := complete(second)
	assert.Equal(t, apperror.ErrCodeDuplicateReference, apperror.CodeOf(err))

	exists, err := s.Repositories().Withdrawals.ReferenceExists(ctx, "REF-1", second.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Repositories().Withdrawals.ReferenceExists(ctx, "REF-1", first.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_ReturnedTransactionsAreCopies(t *testing.T) {
	s := NewStore()
	tx := newStoredTransaction(t, s)
	ctx := context.Background()

	got, err := s.Repositories().Withdrawals.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	got.Status = valueobject.WithdrawalStatusFailed

	again, err := s.Repositories().Withdrawals.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.WithdrawalStatusApproved, again.Status)
}

func TestStore_UnknownCampaign(t *testing.T) {
	s := NewStore()

	_, err := s.Repositories().Ledgers.GetBalances(context.Background(), uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestStore_AMLAlerts(t *testing.T) {
	s := NewStore()
	id := uuid.New()
	gate := s.Repositories().AML

	flagged, err := gate.HasOpenAlert(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, flagged)

	s.FlagAML(id)
	flagged, _ = gate.HasOpenAlert(context.Background(), id)
	assert.True(t, flagged)

	s.ResolveAML(id)
	flagged, _ = gate.HasOpenAlert(context.Background(), id)
	assert.False(t, flagged)
}

func liveLockSlots(s *Store) int {
	s.locks.mu.Lock()
	defer s.locks.mu.Unlock()
	return len(s.locks.slots)
}

func TestStore_LockSlotsAreReleased(t *testing.T) {
	s := NewStore()
	tx := newStoredTransaction(t, s)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_ = s.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
			_, err := repos.Withdrawals.FindByIDForUpdate(ctx, uuid.New())
			return err
		})
	}
	err := s.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Withdrawals.FindByIDForUpdate(ctx, tx.ID); err != nil {
			return err
		}
		_, err := repos.Ledgers.IncrementWithdrawn(ctx, tx.CampaignID, decimal.NewFromInt(100))
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 0, liveLockSlots(s))
}

func TestStore_LockSlotSurvivesWhileWaited(t *testing.T) {
	s := NewStore()
	tx := newStoredTransaction(t, s)

	locked := make(chan struct{})
	release := make(chan struct{})
	first := make(chan error, 1)
	go func() {
		first <- s.Do(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
			if _, err := repos.Withdrawals.FindByIDForUpdate(ctx, tx.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	// Отменённый ожидающий не должен удалить слот, который ещё держат.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Withdrawals.FindByIDForUpdate(ctx, tx.ID)
		return err
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, liveLockSlots(s))

	second := make(chan error, 1)
	go func() {
		second <- s.Do(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
			_, err := repos.Withdrawals.FindByIDForUpdate(ctx, tx.ID)
			return err
		})
	}()

	close(release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.Equal(t, 0, liveLockSlots(s))
}
