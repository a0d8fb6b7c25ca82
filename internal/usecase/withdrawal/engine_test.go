package withdrawal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
)

var (
	operator = entity.Employee{ID: uuid.New(), Name: "Дмитрий Козлов", Designation: "Операционист", Role: entity.RoleEmployee}
	approver = entity.Employee{ID: uuid.New(), Name: "Ольга Смирнова", Designation: "Руководитель", Role: entity.RoleAdmin}
)

func newTestEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewEngine(store, time.Second), store
}

func seedCampaign(t *testing.T, store *memory.Store, raised string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, store.Repositories().Ledgers.Upsert(context.Background(), &entity.CampaignLedger{
		CampaignID:   id,
		AmountRaised: decimal.RequireFromString(raised),
	}))
	return id
}

func admit(t *testing.T, e *Engine, campaignID uuid.UUID, amount string) *entity.WithdrawalTransaction {
	t.Helper()
	tx, err := e.AdmitApproved(context.Background(), AdmitInput{
		CampaignID: campaignID,
		CreatorID:  uuid.New(),
		Approver:   approver,
		Amount:     decimal.RequireFromString(amount),
		Reason:     "Оплата подрядчика",
		BankAccount: BankAccountInput{
			BankName:           "Сбербанк",
			AccountHolder:      "Иван Петров",
			AccountNumber:      "40817810099910004312",
			VerificationStatus: "verified",
		},
	})
	require.NoError(t, err)
	return tx
}

func withdrawn(t *testing.T, e *Engine, campaignID uuid.UUID) decimal.Decimal {
	t.Helper()
	l, err := e.Ledger(context.Background(), campaignID)
	require.NoError(t, err)
	return l.AmountWithdrawn
}

func TestComplete_DebitsLedgerAndWritesAudit(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "50000")
	tx := admit(t, e, campaignID, "10000")
	ctx := context.Background()

	done, err := e.Complete(ctx, CompleteInput{
		TransactionID:        tx.ID,
		Actor:                operator,
		TransactionReference: "TXN-2024-001",
		ProcessingFee:        decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	assert.Equal(t, valueobject.WithdrawalStatusCompleted, done.Status)
	assert.True(t, done.Processing.FinalAmount.Equal(decimal.NewFromInt(9800)))
	// Списывается запрошенная сумма, комиссия не влияет на леджер.
	assert.True(t, withdrawn(t, e, campaignID).Equal(decimal.NewFromInt(10000)))

	history, err := e.History(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, valueobject.ActionApprove, history[0].Action)
	assert.Nil(t, history[0].FromStatus)
	assert.Equal(t, approver.ID, history[0].EmployeeID)
	assert.Equal(t, valueobject.ActionComplete, history[1].Action)
	assert.Equal(t, valueobject.WithdrawalStatusApproved, *history[1].FromStatus)
	assert.Equal(t, operator.ID, history[1].EmployeeID)
	require.NotNil(t, history[1].Reference)
	assert.Equal(t, "TXN-2024-001", *history[1].Reference)
}

func TestComplete_RetryIsRejected(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "50000")
	tx := admit(t, e, campaignID, "1000")
	ctx := context.Background()

	in := CompleteInput{TransactionID: tx.ID, Actor: operator, TransactionReference: "TXN-1"}
	_, err := e.Complete(ctx, in)
	require.NoError(t, err)

	_, err = e.Complete(ctx, in)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeInvalidStateTransition, appErr.Code)
	assert.Equal(t, "completed", appErr.Details["current_status"])

	assert.True(t, withdrawn(t, e, campaignID).Equal(decimal.NewFromInt(1000)))
}

func TestComplete_ConcurrentOnSameTransaction(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "50000")
	tx := admit(t, e, campaignID, "1000")

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.Complete(context.Background(), CompleteInput{
				TransactionID:        tx.ID,
				Actor:                operator,
				TransactionReference: fmt.Sprintf("TXN-%d", i),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperror.IsInvalidStateTransition(err) {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)
	assert.True(t, withdrawn(t, e, campaignID).Equal(decimal.NewFromInt(1000)))

	history, err := e.History(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestComplete_ConcurrentNeverOverdrawsCampaign(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "10000")

	txs := make([]*entity.WithdrawalTransaction, 5)
	for i := range txs {
		txs[i] = admit(t, e, campaignID, "3000")
	}

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i, tx := range txs {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, err := e.Complete(context.Background(), CompleteInput{
				TransactionID:        id,
				Actor:                operator,
				TransactionReference: fmt.Sprintf("REF-%d", i),
			})
			mu.Lock()
			defer mu.Unlock()
			switch apperror.CodeOf(err) {
			case "":
				succeeded++
			case apperror.ErrCodeInsufficientFunds:
				insufficient++
			}
		}(i, tx.ID)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 2, insufficient)

	ledger, err := e.Ledger(context.Background(), campaignID)
	require.NoError(t, err)
	assert.True(t, ledger.AmountWithdrawn.Equal(decimal.NewFromInt(9000)))
	assert.False(t, ledger.Available().IsNegative())

	// Отклонённые заявки остались в approved.
	approved, total, err := e.ListByCampaign(context.Background(), ListInput{CampaignID: campaignID, Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, approved, 2)
}

func TestComplete_InvalidFeeLeavesEverythingUnchanged(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "50000")
	tx := admit(t, e, campaignID, "5000")
	ctx := context.Background()

	_, err := e.Complete(ctx, CompleteInput{
		TransactionID:        tx.ID,
		Actor:                operator,
		TransactionReference: "TXN-FEE",
		ProcessingFee:        decimal.NewFromInt(6000),
	})
	assert.Equal(t, apperror.ErrCodeInvalidFee, apperror.CodeOf(err))

	got, err := e.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.WithdrawalStatusApproved, got.Status)
	assert.True(t, withdrawn(t, e, campaignID).IsZero())

	history, err := e.History(ctx, tx.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestComplete_DuplicateReference(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "50000")
	first := admit(t, e, campaignID, "1000")
	second := admit(t, e, campaignID, "2000")
	ctx := context.Background()

	_, err := e.Complete(ctx, CompleteInput{TransactionID: first.ID, Actor: operator, TransactionReference: "SAME-REF"})
	require.NoError(t, err)

	_, err = e.Complete(ctx, CompleteInput{TransactionID: second.ID, Actor: operator, TransactionReference: "SAME-REF"})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeDuplicateReference, appErr.Code)
	assert.Equal(t, "transaction_reference", appErr.Details["field"])

	got, err := e.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.WithdrawalStatusApproved, got.Status)
	assert.True(t, withdrawn(t, e, campaignID).Equal(decimal.NewFromInt(1000)))
}

func TestComplete_InsufficientFunds(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "500")
	tx := admit(t, e, campaignID, "1000")

	_, err := e.Complete(context.Background(), CompleteInput{TransactionID: tx.ID, Actor: operator, TransactionReference: "TXN-NF"})

	assert.Equal(t, apperror.ErrCodeInsufficientFunds, apperror.CodeOf(err))
	got, err := e.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.WithdrawalStatusApproved, got.Status)
}

func TestComplete_BlockedByAMLAlert(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "50000")
	tx := admit(t, e, campaignID, "1000")
	ctx := context.Background()
	in := CompleteInput{TransactionID: tx.ID, Actor: operator, TransactionReference: "TXN-AML"}

	store.FlagAML(tx.ID)
	_, err := e.Complete(ctx, in)
	assert.Equal(t, apperror.ErrCodeAMLReviewPending, apperror.CodeOf(err))
	assert.True(t, withdrawn(t, e, campaignID).IsZero())

	store.ResolveAML(tx.ID)
	_, err = e.Complete(ctx, in)
	assert.NoError(t, err)
}

func TestMarkFailed_FromProcessingKeepsLedger(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "50000")
	tx := admit(t, e, campaignID, "1000")
	ctx := context.Background()

	_, err := e.MarkProcessing(ctx, MarkProcessingInput{TransactionID: tx.ID, Actor: operator})
	require.NoError(t, err)

	failed, err := e.MarkFailed(ctx, MarkFailedInput{TransactionID: tx.ID, Actor: operator, Reason: "Банк отклонил перевод"})
	require.NoError(t, err)

	assert.Equal(t, valueobject.WithdrawalStatusFailed, failed.Status)
	require.NotNil(t, failed.Failure)
	assert.Equal(t, "Банк отклонил перевод", failed.Failure.Reason)
	assert.True(t, withdrawn(t, e, campaignID).IsZero())

	history, err := e.History(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, valueobject.WithdrawalStatusProcessing, *history[2].FromStatus)
	assert.Equal(t, valueobject.WithdrawalStatusFailed, history[2].ToStatus)

	_, err = e.Complete(ctx, CompleteInput{TransactionID: tx.ID, Actor: operator, TransactionReference: "LATE"})
	assert.True(t, apperror.IsInvalidStateTransition(err))
}

func TestMarkFailed_ShortReason(t *testing.T) {
	e, store := newTestEngine(t)
	tx := admit(t, e, seedCampaign(t, store, "50000"), "1000")

	_, err := e.MarkFailed(context.Background(), MarkFailedInput{TransactionID: tx.ID, Actor: operator, Reason: strings.Repeat("a", 9)})
	assert.True(t, apperror.IsValidation(err))

	got, err := e.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.WithdrawalStatusApproved, got.Status)

	failed, err := e.MarkFailed(context.Background(), MarkFailedInput{TransactionID: tx.ID, Actor: operator, Reason: strings.Repeat("a", 10)})
	require.NoError(t, err)
	assert.Equal(t, valueobject.WithdrawalStatusFailed, failed.Status)
}

func TestMarkFailed_FromApprovedKeepsLedger(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "50000")
	tx := admit(t, e, campaignID, "10000")

	failed, err := e.MarkFailed(context.Background(), MarkFailedInput{TransactionID: tx.ID, Actor: operator, Reason: "bank details incorrect"})

	require.NoError(t, err)
	assert.Equal(t, valueobject.WithdrawalStatusFailed, failed.Status)
	assert.Nil(t, failed.Processing)
	assert.True(t, withdrawn(t, e, campaignID).IsZero())

	_, err = e.MarkProcessing(context.Background(), MarkProcessingInput{TransactionID: tx.ID, Actor: operator})
	assert.True(t, apperror.IsInvalidStateTransition(err))
}

func TestOperations_RequireEmployee(t *testing.T) {
	e, store := newTestEngine(t)
	tx := admit(t, e, seedCampaign(t, store, "50000"), "1000")
	ctx := context.Background()
	creator := entity.Employee{ID: uuid.New(), Role: "creator"}

	_, err := e.MarkProcessing(ctx, MarkProcessingInput{TransactionID: tx.ID, Actor: creator})
	assert.Equal(t, apperror.ErrCodeUnauthorized, apperror.CodeOf(err))

	_, err = e.Complete(ctx, CompleteInput{TransactionID: tx.ID, Actor: entity.Employee{}, TransactionReference: "X"})
	assert.Equal(t, apperror.ErrCodeUnauthorized, apperror.CodeOf(err))

	_, err = e.MarkFailed(ctx, MarkFailedInput{TransactionID: tx.ID, Actor: creator, Reason: "не тот сотрудник"})
	assert.Equal(t, apperror.ErrCodeUnauthorized, apperror.CodeOf(err))
}

func TestOperations_UnknownTransaction(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	id := uuid.New()

	_, err := e.MarkProcessing(ctx, MarkProcessingInput{TransactionID: id, Actor: operator})
	assert.True(t, apperror.IsNotFound(err))

	_, err = e.Get(ctx, id)
	assert.True(t, apperror.IsNotFound(err))

	_, err = e.History(ctx, id)
	assert.True(t, apperror.IsNotFound(err))
}

func TestComplete_LockTimeoutReturnsConflict(t *testing.T) {
	store := memory.NewStore()
	e := NewEngine(store, 50*time.Millisecond)
	campaignID := seedCampaign(t, store, "50000")
	tx := admit(t, e, campaignID, "1000")

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = store.Do(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
			if _, err := repos.Withdrawals.FindByIDForUpdate(ctx, tx.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked
	defer close(release)

	_, err := e.Complete(context.Background(), CompleteInput{TransactionID: tx.ID, Actor: operator, TransactionReference: "TXN-LOCK"})
	assert.Equal(t, apperror.ErrCodeConflict, apperror.CodeOf(err))
}

func TestAdmitApproved_UnknownCampaign(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.AdmitApproved(context.Background(), AdmitInput{
		CampaignID: uuid.New(),
		CreatorID:  uuid.New(),
		Approver:   approver,
		Amount:     decimal.NewFromInt(100),
		BankAccount: BankAccountInput{
			BankName:           "ВТБ",
			AccountHolder:      "Иван Петров",
			AccountNumber:      "40817810099910004312",
			VerificationStatus: "verified",
		},
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestListByCampaign_FiltersAndPaginates(t *testing.T) {
	e, store := newTestEngine(t)
	campaignID := seedCampaign(t, store, "50000")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	e.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		ids = append(ids, admit(t, e, campaignID, "100").ID)
	}
	admit(t, e, seedCampaign(t, store, "100"), "50")

	_, err := e.MarkProcessing(context.Background(), MarkProcessingInput{TransactionID: ids[0], Actor: operator})
	require.NoError(t, err)

	page, total, err := e.ListByCampaign(context.Background(), ListInput{CampaignID: campaignID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	// Новые сверху.
	assert.Equal(t, ids[3], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)

	processing, total, err := e.ListByCampaign(context.Background(), ListInput{CampaignID: campaignID, Status: "processing"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, ids[0], processing[0].ID)

	_, _, err = e.ListByCampaign(context.Background(), ListInput{CampaignID: campaignID, Status: "archived"})
	assert.True(t, apperror.IsValidation(err))
}
