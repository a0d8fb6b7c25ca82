package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/repository"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/usecase/withdrawal"
)

// SeedService генерирует демо-кампанию с одобренными заявками для ручной проверки.
type SeedService struct {
	engine  *withdrawal.Engine
	ledgers repository.LedgerRepository
	tokens  *TokenManager
}

func NewSeedService(engine *withdrawal.Engine, ledgers repository.LedgerRepository, tokens *TokenManager) *SeedService {
	return &SeedService{
		engine:  engine,
		ledgers: ledgers,
		tokens:  tokens,
	}
}

type SeedResult struct {
	CampaignID     uuid.UUID   `json:"campaign_id"`
	AmountRaised   string      `json:"amount_raised"`
	TransactionIDs []uuid.UUID `json:"transaction_ids"`
	EmployeeToken  string      `json:"employee_token"`
	AdminToken     string      `json:"admin_token"`
}

// SeedDemo создаёт кампанию и n заявок в статусе approved.
// Сумма заявок не превышает собранного, чтобы все их можно было провести.
func (s *SeedService) SeedDemo(ctx context.Context, n int) (*SeedResult, error) {
	admin := entity.Employee{ID: uuid.New(), Name: "Ольга Смирнова", Designation: "Руководитель финансового отдела", Role: entity.RoleAdmin}
	operator := entity.Employee{ID: uuid.New(), Name: "Дмитрий Козлов", Designation: "Операционист", Role: entity.RoleEmployee}

	banks := []string{"Сбербанк", "Т-Банк", "Альфа-Банк", "ВТБ", "Райффайзенбанк"}
	holders := []string{"Иван Петров", "Анна Соколова", "Мария Лебедева", "Павел Новиков"}

	amounts := make([]decimal.Decimal, n)
	raised := decimal.Zero
	for i := range amounts {
		amounts[i] = decimal.New(int64(100+rand.Intn(4900)), 0)
		raised = raised.Add(amounts[i])
	}

	campaignID := uuid.New()
	if err := s.ledgers.Upsert(ctx, &entity.CampaignLedger{
		CampaignID:   campaignID,
		Currency:     valueobject.DefaultCurrency,
		AmountRaised: raised,
	}); err != nil {
		return nil, fmt.Errorf("seed service: failed to create ledger: %w", err)
	}

	creatorID := uuid.New()
	ids := make([]uuid.UUID, 0, n)
	for i, amount := range amounts {
		tx, err := s.engine.AdmitApproved(ctx, withdrawal.AdmitInput{
			CampaignID:     campaignID,
			CreatorID:      creatorID,
			Approver:       admin,
			Amount:         amount,
			WithdrawalType: string(valueobject.WithdrawalTypePartial),
			Reason:         "Оплата расходов кампании",
			BankAccount: withdrawal.BankAccountInput{
				BankName:           banks[i%len(banks)],
				AccountHolder:      holders[i%len(holders)],
				AccountNumber:      fmt.Sprintf("40817810%012d", rand.Int63n(1_000_000_000_000)),
				VerificationStatus: string(valueobject.VerificationVerified),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("seed service: failed to admit transaction: %w", err)
		}
		ids = append(ids, tx.ID)
	}

	employeeToken, _, err := s.tokens.IssueAccess(operator)
	if err != nil {
		return nil, fmt.Errorf("seed service: failed to issue token: %w", err)
	}
	adminToken, _, err := s.tokens.IssueAccess(admin)
	if err != nil {
		return nil, fmt.Errorf("seed service: failed to issue token: %w", err)
	}

	return &SeedResult{
		CampaignID:     campaignID,
		AmountRaised:   raised.StringFixed(2),
		TransactionIDs: ids,
		EmployeeToken:  employeeToken,
		AdminToken:     adminToken,
	}, nil
}
