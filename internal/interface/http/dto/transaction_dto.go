package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
)

type MarkProcessingRequest struct {
	Notes *string `json:"notes"`
}

// Обязательность полей не проверяется биндингом: пустые значения доходят до движка,
// и клиент получает VALIDATION_ERROR с именем поля.
type CompleteRequest struct {
	TransactionReference string           `json:"transaction_reference"`
	ProcessingFee        *decimal.Decimal `json:"processing_fee"`
	Notes                *string          `json:"notes"`
}

// Fee возвращает комиссию, по умолчанию ноль.
func (r CompleteRequest) Fee() decimal.Decimal {
	if r.ProcessingFee == nil {
		return decimal.Zero
	}
	return *r.ProcessingFee
}

type MarkFailedRequest struct {
	Reason string `json:"reason"`
}

type BankAccountResponse struct {
	BankName           string  `json:"bank_name"`
	AccountHolder      string  `json:"account_holder"`
	AccountNumber      string  `json:"account_number"`
	VerificationStatus string  `json:"verification_status"`
	DocumentRef        *string `json:"document_ref,omitempty"`
}

type ProcessingDetailsResponse struct {
	TransactionReference string    `json:"transaction_reference"`
	ProcessingFee        string    `json:"processing_fee"`
	FinalAmount          string    `json:"final_amount"`
	ProcessedBy          uuid.UUID `json:"processed_by"`
	ProcessedByName      string    `json:"processed_by_name"`
	ProcessedAt          time.Time `json:"processed_at"`
	Notes                *string   `json:"notes,omitempty"`
}

type FailureDetailsResponse struct {
	Reason       string    `json:"reason"`
	FailedBy     uuid.UUID `json:"failed_by"`
	FailedByName string    `json:"failed_by_name"`
	FailedAt     time.Time `json:"failed_at"`
}

type TransactionResponse struct {
	ID                  uuid.UUID                  `json:"id"`
	CampaignID          uuid.UUID                  `json:"campaign_id"`
	CreatorID           uuid.UUID                  `json:"creator_id"`
	RequestedAmount     string                     `json:"requested_amount"`
	Status              string                     `json:"status"`
	WithdrawalType      string                     `json:"withdrawal_type"`
	Reason              string                     `json:"reason,omitempty"`
	EmployeeProcessedBy uuid.UUID                  `json:"employee_processed_by"`
	BankAccount         BankAccountResponse        `json:"bank_account"`
	ProcessingDetails   *ProcessingDetailsResponse `json:"processing_details,omitempty"`
	FailureDetails      *FailureDetailsResponse    `json:"failure_details,omitempty"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

// ToTransactionResponse маскирует номер счёта: полный номер наружу не отдаётся.
func ToTransactionResponse(tx *entity.WithdrawalTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                  tx.ID,
		CampaignID:          tx.CampaignID,
		CreatorID:           tx.CreatorID,
		RequestedAmount:     tx.RequestedAmount.StringFixed(2),
		Status:              string(tx.Status),
		WithdrawalType:      string(tx.WithdrawalType),
		Reason:              tx.Reason,
		EmployeeProcessedBy: tx.EmployeeProcessedBy,
		BankAccount: BankAccountResponse{
			BankName:           tx.BankAccount.BankName,
			AccountHolder:      tx.BankAccount.AccountHolder,
			AccountNumber:      tx.BankAccount.MaskedAccountNumber(),
			VerificationStatus: string(tx.BankAccount.VerificationStatus),
			DocumentRef:        tx.BankAccount.DocumentRef,
		},
		CreatedAt: tx.CreatedAt,
		UpdatedAt: tx.UpdatedAt,
	}

	if p := tx.Processing; p != nil {
		resp.ProcessingDetails = &ProcessingDetailsResponse{
			TransactionReference: p.TransactionReference,
			ProcessingFee:        p.ProcessingFee.StringFixed(2),
			FinalAmount:          p.FinalAmount.StringFixed(2),
			ProcessedBy:          p.ProcessedBy,
			ProcessedByName:      p.ProcessedByName,
			ProcessedAt:          p.ProcessedAt,
			Notes:                p.Notes,
		}
	}
	if f := tx.Failure; f != nil {
		resp.FailureDetails = &FailureDetailsResponse{
			Reason:       f.Reason,
			FailedBy:     f.FailedBy,
			FailedByName: f.FailedByName,
			FailedAt:     f.FailedAt,
		}
	}
	return resp
}

func ToTransactionResponses(items []*entity.WithdrawalTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(items))
	for _, tx := range items {
		out = append(out, ToTransactionResponse(tx))
	}
	return out
}

type AuditEntryResponse struct {
	ID           uuid.UUID `json:"id"`
	Action       string    `json:"action"`
	FromStatus   *string   `json:"from_status"`
	ToStatus     string    `json:"to_status"`
	EmployeeID   uuid.UUID `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Designation  string    `json:"designation"`
	Notes        *string   `json:"notes,omitempty"`
	Reference    *string   `json:"transaction_reference,omitempty"`
	Fee          *string   `json:"processing_fee,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToAuditResponses(entries []entity.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		item := AuditEntryResponse{
			ID:           e.ID,
			Action:       string(e.Action),
			ToStatus:     string(e.ToStatus),
			EmployeeID:   e.EmployeeID,
			EmployeeName: e.EmployeeName,
			Designation:  e.Designation,
			Notes:        e.Notes,
			Reference:    e.Reference,
			CreatedAt:    e.CreatedAt,
		}
		if e.FromStatus != nil {
			from := string(*e.FromStatus)
			item.FromStatus = &from
		}
		if e.Fee != nil {
			fee := e.Fee.StringFixed(2)
			item.Fee = &fee
		}
		out = append(out, item)
	}
	return out
}

type LedgerResponse struct {
	CampaignID      uuid.UUID `json:"campaign_id"`
	Currency        string    `json:"currency"`
	AmountRaised    string    `json:"amount_raised"`
	AmountWithdrawn string    `json:"amount_withdrawn"`
	Available       string    `json:"available"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func ToLedgerResponse(l *entity.CampaignLedger) LedgerResponse {
	return LedgerResponse{
		CampaignID:      l.CampaignID,
		Currency:        l.Currency,
		AmountRaised:    l.AmountRaised.StringFixed(2),
		AmountWithdrawn: l.AmountWithdrawn.StringFixed(2),
		Available:       l.Available().StringFixed(2),
		UpdatedAt:       l.UpdatedAt,
	}
}
