package persistence

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
)

const withdrawalColumns = `id, campaign_id, creator_id, requested_amount,
	bank_name, account_holder, account_number, verification_status, document_ref,
	status, withdrawal_type, reason, employee_processed_by,
	transaction_reference, processing_fee, final_amount, processed_by, processed_by_name, processed_at, processing_notes,
	failure_reason, failed_by, failed_by_name, failed_at,
	created_at, updated_at`

// withdrawalRow - строка withdrawal_transactions. Детали проведения и отказа nullable.
type withdrawalRow struct {
	ID                  uuid.UUID       `db:"id"`
	CampaignID          uuid.UUID       `db:"campaign_id"`
	CreatorID           uuid.UUID       `db:"creator_id"`
	RequestedAmount     decimal.Decimal `db:"requested_amount"`
	BankName            string          `db:"bank_name"`
	AccountHolder       string          `db:"account_holder"`
	AccountNumber       string          `db:"account_number"`
	VerificationStatus  string          `db:"verification_status"`
	DocumentRef         sql.NullString  `db:"document_ref"`
	Status              string          `db:"status"`
	WithdrawalType      string          `db:"withdrawal_type"`
	Reason              string          `db:"reason"`
	EmployeeProcessedBy uuid.UUID       `db:"employee_processed_by"`

	TransactionReference sql.NullString      `db:"transaction_reference"`
	ProcessingFee        decimal.NullDecimal `db:"processing_fee"`
	FinalAmount          decimal.NullDecimal `db:"final_amount"`
	ProcessedBy          uuid.NullUUID       `db:"processed_by"`
	ProcessedByName      sql.NullString      `db:"processed_by_name"`
	ProcessedAt          sql.NullTime        `db:"processed_at"`
	ProcessingNotes      sql.NullString      `db:"processing_notes"`

	FailureReason sql.NullString `db:"failure_reason"`
	FailedBy      uuid.NullUUID  `db:"failed_by"`
	FailedByName  sql.NullString `db:"failed_by_name"`
	FailedAt      sql.NullTime   `db:"failed_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r withdrawalRow) toEntity() *entity.WithdrawalTransaction {
	tx := &entity.WithdrawalTransaction{
		ID:              r.ID,
		CampaignID:      r.CampaignID,
		CreatorID:       r.CreatorID,
		RequestedAmount: r.RequestedAmount,
		BankAccount: entity.BankAccountSnapshot{
			BankName:           r.BankName,
			AccountHolder:      r.AccountHolder,
			AccountNumber:      r.AccountNumber,
			VerificationStatus: valueobject.VerificationStatus(r.VerificationStatus),
			DocumentRef:        nullStringPtr(r.DocumentRef),
		},
		Status:              valueobject.WithdrawalStatus(r.Status),
		WithdrawalType:      valueobject.WithdrawalType(r.WithdrawalType),
		Reason:              r.Reason,
		EmployeeProcessedBy: r.EmployeeProcessedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}

	if r.TransactionReference.Valid {
		tx.Processing = &entity.ProcessingDetails{
			TransactionReference: r.TransactionReference.String,
			ProcessingFee:        r.ProcessingFee.Decimal,
			FinalAmount:          r.FinalAmount.Decimal,
			ProcessedBy:          r.ProcessedBy.UUID,
			ProcessedByName:      r.ProcessedByName.String,
			ProcessedAt:          r.ProcessedAt.Time,
			Notes:                nullStringPtr(r.ProcessingNotes),
		}
	}
	if r.FailureReason.Valid {
		tx.Failure = &entity.FailureDetails{
			Reason:       r.FailureReason.String,
			FailedBy:     r.FailedBy.UUID,
			FailedByName: r.FailedByName.String,
			FailedAt:     r.FailedAt.Time,
		}
	}
	return tx
}

func newWithdrawalRow(tx *entity.WithdrawalTransaction) withdrawalRow {
	row := withdrawalRow{
		ID:                  tx.ID,
		CampaignID:          tx.CampaignID,
		CreatorID:           tx.CreatorID,
		RequestedAmount:     tx.RequestedAmount,
		BankName:            tx.BankAccount.BankName,
		AccountHolder:       tx.BankAccount.AccountHolder,
		AccountNumber:       tx.BankAccount.AccountNumber,
		VerificationStatus:  string(tx.BankAccount.VerificationStatus),
		DocumentRef:         stringPtrNull(tx.BankAccount.DocumentRef),
		Status:              string(tx.Status),
		WithdrawalType:      string(tx.WithdrawalType),
		Reason:              tx.Reason,
		EmployeeProcessedBy: tx.EmployeeProcessedBy,
		CreatedAt:           tx.CreatedAt,
		UpdatedAt:           tx.UpdatedAt,
	}

	if p := tx.Processing; p != nil {
		row.TransactionReference = sql.NullString{String: p.TransactionReference, Valid: true}
		row.ProcessingFee = decimal.NullDecimal{Decimal: p.ProcessingFee, Valid: true}
		row.FinalAmount = decimal.NullDecimal{Decimal: p.FinalAmount, Valid: true}
		row.ProcessedBy = uuid.NullUUID{UUID: p.ProcessedBy, Valid: true}
		row.ProcessedByName = sql.NullString{String: p.ProcessedByName, Valid: true}
		row.ProcessedAt = sql.NullTime{Time: p.ProcessedAt, Valid: true}
		row.ProcessingNotes = stringPtrNull(p.Notes)
	}
	if f := tx.Failure; f != nil {
		row.FailureReason = sql.NullString{String: f.Reason, Valid: true}
		row.FailedBy = uuid.NullUUID{UUID: f.FailedBy, Valid: true}
		row.FailedByName = sql.NullString{String: f.FailedByName, Valid: true}
		row.FailedAt = sql.NullTime{Time: f.FailedAt, Valid: true}
	}
	return row
}

const ledgerColumns = `campaign_id, currency, amount_raised, amount_withdrawn, updated_at`

type ledgerRow struct {
	CampaignID      uuid.UUID       `db:"campaign_id"`
	Currency        string          `db:"currency"`
	AmountRaised    decimal.Decimal `db:"amount_raised"`
	AmountWithdrawn decimal.Decimal `db:"amount_withdrawn"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (r ledgerRow) toEntity() *entity.CampaignLedger {
	return &entity.CampaignLedger{
		CampaignID:      r.CampaignID,
		Currency:        r.Currency,
		AmountRaised:    r.AmountRaised,
		AmountWithdrawn: r.AmountWithdrawn,
		UpdatedAt:       r.UpdatedAt,
	}
}

const auditColumns = `id, transaction_id, action, from_status, to_status,
	employee_id, employee_name, designation, notes, reference, fee, created_at`

type auditRow struct {
	ID            uuid.UUID           `db:"id"`
	TransactionID uuid.UUID           `db:"transaction_id"`
	Action        string              `db:"action"`
	FromStatus    sql.NullString      `db:"from_status"`
	ToStatus      string              `db:"to_status"`
	EmployeeID    uuid.UUID           `db:"employee_id"`
	EmployeeName  string              `db:"employee_name"`
	Designation   string              `db:"designation"`
	Notes         sql.NullString      `db:"notes"`
	Reference     sql.NullString      `db:"reference"`
	Fee           decimal.NullDecimal `db:"fee"`
	CreatedAt     time.Time           `db:"created_at"`
}

func (r auditRow) toEntity() entity.AuditEntry {
	entry := entity.AuditEntry{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		Action:        valueobject.WithdrawalAction(r.Action),
		ToStatus:      valueobject.WithdrawalStatus(r.ToStatus),
		EmployeeID:    r.EmployeeID,
		EmployeeName:  r.EmployeeName,
		Designation:   r.Designation,
		Notes:         nullStringPtr(r.Notes),
		Reference:     nullStringPtr(r.Reference),
		CreatedAt:     r.CreatedAt,
	}
	if r.FromStatus.Valid {
		from := valueobject.WithdrawalStatus(r.FromStatus.String)
		entry.FromStatus = &from
	}
	if r.Fee.Valid {
		fee := r.Fee.Decimal
		entry.Fee = &fee
	}
	return entry
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func stringPtrNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
