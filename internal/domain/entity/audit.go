package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
)

// AuditEntry - неизменяемая запись истории транзакции: кто, когда и что сделал.
type AuditEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	Action        valueobject.WithdrawalAction
	FromStatus    *valueobject.WithdrawalStatus
	ToStatus      valueobject.WithdrawalStatus
	EmployeeID    uuid.UUID
	EmployeeName  string
	Designation   string
	Notes         *string
	Reference     *string
	Fee           *decimal.Decimal
	CreatedAt     time.Time
}

// NewAuditEntry фиксирует уже выполненный переход. from == "" означает создание транзакции.
func NewAuditEntry(tx *WithdrawalTransaction, from valueobject.WithdrawalStatus, action valueobject.WithdrawalAction, actor Employee, notes *string, now time.Time) AuditEntry {
	entry := AuditEntry{
		ID:            uuid.New(),
		TransactionID: tx.ID,
		Action:        action,
		ToStatus:      tx.Status,
		EmployeeID:    actor.ID,
		EmployeeName:  actor.Name,
		Designation:   actor.Designation,
		Notes:         trimmedOrNil(notes),
		CreatedAt:     now,
	}
	if from != "" {
		entry.FromStatus = &from
	}
	if tx.Processing != nil && action == valueobject.ActionComplete {
		ref := tx.Processing.TransactionReference
		fee := tx.Processing.ProcessingFee
		entry.Reference = &ref
		entry.Fee = &fee
	}
	if tx.Failure != nil && action == valueobject.ActionMarkFailed && entry.Notes == nil {
		reason := tx.Failure.Reason
		entry.Notes = &reason
	}
	return entry
}
