package valueobject

import (
	"fmt"

	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
)

type WithdrawalStatus string

const (
	WithdrawalStatusApproved   WithdrawalStatus = "approved"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

func (s WithdrawalStatus) IsValid() bool {
	switch s {
	case WithdrawalStatusApproved, WithdrawalStatusProcessing, WithdrawalStatusCompleted, WithdrawalStatusFailed:
		return true
	}
	return false
}

// IsTerminal сообщает, что из статуса больше нет переходов.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusFailed
}

func NewWithdrawalStatus(status string) (WithdrawalStatus, error) {
	s := WithdrawalStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("status", "некорректный статус транзакции")
	}
	return s, nil
}

// WithdrawalAction - действие сотрудника над транзакцией вывода.
type WithdrawalAction string

const (
	ActionApprove        WithdrawalAction = "approve"
	ActionMarkProcessing WithdrawalAction = "mark_processing"
	ActionComplete       WithdrawalAction = "complete"
	ActionMarkFailed     WithdrawalAction = "mark_failed"
)

func (a WithdrawalAction) IsValid() bool {
	switch a {
	case ActionApprove, ActionMarkProcessing, ActionComplete, ActionMarkFailed:
		return true
	}
	return false
}

// Transition возвращает новый статус либо ошибку INVALID_STATE_TRANSITION
// с текущим статусом в деталях. Это единственное место, где описана таблица переходов.
func Transition(from WithdrawalStatus, action WithdrawalAction) (WithdrawalStatus, error) {
	switch from {
	case WithdrawalStatusApproved:
		switch action {
		case ActionMarkProcessing:
			return WithdrawalStatusProcessing, nil
		case ActionComplete:
			return WithdrawalStatusCompleted, nil
		case ActionMarkFailed:
			return WithdrawalStatusFailed, nil
		case ActionApprove:
			return "", invalidTransition(from, action)
		}
	case WithdrawalStatusProcessing:
		switch action {
		case ActionComplete:
			return WithdrawalStatusCompleted, nil
		case ActionMarkFailed:
			return WithdrawalStatusFailed, nil
		case ActionApprove, ActionMarkProcessing:
			return "", invalidTransition(from, action)
		}
	case WithdrawalStatusCompleted, WithdrawalStatusFailed:
		return "", invalidTransition(from, action)
	}
	return "", apperror.New(apperror.ErrCodeInternal, fmt.Sprintf("неизвестная пара статус/действие: %q/%q", from, action))
}

// CanTransition - удобная обёртка над Transition для проверок без ошибки.
func (s WithdrawalStatus) CanTransition(action WithdrawalAction) bool {
	_, err := Transition(s, action)
	return err == nil
}

func invalidTransition(from WithdrawalStatus, action WithdrawalAction) error {
	return apperror.ErrInvalidTransition.
		WithDetail("current_status", string(from)).
		WithDetail("action", string(action))
}

type WithdrawalType string

const (
	WithdrawalTypePartial WithdrawalType = "partial"
	WithdrawalTypeFull    WithdrawalType = "full"
)

func NewWithdrawalType(t string) (WithdrawalType, error) {
	switch WithdrawalType(t) {
	case WithdrawalTypePartial, WithdrawalTypeFull:
		return WithdrawalType(t), nil
	case "":
		return WithdrawalTypePartial, nil
	}
	return "", apperror.Validation("withdrawal_type", "тип вывода должен быть partial или full")
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

func NewVerificationStatus(s string) (VerificationStatus, error) {
	switch VerificationStatus(s) {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return VerificationStatus(s), nil
	}
	return "", apperror.Validation("bank_account.verification_status", "некорректный статус верификации счёта")
}

// ErrStatusChanged сообщает, что статус изменился между чтением и записью в to.
func ErrStatusChanged(current, to WithdrawalStatus) error {
	return invalidTransition(current, actionLeadingTo(to))
}

func actionLeadingTo(to WithdrawalStatus) WithdrawalAction {
	switch to {
	case WithdrawalStatusProcessing:
		return ActionMarkProcessing
	case WithdrawalStatusCompleted:
		return ActionComplete
	case WithdrawalStatusFailed:
		return ActionMarkFailed
	}
	return ActionApprove
}
