package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
)

// Константы валидации
const (
	MinFailureReasonLength     = 10
	MaxFailureReasonLength     = 1000
	MaxNotesLength             = 2000
	MaxTransactionReferenceLen = 100
	MaxBankNameLength          = 200
	MaxAccountHolderLength     = 200
	MinAccountNumberLength     = 4
	MaxAccountNumberLength     = 34
	MaxDocumentRefLength       = 500
	MaxCreatorReasonLength     = 2000
)

var (
	referenceRegex     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-/.]*$`)
	accountNumberRegex = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)
)

// ValidateLength проверяет длину строки в символах, а не байтах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return apperror.Validation(fieldName, fmt.Sprintf("%s должен быть не менее %d символов", fieldName, min))
	}
	if max > 0 && length > max {
		return apperror.Validation(fieldName, fmt.Sprintf("%s должен быть не более %d символов", fieldName, max))
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Validation(fieldName, fmt.Sprintf("%s не может быть пустым", fieldName))
	}
	return nil
}

// ValidateFailureReason проверяет причину неуспешной выплаты.
// Пробелы по краям не считаются: "         a" - это один символ.
func ValidateFailureReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.Validation("reason", "причина отказа обязательна")
	}
	return ValidateLength("reason", reason, MinFailureReasonLength, MaxFailureReasonLength)
}

// ValidateTransactionReference проверяет банковский референс платежа.
func ValidateTransactionReference(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return apperror.Validation("transaction_reference", "банковский референс обязателен")
	}
	if err := ValidateLength("transaction_reference", ref, 1, MaxTransactionReferenceLen); err != nil {
		return err
	}
	if !referenceRegex.MatchString(ref) {
		return apperror.Validation("transaction_reference", "банковский референс содержит недопустимые символы")
	}
	return nil
}

// ValidateNotes проверяет необязательный комментарий сотрудника.
func ValidateNotes(notes *string) error {
	if notes == nil {
		return nil
	}
	return ValidateLength("notes", strings.TrimSpace(*notes), 0, MaxNotesLength)
}

// ValidateAccountNumber проверяет номер счёта (IBAN или локальный формат).
func ValidateAccountNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return apperror.Validation("bank_account.account_number", "номер счёта обязателен")
	}
	if err := ValidateLength("bank_account.account_number", number, MinAccountNumberLength, MaxAccountNumberLength); err != nil {
		return err
	}
	if !accountNumberRegex.MatchString(number) {
		return apperror.Validation("bank_account.account_number", "номер счёта содержит недопустимые символы")
	}
	return nil
}
