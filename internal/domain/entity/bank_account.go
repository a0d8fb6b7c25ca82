package entity

import (
	"strings"

	"github.com/ignatzorin/fundraising-backend/internal/domain/valueobject"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
	"github.com/ignatzorin/fundraising-backend/internal/validation"
)

// BankAccountSnapshot - копия реквизитов на момент одобрения заявки.
// Снимок не перечитывается из профиля автора, поэтому после одобрения
// перенаправить выплату на другой счёт нельзя.
type BankAccountSnapshot struct {
	BankName           string
	AccountHolder      string
	AccountNumber      string
	VerificationStatus valueobject.VerificationStatus
	DocumentRef        *string
}

func NewBankAccountSnapshot(bankName, accountHolder, accountNumber, verificationStatus string, documentRef *string) (BankAccountSnapshot, error) {
	bankName = strings.TrimSpace(bankName)
	accountHolder = strings.TrimSpace(accountHolder)
	accountNumber = strings.TrimSpace(accountNumber)

	if err := validation.ValidateNonEmpty("bank_account.bank_name", bankName); err != nil {
		return BankAccountSnapshot{}, err
	}
	if err := validation.ValidateLength("bank_account.bank_name", bankName, 0, validation.MaxBankNameLength); err != nil {
		return BankAccountSnapshot{}, err
	}
	if err := validation.ValidateNonEmpty("bank_account.account_holder", accountHolder); err != nil {
		return BankAccountSnapshot{}, err
	}
	if err := validation.ValidateLength("bank_account.account_holder", accountHolder, 0, validation.MaxAccountHolderLength); err != nil {
		return BankAccountSnapshot{}, err
	}
	if err := validation.ValidateAccountNumber(accountNumber); err != nil {
		return BankAccountSnapshot{}, err
	}

	status, err := valueobject.NewVerificationStatus(verificationStatus)
	if err != nil {
		return BankAccountSnapshot{}, err
	}

	var doc *string
	if documentRef != nil {
		ref := strings.TrimSpace(*documentRef)
		if ref != "" {
			if err := validation.ValidateLength("bank_account.document_ref", ref, 0, validation.MaxDocumentRefLength); err != nil {
				return BankAccountSnapshot{}, err
			}
			doc = &ref
		}
	}

	return BankAccountSnapshot{
		BankName:           bankName,
		AccountHolder:      accountHolder,
		AccountNumber:      accountNumber,
		VerificationStatus: status,
		DocumentRef:        doc,
	}, nil
}

// MaskedAccountNumber оставляет видимыми только последние четыре символа.
func (b BankAccountSnapshot) MaskedAccountNumber() string {
	number := strings.ReplaceAll(b.AccountNumber, " ", "")
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

func (b BankAccountSnapshot) IsVerified() bool {
	return b.VerificationStatus == valueobject.VerificationVerified
}

func errSnapshotRequired() error {
	return apperror.Validation("bank_account", "реквизиты счёта обязательны")
}
