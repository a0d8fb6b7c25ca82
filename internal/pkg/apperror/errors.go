package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden              ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest             ErrorCode = "BAD_REQUEST"
	ErrCodeConflict               ErrorCode = "CONFLICT"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation             ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError          ErrorCode = "DATABASE_ERROR"
	ErrCodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
	ErrCodeInvalidFee             ErrorCode = "INVALID_FEE"
	ErrCodeDuplicateReference     ErrorCode = "DUPLICATE_REFERENCE"
	ErrCodeInsufficientFunds      ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeAMLReviewPending       ErrorCode = "AML_REVIEW_PENDING"
	ErrCodeTooManyRequests        ErrorCode = "TOO_MANY_REQUESTS"
)

// AppError - ошибка приложения с кодом, HTTP статусом и деталями для клиента.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	// Details уходят клиенту как есть: поле с ошибкой, текущий статус и т.п.
	Details map[string]any
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с шаблонными ошибками ниже.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail возвращает копию ошибки с дополнительным полем в Details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с указанием поля.
func Validation(field, message string) *AppError {
	return New(ErrCodeValidation, message).WithDetail("field", field)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidFee:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidStateTransition, ErrCodeDuplicateReference, ErrCodeAMLReviewPending:
		return http.StatusConflict
	case ErrCodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

func IsInvalidStateTransition(err error) bool {
	return CodeOf(err) == ErrCodeInvalidStateTransition
}

var (
	ErrTransactionNotFound = New(ErrCodeNotFound, "транзакция вывода не найдена")
	ErrCampaignNotFound    = New(ErrCodeNotFound, "кампания не найдена")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "требуется авторизация сотрудника")
	ErrForbidden           = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidTransition   = New(ErrCodeInvalidStateTransition, "операция недопустима в текущем статусе транзакции")
	ErrInvalidFee          = New(ErrCodeInvalidFee, "комиссия должна быть в диапазоне от 0 до запрошенной суммы")
	ErrDuplicateReference  = New(ErrCodeDuplicateReference, "банковский референс уже использован в другой транзакции")
	ErrInsufficientFunds   = New(ErrCodeInsufficientFunds, "недостаточно средств кампании для вывода")
	ErrAMLReviewPending    = New(ErrCodeAMLReviewPending, "транзакция ожидает AML-проверки")
)
