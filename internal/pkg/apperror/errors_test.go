package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := map[*AppError]int{
		ErrTransactionNotFound: http.StatusNotFound,
		ErrInvalidTransition:   http.StatusConflict,
		ErrInvalidFee:          http.StatusBadRequest,
		ErrDuplicateReference:  http.StatusConflict,
		ErrInsufficientFunds:   http.StatusUnprocessableEntity,
		ErrUnauthorized:        http.StatusUnauthorized,
		ErrAMLReviewPending:    http.StatusConflict,
	}
	for err, status := range tests {
		assert.Equal(t, status, err.HTTPStatus, string(err.Code))
	}
	assert.Equal(t, http.StatusInternalServerError, New(ErrCodeDatabaseError, "x").HTTPStatus)
}

func TestWithDetail_DoesNotMutateSentinel(t *testing.T) {
	withField := ErrDuplicateReference.WithDetail("field", "transaction_reference")

	assert.Equal(t, "transaction_reference", withField.Details["field"])
	assert.Nil(t, ErrDuplicateReference.Details)
	assert.ErrorIs(t, withField, ErrDuplicateReference)
}

func TestCodeOf_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("repo: %w", ErrTransactionNotFound)

	assert.True(t, IsNotFound(err))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, ErrCodeDatabaseError, "не удалось")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
