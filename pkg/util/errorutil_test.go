package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	notFound := ToDomainError(fmt.Errorf("load ticket: %w", pgx.ErrNoRows))
	assert.Equal(t, CodeNotFound, notFound.Code)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	internal := ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, internal.Code)
	assert.ErrorContains(t, internal, "boom")

	validation := NewValidationError("bad key", nil)
	assert.Same(t, validation, ToDomainError(fmt.Errorf("wrapped: %w", validation)))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(fmt.Errorf("ctx: %w", NewValidationError("bad", nil))))
	assert.False(t, IsValidation(NewNotFound("ticket", nil)))
	assert.False(t, IsValidation(errors.New("plain")))
}
