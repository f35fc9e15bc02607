package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validationf(OpAdd, "name must not be empty")))
	assert.Equal(t, KindNotFound, KindOf(NotFound(OpDelete, 7)))
	assert.Equal(t, KindStoreFailure, KindOf(StoreFailure(OpUpdate, context.DeadlineExceeded)))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("handler: %w", NotFound(OpUpdate, 9))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestProductError_Messages(t *testing.T) {
	nf := NotFound(OpUpdate, 999)
	assert.EqualError(t, nf, "product 999 not found")
	assert.ErrorIs(t, nf, ErrProductNotFound)

	sf := StoreFailure(OpAdd, fmt.Errorf("insert: %w", ErrConstraintViolation))
	assert.EqualError(t, sf, "could not add product: product data constraint violation")
	assert.ErrorIs(t, sf, ErrConstraintViolation)

	assert.EqualError(t, StoreFailure(OpSearch, errors.New("io")), "could not search products")
	assert.EqualError(t, Unexpected(OpDelete, errors.New("panic")), "unexpected error: panic")
}

func TestCommands(t *testing.T) {
	tests := []struct {
		cmd    Command
		op     Op
		status string
	}{
		{CreateProductCommand{Name: "Widget", Amount: "5"}, OpAdd, "added"},
		{UpdateProductCommand{ID: 1, Name: "Widget", Amount: "6"}, OpUpdate, "updated"},
		{DeleteProductCommand{ID: 1}, OpDelete, "deleted"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.op, tt.cmd.Op())
		assert.Equal(t, tt.status, tt.cmd.Status())
	}
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "store_failure", KindStoreFailure.String())
	assert.Equal(t, "unexpected", KindUnexpected.String())
	assert.Equal(t, "ErrorKind(9)", ErrorKind(9).String())
}
