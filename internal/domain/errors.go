package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure of a product operation.
type ErrorKind int

const (
	// KindUnexpected is the zero value so that an unclassified error never
	// passes for a client fault.
	KindUnexpected ErrorKind = iota
	KindValidation
	KindNotFound
	KindStoreFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStoreFailure:
		return "store_failure"
	case KindUnexpected:
		return "unexpected"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Op names the operation that failed.
type Op string

const (
	OpQuery  Op = "query"
	OpSearch Op = "search"
	OpGet    Op = "get"
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ProductError is the single error type returned by the query factory and
// the product use case.
type ProductError struct {
	Op      Op
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ProductError) Error() string {
	return e.Message
}

func (e *ProductError) Unwrap() error {
	return e.Err
}

func Validationf(op Op, format string, args ...interface{}) *ProductError {
	return &ProductError{Op: op, Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op Op, id int64) *ProductError {
	return &ProductError{Op: op, Kind: KindNotFound, Message: fmt.Sprintf("product %d not found", id), Err: ErrProductNotFound}
}

// StoreFailure wraps an error coming from the product store.
func StoreFailure(op Op, err error) *ProductError {
	msg := "could not " + string(op) + " product"
	if op == OpSearch {
		msg = "could not search products"
	}
	if errors.Is(err, ErrConstraintViolation) {
		msg += ": " + ErrConstraintViolation.Error()
	}
	return &ProductError{Op: op, Kind: KindStoreFailure, Message: msg, Err: err}
}

func Unexpected(op Op, err error) *ProductError {
	msg := "unexpected error"
	if err != nil {
		msg += ": " + err.Error()
	}
	return &ProductError{Op: op, Kind: KindUnexpected, Message: msg, Err: err}
}

// KindOf reports the kind of err. Errors that are not a *ProductError are
// unexpected.
func KindOf(err error) ErrorKind {
	var pe *ProductError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnexpected
}
