package txn

import (
	"errors"
	"fmt"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrConflict          ErrCode = "CONFLICT"
	ErrInsufficientFunds ErrCode = "INSUFFICIENT_FUNDS"
	ErrGone              ErrCode = "GONE"
	ErrInvalidInput      ErrCode = "INVALID_INPUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// OwnedBooksError rejects an offer acceptance and names the books the user
// already owns so the caller can report them.
type OwnedBooksError struct{ BookIDs []int64 }

func (e *OwnedBooksError) Error() string {
	return fmt.Sprintf("already owned books in offer: %v", e.BookIDs)
}

func (e *OwnedBooksError) Code() ErrCode { return ErrConflict }

// OwnedIDs returns the conflicting book ids carried by err, if any.
func OwnedIDs(err error) []int64 {
	var oe *OwnedBooksError
	if errors.As(err, &oe) {
		return oe.BookIDs
	}
	return nil
}
