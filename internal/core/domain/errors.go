package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrSegmentValidation    = errors.New("segment validation failed")
	ErrOracleFailure        = errors.New("oracle failure")
	ErrResourceExhausted    = errors.New("resource exhausted")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
