// Package businessflow contains the core business logic and use cases for counter workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Lookup errors
	ErrCounterNotFound = errors.New("counter not found")
	ErrGaugeNotFound   = errors.New("gauge not found")

	// Creation errors
	ErrCounterAlreadyExists = errors.New("counter already exists")
	ErrGaugeAlreadyExists   = errors.New("gauge already exists")
	ErrInvalidNanoID        = errors.New("invalid public identifier")

	// Mutation errors
	ErrValueOutOfRange = errors.New("increment would drive the counter below zero")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsCounterNotFound(err error) bool {
	return errors.Is(err, ErrCounterNotFound)
}

func IsGaugeNotFound(err error) bool {
	return errors.Is(err, ErrGaugeNotFound)
}

func IsNotFound(err error) bool {
	return IsCounterNotFound(err) || IsGaugeNotFound(err)
}

func IsCounterAlreadyExists(err error) bool {
	return errors.Is(err, ErrCounterAlreadyExists)
}

func IsGaugeAlreadyExists(err error) bool {
	return errors.Is(err, ErrGaugeAlreadyExists)
}

func IsDuplicateKey(err error) bool {
	return IsCounterAlreadyExists(err) || IsGaugeAlreadyExists(err)
}

func IsInvalidNanoID(err error) bool {
	return errors.Is(err, ErrInvalidNanoID)
}

func IsValueOutOfRange(err error) bool {
	return errors.Is(err, ErrValueOutOfRange)
}

func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
