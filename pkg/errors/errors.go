package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Trading-engine errors

var (
	// ErrInvalidOrder indicates a create-order request failed validation
	ErrInvalidOrder = errors.New("invalid order")

	// ErrNoPrice indicates no usable price exists for a symbol
	ErrNoPrice = errors.New("no price for symbol")

	// ErrInsufficientBalance indicates insufficient collateral balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrPositionNotFound indicates position not found in the book
	ErrPositionNotFound = errors.New("position not found")

	// ErrDuplicateOrder indicates an order id already exists in the book
	ErrDuplicateOrder = errors.New("duplicate order id")

	// ErrMalformedCommand indicates a stream entry could not be decoded
	ErrMalformedCommand = errors.New("malformed command")
)

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
