package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when request validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExternalService is returned when an external model call fails.
	ErrExternalService = errors.New("external service error")
	// ErrVectorStore is returned when the vector store fails. It also matches ErrExternalService.
	ErrVectorStore = fmt.Errorf("vector store: %w", ErrExternalService)
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// externalError tags a collaborator failure with the stage that raised it.
func externalError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", stage, ErrExternalService, err)
}

func vectorStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrVectorStore, err)
}
