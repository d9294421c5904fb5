package inventory

import (
	"errors"

	inventoryRepo "inventory.GO/model/repository/inventory"
)

var (
	// ErrNotFound is returned when the referenced item does not exist.
	ErrNotFound = inventoryRepo.ErrNotFound
	// ErrConflict is returned when a barcode or QR code is already taken by another item.
	ErrConflict = errors.New("inventory item conflict")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError names the unique column that collided.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return e.Field + " " + e.Value + " already exists"
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
