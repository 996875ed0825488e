package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrCycle           = errors.New("dependency cycle")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInterval = errors.New("invalid interval")
	ErrValidation      = errors.New("validation failed")
)

// CycleError is returned when a dependency would close, or a sort encounters, a cycle.
//
// Chain lists the task ids of the cycle in edge order, with the first id
// repeated at the end.
type CycleError struct {
	Chain []string
}

// NewCycleError creates a new CycleError.
func NewCycleError(chain []string) *CycleError {
	return &CycleError{Chain: chain}
}

func (e *CycleError) Error() string {
	if len(e.Chain) == 0 {
		return "dependency cycle detected"
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Chain, " -> "))
}

// Is matches ErrCycle and any *CycleError.
func (e *CycleError) Is(target error) bool {
	if _, ok := target.(*CycleError); ok {
		return true
	}
	return target == ErrCycle
}

// NotFoundError is returned when an operation references an unknown id.
//
//	err := model.NewNotFoundError("task", "abc123")
//	fmt.Println(err) // "task 'abc123' not found"
type NotFoundError struct {
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is matches ErrNotFound and any *NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return target == ErrNotFound
}

// InvalidIntervalError is returned when an end date precedes its start date.
type InvalidIntervalError struct {
	Subject string // e.g. "task 'a'" or "availability window"
	Start   time.Time
	End     time.Time
}

// NewInvalidIntervalError creates a new InvalidIntervalError.
func NewInvalidIntervalError(subject string, start, end time.Time) *InvalidIntervalError {
	return &InvalidIntervalError{Subject: subject, Start: start, End: end}
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("%s: end %s precedes start %s",
		e.Subject, e.End.Format(time.DateOnly), e.Start.Format(time.DateOnly))
}

// Is matches ErrInvalidInterval and any *InvalidIntervalError.
func (e *InvalidIntervalError) Is(target error) bool {
	if _, ok := target.(*InvalidIntervalError); ok {
		return true
	}
	return target == ErrInvalidInterval
}

// ValidationError reports an input that is malformed but not covered above.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

// Is matches ErrValidation and any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return target == ErrValidation
}

// CheckInterval returns an InvalidIntervalError when end is before start.
func CheckInterval(subject string, start, end time.Time) error {
	if Day(end).Before(Day(start)) {
		return NewInvalidIntervalError(subject, start, end)
	}
	return nil
}
