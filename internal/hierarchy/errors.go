package hierarchy

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	// ErrNotFound reports an id that does not resolve in its scope.
	ErrNotFound = errors.New("not found")

	// ErrValidation reports rejected input. Nothing was changed.
	ErrValidation = errors.New("invalid input")

	// ErrPersistence reports a failed load, save, encode or decode. When
	// returned from a mutation, the in-memory change has been applied.
	ErrPersistence = errors.New("persistence failed")
)

var (
	errTitleRequired   = fmt.Errorf("%w: title is required", ErrValidation)
	errIntervalInvalid = fmt.Errorf("%w: recurring interval must be >= 1", ErrValidation)
)

func projectNotFound(id string) error {
	return fmt.Errorf("project %s: %w", id, ErrNotFound)
}

func missionNotFound(id string) error {
	return fmt.Errorf("mission %s: %w", id, ErrNotFound)
}

func dailyMissionNotFound(id string) error {
	return fmt.Errorf("daily mission %s: %w", id, ErrNotFound)
}
