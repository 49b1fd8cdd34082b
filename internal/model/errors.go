package model

import "errors"

var (
	// ErrTaskNotFound is returned when no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskArchived is returned when an update targets an archived task.
	ErrTaskArchived = errors.New("cannot update archived task")

	// ErrTaskAlreadyArchived is returned when archiving a task twice.
	ErrTaskAlreadyArchived = errors.New("task already archived")

	// ErrInvalidStatus is returned for an unknown status name.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidPriority is returned for an unknown priority name or rank.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidContext is returned for an unknown context name.
	ErrInvalidContext = errors.New("invalid context")

	// ErrInvalidCursor is returned for undecodable or mismatched cursors.
	ErrInvalidCursor = errors.New("invalid cursor")
)
