package models

import "errors"

// Error taxonomy shared by the tracker, services and handlers.
//
// Lower layers wrap these with fmt.Errorf("...: %w", err) so that callers can match them
// with errors.Is regardless of how much context was added on the way up.
var (
	// ErrNotFound is returned for an unknown user, course, chapter, enrollment or notification.
	ErrNotFound = errors.New("not found")
	// ErrInvalidChapter is returned when a chapter is not a member of the course.
	ErrInvalidChapter = errors.New("chapter does not belong to course")
	// ErrPrecondition is returned when a locked chapter is attempted or a state change is not allowed.
	ErrPrecondition = errors.New("precondition failed")
	// ErrTransientNetwork is returned when the external persistence call fails; callers may retry.
	ErrTransientNetwork = errors.New("backend unavailable")
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned for bad credentials.
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("already exists")
)
