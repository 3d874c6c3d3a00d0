package domain

import "errors"

var (
	// ErrUnauthenticated means the caller presented no valid identity.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotAMember means the user is not a member of the target project.
	ErrNotAMember = errors.New("not a member of this project")

	// ErrNotFound means the message (or user) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthor means the requester does not own the message.
	ErrNotAuthor = errors.New("not the author of this message")

	// ErrAlreadyDeleted means the message was soft-deleted and cannot be edited.
	ErrAlreadyDeleted = errors.New("cannot edit a deleted message")
)

// ValidationError reports malformed input (empty or oversized content,
// missing identifiers).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
