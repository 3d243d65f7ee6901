package store

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a storage key does not resolve to a record.
	ErrNotFound = errors.New("conversation not found")

	// ErrInvalidReference is returned for storage keys that are malformed or
	// would escape the store root. No filesystem access happens for such keys.
	ErrInvalidReference = errors.New("invalid storage key")

	// ErrEmptyConversation is returned when a record without messages is
	// submitted for persistence.
	ErrEmptyConversation = errors.New("conversation has no messages")

	// ErrInvalidName is returned when a rename target is empty after trimming.
	ErrInvalidName = errors.New("empty conversation name")

	// ErrStorage wraps I/O failures that are not a missing record, so callers
	// can tell a broken disk apart from a bad reference.
	ErrStorage = errors.New("storage failure")
)
