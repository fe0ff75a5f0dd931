package store

import "context"

// notFoundError is returned when a key has no value. Callers treat it
// as "not set", never as fatal.
type notFoundError struct{ key string }

func (e *notFoundError) Error() string { return "no value for key " + e.key }

// IsNotFound reports whether err means the key was absent.
func IsNotFound(err error) bool {
	_, ok := err.(*notFoundError)
	return ok
}

// Store is a durable key-value store for the client's local records.
// The serialized active Session is the only shared durable resource;
// exactly one owner (the session manager) writes it.
type Store interface {
	// Get returns the value for key, or an error satisfying IsNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the value for key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}
