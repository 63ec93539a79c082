package store

import (
	"context"
	"encoding/json"
)

// DocumentStore is a key-path-addressed document store. Paths are composed
// as "<collection>/<key>", e.g. "meetingRooms/<id>". The session argument
// is the caller's opaque store credential and is forwarded on every call;
// backends that authenticate at the connection level may ignore it.
type DocumentStore interface {
	// Get returns the raw document at path, or nil if there is none.
	Get(ctx context.Context, path string, session string) (json.RawMessage, error)
	// GetAll returns every document directly under path, keyed by its
	// storage key. An absent collection yields a nil map, not an error.
	GetAll(ctx context.Context, path string, session string) (map[string]json.RawMessage, error)
	// Set stores value at path, replacing any existing document.
	Set(ctx context.Context, path string, value interface{}, session string) error
	// Update merges the given top-level fields into the document at path.
	// Fields absent from partial keep their stored values.
	Update(ctx context.Context, path string, partial map[string]interface{}, session string) error
	// Remove deletes the document at path. Removing a missing document is
	// not an error.
	Remove(ctx context.Context, path string) error
}
