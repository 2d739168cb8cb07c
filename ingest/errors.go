package ingest

import (
	"errors"
	"fmt"
	"sort"
	"vinylcat/models"
)

// The failure taxonomy callers are expected to branch on. Validation and
// conflict failures carry structure so the caller can correct the input;
// upstream and persistence failures are opaque and retriable. Cover fetch
// failures never surface here at all - they degrade to "no cover".
var (
	// ErrUpstreamUnavailable - the metadata provider could not be reached
	// or answered with an error. Nothing was persisted.
	ErrUpstreamUnavailable = errors.New("upstream metadata provider unavailable")
	// ErrNotFound - an entity or external id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPersistence - unexpected storage failure during the release write.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError maps field names to messages. It is never produced after
// a partial write of the release aggregate.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed on %v", names)
}

// ConflictError - the requesting user already owns a release with this
// barcode. The existing release is included so the caller can show it.
type ConflictError struct {
	Existing models.Release
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("release %q (id %d) already in collection with this barcode", e.Existing.Title, e.Existing.ID)
}
