package entity

import "errors"

// Stage and store failures are distinguished so callers can tell a
// setup problem from a transient one and show the right prompt.
var (
	// ErrUnauthorized means no authenticated identity reached the
	// pipeline; nothing downstream has been touched.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTranscriptionFailed wraps a speech-to-text provider failure.
	// The provider's own message is preserved by wrapping.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrExtractionFailed means the language-model response could not
	// be interpreted as JSON at all. A well-formed response with
	// missing fields is not an error.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrNotConfigured means the backing store's connection parameters
	// are absent or placeholder values were left in place.
	ErrNotConfigured = errors.New("note store is not configured")

	// ErrPersistenceFailed is any store-level error with configuration
	// present.
	ErrPersistenceFailed = errors.New("failed to persist note")
)
