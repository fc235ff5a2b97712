// Package capture owns the client-side recording state machine: it
// acquires a microphone stream, accumulates encoded audio chunks, and
// yields a finished AudioCapture together with live loudness feedback.
package capture

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied means microphone access was refused. The
	// recorder stays Idle; the caller may retry.
	ErrPermissionDenied = errors.New("microphone access denied")

	// ErrBusy rejects a second recording while one is active.
	ErrBusy = errors.New("recorder is already recording")

	// ErrNotRecording means Stop was called while Idle.
	ErrNotRecording = errors.New("recorder is not recording")
)

// Analyzer exposes a snapshot of the stream's current frequency-bin
// magnitudes, in the 0..255 range per bin.
type Analyzer interface {
	// FrequencyBins fills dst with the current magnitudes and returns
	// the number of bins written. Zero means no analyzable data yet.
	FrequencyBins(dst []byte) int
}

// Stream is one live microphone acquisition. Chunks carries encoded
// audio until the stream is closed; Close releases the device.
type Stream interface {
	Chunks() <-chan []byte
	Analyzer() Analyzer
	Close() error
}

// Device hands out exclusive microphone streams.
type Device interface {
	Acquire(ctx context.Context) (Stream, error)
}
