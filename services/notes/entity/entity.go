package entity

import "time"

const MediaTypeWebM = "audio/webm"

type (
	// AudioCapture is one finished recording, consumed whole by the
	// pipeline and never mutated after it leaves the recorder.
	AudioCapture struct {
		Data            []byte
		MediaType       string
		DurationSeconds int
	}

	// StructuredExtraction is the three-field derived content parsed
	// from the language-model response. Missing fields default to
	// empty; absence is not an error.
	StructuredExtraction struct {
		Summary     string   `json:"summary"`
		KeyPoints   []string `json:"key_points"`
		ActionItems []string `json:"action_items"`
	}

	// Note is a draft while ID and CreatedAt are zero, and persisted
	// once the store has assigned them. Persisted notes are immutable.
	Note struct {
		ID            string    `json:"id,omitempty"`
		UserID        string    `json:"user_id,omitempty"`
		Transcription string    `json:"transcription"`
		Summary       string    `json:"summary"`
		KeyPoints     []string  `json:"key_points"`
		ActionItems   []string  `json:"action_items"`
		AudioURL      string    `json:"audio_url,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
	}
)

// Persisted reports whether the note has been through the store.
func (n *Note) Persisted() bool {
	return n.ID != ""
}
