package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedSession is one library entry: a completed transcription tied to the
// media it was produced from. Sessions are created by an explicit save action
// and never mutated afterwards.
type SavedSession struct {
	ID        uuid.UUID           `json:"id"`
	Title     string              `json:"title"`
	MediaURL  string              `json:"media_url"`
	Result    TranscriptionResult `json:"result"`
	CreatedAt time.Time           `json:"created_at"`
}
