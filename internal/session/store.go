// Package session persists saved transcription sessions, the library view.
package session

import (
	"errors"

	"github.com/google/uuid"

	"speakerscope/models"
)

// ErrNotFound is returned when a session id has no record.
var ErrNotFound = errors.New("session not found")

// Store holds the ordered collection of saved sessions. Implementations
// perform each mutation as an atomic read-modify-write of the whole
// collection so a partial write can never be observed.
type Store interface {
	List() ([]models.SavedSession, error)
	Get(id uuid.UUID) (*models.SavedSession, error)
	Append(s models.SavedSession) error
	Delete(id uuid.UUID) error
}
