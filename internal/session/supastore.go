package session

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	supa "github.com/supabase-community/supabase-go"

	"speakerscope/models"
)

const sessionsTable = "saved_sessions"

// SupabaseStore persists saved sessions to a Supabase table, for deployments
// where the library should outlive the server's local disk.
type SupabaseStore struct {
	client *supa.Client
}

// NewSupabaseStore wraps an initialized Supabase client.
func NewSupabaseStore(client *supa.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

// List returns all saved sessions ordered by creation time.
func (s *SupabaseStore) List() ([]models.SavedSession, error) {
	body, _, err := s.client.From(sessionsTable).
		Select("*", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var sessions []models.SavedSession
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

// Get returns the session with the given id.
func (s *SupabaseStore) Get(id uuid.UUID) (*models.SavedSession, error) {
	body, _, err := s.client.From(sessionsTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("fetch session %s: %w", id, err)
	}

	var sessions []models.SavedSession
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if len(sessions) == 0 {
		return nil, ErrNotFound
	}
	return &sessions[0], nil
}

// Append inserts a new session row.
func (s *SupabaseStore) Append(session models.SavedSession) error {
	_, _, err := s.client.From(sessionsTable).
		Insert(session, false, "", "representation", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert session %s: %w", session.ID, err)
	}
	return nil
}

// Delete removes the session with the given id.
func (s *SupabaseStore) Delete(id uuid.UUID) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	_, _, err := s.client.From(sessionsTable).
		Delete("", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
