package session

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"speakerscope/models"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "library", "sessions.json"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func sampleSession(title string) models.SavedSession {
	return models.SavedSession{
		ID:       uuid.New(),
		Title:    title,
		MediaURL: "https://media.example/clip.mp3",
		Result: models.TranscriptionResult{
			ID:     "job-1",
			Status: models.StatusCompleted,
			Text:   "hello there",
			Utterances: []models.TranscriptUtterance{
				{
					Speaker: "A", Start: 0, End: 1200, Text: "hello there",
					Words: []models.TranscriptWord{
						{Text: "hello", Start: 0, End: 600, Confidence: 0.98, Speaker: "A"},
						{Text: "there", Start: 600, End: 1200, Confidence: 0.95, Speaker: "A"},
					},
				},
				{Speaker: "B", Start: 1200, End: 2000, Text: "hi"},
			},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestFileStore_EmptyList(t *testing.T) {
	store := newTestStore(t)
	sessions, err := store.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected empty library, got %d sessions", len(sessions))
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	saved := sampleSession("T1")

	if err := store.Append(saved); err != nil {
		t.Fatalf("append: %v", err)
	}

	loaded, err := store.Get(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Title != "T1" {
		t.Errorf("title = %q, want T1", loaded.Title)
	}
	if loaded.Result.Text != saved.Result.Text {
		t.Errorf("text = %q, want %q", loaded.Result.Text, saved.Result.Text)
	}
	if len(loaded.Result.Utterances) != 2 {
		t.Fatalf("utterances = %d, want 2", len(loaded.Result.Utterances))
	}
	if loaded.Result.Utterances[0].Words[1].Text != "there" {
		t.Errorf("word timings not preserved: %+v", loaded.Result.Utterances[0].Words)
	}
	if got := loaded.Result.Speakers(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("speakers = %v, want [A B]", got)
	}
}

func TestFileStore_AppendKeepsOrder(t *testing.T) {
	store := newTestStore(t)
	first := sampleSession("first")
	second := sampleSession("second")

	if err := store.Append(first); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(second); err != nil {
		t.Fatalf("append: %v", err)
	}

	sessions, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 || sessions[0].Title != "first" || sessions[1].Title != "second" {
		t.Errorf("unexpected order: %+v", sessions)
	}
}

func TestFileStore_Delete(t *testing.T) {
	store := newTestStore(t)
	keep := sampleSession("keep")
	drop := sampleSession("drop")
	_ = store.Append(keep)
	_ = store.Append(drop)

	if err := store.Delete(drop.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := store.Get(drop.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	sessions, _ := store.List()
	if len(sessions) != 1 || sessions[0].Title != "keep" {
		t.Errorf("unexpected remaining sessions: %+v", sessions)
	}

	if err := store.Delete(drop.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing id, got %v", err)
	}
}
