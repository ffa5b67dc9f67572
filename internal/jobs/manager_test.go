package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"speakerscope/internal/assemblyai"
	"speakerscope/models"
)

// fakeClient scripts the remote service: a fixed upload URL, a fixed remote
// id, and a status sequence consumed one call at a time.
type fakeClient struct {
	mu       sync.Mutex
	uploads  int
	submits  int
	statuses []func() (*models.TranscriptionResult, error)
	calls    int
}

func (c *fakeClient) Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploads++
	return "https://cdn.example/u/1", nil
}

func (c *fakeClient) Submit(ctx context.Context, audioURL string, expectedSpeakers int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submits++
	return "remote-1", nil
}

func (c *fakeClient) GetTranscript(ctx context.Context, jobID string) (*models.TranscriptionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	if i >= len(c.statuses) {
		i = len(c.statuses) - 1
	}
	c.calls++
	return c.statuses[i]()
}

func processingStatus() func() (*models.TranscriptionResult, error) {
	return func() (*models.TranscriptionResult, error) {
		return &models.TranscriptionResult{ID: "remote-1", Status: models.StatusProcessing}, nil
	}
}

func completedStatus() func() (*models.TranscriptionResult, error) {
	return func() (*models.TranscriptionResult, error) {
		return &models.TranscriptionResult{
			ID:     "remote-1",
			Status: models.StatusCompleted,
			Text:   "hello hi",
			Utterances: []models.TranscriptUtterance{
				{Speaker: "A", Start: 0, End: 1000, Text: "hello"},
				{Speaker: "B", Start: 1000, End: 2000, Text: "hi"},
			},
		}, nil
	}
}

func newTestManager(t *testing.T, client Client) *Manager {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	m := NewManager(Options{
		Logger:          log,
		NewClient:       func(apiKey string) Client { return client },
		DefaultAPIKey:   "default-key",
		PollInterval:    time.Millisecond,
		PollMaxAttempts: 10,
		Workers:         2,
	})
	m.Start()
	t.Cleanup(m.Stop)
	return m
}

func waitTerminal(t *testing.T, m *Manager, id uuid.UUID) models.TranscriptionJob {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s never reached a terminal state", id)
		case <-time.After(2 * time.Millisecond):
		}
		if snap, ok := m.Get(id); ok && snap.State.Terminal() {
			return snap
		}
	}
}

func TestSubmitUpload_RunsFullPipeline(t *testing.T) {
	client := &fakeClient{statuses: []func() (*models.TranscriptionResult, error){
		processingStatus(),
		processingStatus(),
		completedStatus(),
	}}
	m := newTestManager(t, client)

	id, err := m.SubmitUpload([]byte("fake-bytes"), "call.mp3", "audio/mpeg", "", 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap := waitTerminal(t, m, id)
	if snap.State != models.JobCompleted {
		t.Fatalf("state = %s, want completed", snap.State)
	}
	if snap.Progress != 100 {
		t.Errorf("progress = %v, want 100", snap.Progress)
	}
	if snap.Result == nil || snap.Result.Text != "hello hi" {
		t.Errorf("result not stored: %+v", snap.Result)
	}
	if client.uploads != 1 || client.submits != 1 {
		t.Errorf("uploads=%d submits=%d, want 1 each", client.uploads, client.submits)
	}

	// Selection initialized to all speakers on arrival.
	sel, ok := m.Selection(id)
	if !ok {
		t.Fatal("expected selection after completion")
	}
	if !sel.Enabled("A") || !sel.Enabled("B") {
		t.Error("selection should enable every speaker by default")
	}
}

func TestSubmitURL_SkipsUpload(t *testing.T) {
	client := &fakeClient{statuses: []func() (*models.TranscriptionResult, error){completedStatus()}}
	m := newTestManager(t, client)

	id, err := m.SubmitURL("https://media.example/pod.mp3", "user-key", 3)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap := waitTerminal(t, m, id)
	if snap.State != models.JobCompleted {
		t.Fatalf("state = %s, want completed", snap.State)
	}
	if client.uploads != 0 {
		t.Errorf("uploads = %d, want 0 for URL submission", client.uploads)
	}
	if snap.MediaURL != "https://media.example/pod.mp3" {
		t.Errorf("media url = %q", snap.MediaURL)
	}
}

func TestSubmit_RequiresAPIKey(t *testing.T) {
	client := &fakeClient{statuses: []func() (*models.TranscriptionResult, error){completedStatus()}}
	log := logrus.New()
	log.SetOutput(io.Discard)
	m := NewManager(Options{
		Logger:    log,
		NewClient: func(apiKey string) Client { return client },
		// No default key configured.
	})
	m.Start()
	t.Cleanup(m.Stop)

	_, err := m.SubmitURL("https://media.example/pod.mp3", "", 2)
	if !errors.Is(err, ErrAPIKeyRequired) {
		t.Fatalf("expected ErrAPIKeyRequired, got %v", err)
	}
	if client.submits != 0 {
		t.Error("no network call may happen before the credential check")
	}
}

func TestJobFailure_CarriesRemoteMessage(t *testing.T) {
	client := &fakeClient{statuses: []func() (*models.TranscriptionResult, error){
		func() (*models.TranscriptionResult, error) {
			return nil, &assemblyai.TranscriptionFailedError{Message: "bad audio"}
		},
	}}
	m := newTestManager(t, client)

	id, err := m.SubmitURL("https://media.example/pod.mp3", "", 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap := waitTerminal(t, m, id)
	if snap.State != models.JobFailed {
		t.Fatalf("state = %s, want failed", snap.State)
	}
	if snap.ErrorMessage == nil || *snap.ErrorMessage != "transcription failed: bad audio" {
		t.Errorf("error message = %v", snap.ErrorMessage)
	}
}

func TestJobTimeout(t *testing.T) {
	client := &fakeClient{statuses: []func() (*models.TranscriptionResult, error){processingStatus()}}
	log := logrus.New()
	log.SetOutput(io.Discard)
	m := NewManager(Options{
		Logger:          log,
		NewClient:       func(apiKey string) Client { return client },
		DefaultAPIKey:   "k",
		PollInterval:    time.Millisecond,
		PollMaxAttempts: 3,
		Workers:         1,
	})
	m.Start()
	t.Cleanup(m.Stop)

	id, _ := m.SubmitURL("https://media.example/pod.mp3", "", 2)
	snap := waitTerminal(t, m, id)
	if snap.State != models.JobTimedOut {
		t.Fatalf("state = %s, want timed_out", snap.State)
	}
	if snap.ErrorMessage == nil || *snap.ErrorMessage != "transcription timed out" {
		t.Errorf("error message = %v", snap.ErrorMessage)
	}
	if snap.Progress >= 100 {
		t.Errorf("progress = %v on a timed-out job", snap.Progress)
	}
}

func TestCancel_StopsPolling(t *testing.T) {
	client := &fakeClient{statuses: []func() (*models.TranscriptionResult, error){processingStatus()}}
	log := logrus.New()
	log.SetOutput(io.Discard)
	m := NewManager(Options{
		Logger:          log,
		NewClient:       func(apiKey string) Client { return client },
		DefaultAPIKey:   "k",
		PollInterval:    50 * time.Millisecond,
		PollMaxAttempts: 1000,
		Workers:         1,
	})
	m.Start()
	t.Cleanup(m.Stop)

	id, _ := m.SubmitURL("https://media.example/pod.mp3", "", 2)

	// Let the pipeline reach polling, then cancel.
	time.Sleep(20 * time.Millisecond)
	if err := m.Cancel(id); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	snap := waitTerminal(t, m, id)
	if snap.State != models.JobCancelled {
		t.Fatalf("state = %s, want cancelled", snap.State)
	}

	if err := m.Cancel(id); err == nil {
		t.Error("cancelling a terminal job should error")
	}
}

func TestCancel_UnknownJob(t *testing.T) {
	client := &fakeClient{statuses: []func() (*models.TranscriptionResult, error){completedStatus()}}
	m := newTestManager(t, client)

	if err := m.Cancel(uuid.New()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestRestore_ReinitializesSelection(t *testing.T) {
	client := &fakeClient{statuses: []func() (*models.TranscriptionResult, error){completedStatus()}}
	m := newTestManager(t, client)

	result := &models.TranscriptionResult{
		ID:     "remote-7",
		Status: models.StatusCompleted,
		Text:   "three voices",
		Utterances: []models.TranscriptUtterance{
			{Speaker: "A"}, {Speaker: "B"}, {Speaker: "C"},
		},
	}

	id := m.Restore(result, "https://media.example/old.mp3")

	snap, ok := m.Get(id)
	if !ok || snap.State != models.JobCompleted || snap.Progress != 100 {
		t.Fatalf("restored snapshot = %+v", snap)
	}
	if snap.Result.Text != "three voices" {
		t.Errorf("restored text = %q", snap.Result.Text)
	}

	sel, ok := m.Selection(id)
	if !ok {
		t.Fatal("expected selection on restored job")
	}
	for _, label := range []string{"A", "B", "C"} {
		if !sel.Enabled(label) {
			t.Errorf("speaker %s should be re-enabled on restore", label)
		}
	}
}

func TestEvents_ProgressMonotonic(t *testing.T) {
	client := &fakeClient{statuses: []func() (*models.TranscriptionResult, error){
		processingStatus(),
		processingStatus(),
		completedStatus(),
	}}

	log := logrus.New()
	log.SetOutput(io.Discard)
	m := NewManager(Options{
		Logger:          log,
		NewClient:       func(apiKey string) Client { return client },
		DefaultAPIKey:   "k",
		PollInterval:    time.Millisecond,
		PollMaxAttempts: 10,
		Workers:         1,
	})

	var mu sync.Mutex
	var progress []float64
	m.SetNotifier(func(ev Event) {
		mu.Lock()
		progress = append(progress, ev.Progress)
		mu.Unlock()
	})
	m.Start()
	t.Cleanup(m.Stop)

	id, _ := m.SubmitUpload([]byte("x"), "a.wav", "", "", 2)
	waitTerminal(t, m, id)
	// The terminal event is published just after the record turns terminal.
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress decreased: %v", progress)
		}
	}
	if progress[len(progress)-1] != 100 {
		t.Errorf("final progress = %v, want 100", progress[len(progress)-1])
	}
}
