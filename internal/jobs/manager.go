// Package jobs runs transcription pipelines: upload, submit, poll, publish.
// A bounded worker pool limits how many jobs talk to the remote service at
// once; every job gets an explicit cancel handle so an abandoned submission
// never leaves a loop polling in the background.
package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"speakerscope/internal/media"
	"speakerscope/internal/poller"
	"speakerscope/internal/transcript"
	"speakerscope/models"
)

// ErrAPIKeyRequired is returned when neither the caller nor the configuration
// provides a credential. Checked before any network call.
var ErrAPIKeyRequired = errors.New("API key required")

// ErrQueueFull is returned when the submission queue cannot accept more work.
var ErrQueueFull = errors.New("transcription queue is full")

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// Client is the slice of the transcription service the pipeline needs.
type Client interface {
	Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
	Submit(ctx context.Context, audioURL string, expectedSpeakers int) (string, error)
	GetTranscript(ctx context.Context, jobID string) (*models.TranscriptionResult, error)
}

// ClientFactory builds a Client for a given credential, so a user-entered key
// can override the configured default per job.
type ClientFactory func(apiKey string) Client

// Event is one progress or state-change notification for a job.
type Event struct {
	JobID    string          `json:"job_id"`
	State    models.JobState `json:"state"`
	Progress float64         `json:"progress"`
	Message  string          `json:"message,omitempty"`
}

// Notifier receives job events; wired to the websocket hub in main.
type Notifier func(Event)

// Options configures a Manager.
type Options struct {
	Logger          *logrus.Logger
	NewClient       ClientFactory
	DefaultAPIKey   string
	PollInterval    time.Duration
	PollMaxAttempts int
	Workers         int
}

type job struct {
	record    models.TranscriptionJob
	selection *transcript.Selection
	cancel    context.CancelFunc
}

type work struct {
	job       *job
	ctx       context.Context
	apiKey    string
	speakers  int
	mediaData []byte
	filename  string
	mediaType string
	mediaURL  string
}

// Manager owns all job records and the worker pool that drives them.
type Manager struct {
	log             *logrus.Logger
	newClient       ClientFactory
	defaultAPIKey   string
	pollInterval    time.Duration
	pollMaxAttempts int
	workers         int

	mu     sync.RWMutex
	jobs   map[uuid.UUID]*job
	notify Notifier

	queue chan *work
	quit  chan struct{}
	wg    sync.WaitGroup
}

// NewManager creates a Manager; call Start before submitting.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = poller.DefaultInterval
	}
	if opts.PollMaxAttempts <= 0 {
		opts.PollMaxAttempts = poller.DefaultMaxAttempts
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Manager{
		log:             opts.Logger,
		newClient:       opts.NewClient,
		defaultAPIKey:   opts.DefaultAPIKey,
		pollInterval:    opts.PollInterval,
		pollMaxAttempts: opts.PollMaxAttempts,
		workers:         opts.Workers,
		jobs:            make(map[uuid.UUID]*job),
		queue:           make(chan *work, 32),
		quit:            make(chan struct{}),
	}
}

// SetNotifier registers the event sink. Must be called before Start.
func (m *Manager) SetNotifier(n Notifier) {
	m.notify = n
}

// Start launches the worker pool.
func (m *Manager) Start() {
	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go func(id int) {
			defer m.wg.Done()
			for {
				select {
				case w := <-m.queue:
					m.run(w)
				case <-m.quit:
					return
				}
			}
		}(i)
	}
	m.log.Infof("Job manager started with %d workers", m.workers)
}

// Stop cancels all running jobs and waits for the workers to exit.
func (m *Manager) Stop() {
	close(m.quit)

	m.mu.Lock()
	for _, j := range m.jobs {
		if j.cancel != nil && !j.record.State.Terminal() {
			j.cancel()
		}
	}
	m.mu.Unlock()

	m.wg.Wait()
	m.log.Info("Job manager stopped")
}

// SubmitUpload queues a transcription of raw media bytes. Returns the job id
// immediately; progress is reported through Get and the notifier.
func (m *Manager) SubmitUpload(data []byte, filename, contentType, apiKey string, expectedSpeakers int) (uuid.UUID, error) {
	return m.enqueue(&work{
		mediaData: data,
		filename:  filename,
		mediaType: contentType,
	}, apiKey, expectedSpeakers, "")
}

// SubmitURL queues a transcription of media already reachable at a URL. No
// upload step is needed; the URL is handed to the service directly.
func (m *Manager) SubmitURL(mediaURL, apiKey string, expectedSpeakers int) (uuid.UUID, error) {
	return m.enqueue(&work{mediaURL: mediaURL}, apiKey, expectedSpeakers, mediaURL)
}

// SubmitFile queues a transcription of a local file, used by the drop-folder
// watcher. WAV files are probed for metadata before upload.
func (m *Manager) SubmitFile(path string) (uuid.UUID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return uuid.Nil, fmt.Errorf("read media file: %w", err)
	}

	if info, err := media.ProbeWAV(path); err == nil {
		m.log.WithFields(logrus.Fields{
			"file":        filepath.Base(path),
			"duration":    info.Duration.String(),
			"sample_rate": info.SampleRate,
			"channels":    info.Channels,
		}).Info("Probed WAV media")
	}

	return m.enqueue(&work{
		mediaData: data,
		filename:  filepath.Base(path),
		mediaType: media.TypeByName(path),
	}, "", 0, "")
}

func (m *Manager) enqueue(w *work, apiKey string, expectedSpeakers int, mediaURL string) (uuid.UUID, error) {
	if apiKey == "" {
		apiKey = m.defaultAPIKey
	}
	if apiKey == "" {
		return uuid.Nil, ErrAPIKeyRequired
	}

	now := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		record: models.TranscriptionJob{
			ID:        uuid.New(),
			State:     models.JobQueued,
			MediaURL:  mediaURL,
			CreatedAt: now,
			UpdatedAt: now,
		},
		cancel: cancel,
	}
	w.job = j
	w.ctx = ctx
	w.apiKey = apiKey
	w.speakers = expectedSpeakers

	m.mu.Lock()
	m.jobs[j.record.ID] = j
	m.mu.Unlock()

	select {
	case m.queue <- w:
	default:
		cancel()
		m.setFailure(j, models.JobFailed, ErrQueueFull.Error())
		return uuid.Nil, ErrQueueFull
	}

	m.publish(j)
	return j.record.ID, nil
}

// run drives one job through upload, submission, and the poll loop.
func (m *Manager) run(w *work) {
	j := w.job
	client := m.newClient(w.apiKey)
	log := m.log.WithField("job_id", j.record.ID.String())

	m.transition(j, models.JobSubmitting, 10)

	audioURL := w.mediaURL
	if audioURL == "" {
		url, err := client.Upload(w.ctx, bytes.NewReader(w.mediaData), w.filename, w.mediaType)
		if err != nil {
			m.finishWithError(j, w.ctx, err)
			return
		}
		audioURL = url
		log.WithField("upload_url", url).Info("Media uploaded")
		m.transition(j, models.JobSubmitting, 20)
	}

	remoteID, err := client.Submit(w.ctx, audioURL, w.speakers)
	if err != nil {
		m.finishWithError(j, w.ctx, err)
		return
	}
	log.WithField("transcript_id", remoteID).Info("Transcription submitted")
	m.transition(j, models.JobPolling, 40)

	p := poller.New(client)
	p.Interval = m.pollInterval
	p.MaxAttempts = m.pollMaxAttempts
	p.OnProgress = func(percent float64) {
		m.setProgress(j, percent)
	}

	result, err := p.Wait(w.ctx, remoteID)
	if err != nil {
		m.finishWithError(j, w.ctx, err)
		return
	}

	m.complete(j, result)
	log.Info("Transcription completed")
}

func (m *Manager) complete(j *job, result *models.TranscriptionResult) {
	m.mu.Lock()
	j.record.Result = result
	j.record.State = models.JobCompleted
	j.record.Progress = 100
	j.record.UpdatedAt = time.Now()
	// All speakers enabled by default on arrival.
	j.selection = transcript.NewSelectionFromResult(result)
	m.mu.Unlock()
	m.publish(j)
}

func (m *Manager) finishWithError(j *job, ctx context.Context, err error) {
	var timedOut *poller.TimedOutError
	switch {
	case ctx.Err() != nil:
		m.setFailure(j, models.JobCancelled, "transcription cancelled")
	case errors.As(err, &timedOut):
		m.setFailure(j, models.JobTimedOut, err.Error())
	default:
		m.setFailure(j, models.JobFailed, err.Error())
	}
	m.log.WithField("job_id", j.record.ID.String()).Warnf("Transcription did not complete: %v", err)
}

func (m *Manager) setFailure(j *job, state models.JobState, message string) {
	m.mu.Lock()
	j.record.State = state
	j.record.ErrorMessage = &message
	j.record.UpdatedAt = time.Now()
	m.mu.Unlock()
	m.publish(j)
}

func (m *Manager) transition(j *job, state models.JobState, progress float64) {
	m.mu.Lock()
	j.record.State = state
	if progress > j.record.Progress {
		j.record.Progress = progress
	}
	j.record.UpdatedAt = time.Now()
	m.mu.Unlock()
	m.publish(j)
}

func (m *Manager) setProgress(j *job, percent float64) {
	m.mu.Lock()
	if percent > j.record.Progress {
		j.record.Progress = percent
	}
	j.record.UpdatedAt = time.Now()
	m.mu.Unlock()
	m.publish(j)
}

func (m *Manager) publish(j *job) {
	if m.notify == nil {
		return
	}
	m.mu.RLock()
	ev := Event{
		JobID:    j.record.ID.String(),
		State:    j.record.State,
		Progress: j.record.Progress,
	}
	if j.record.ErrorMessage != nil {
		ev.Message = *j.record.ErrorMessage
	}
	m.mu.RUnlock()
	m.notify(ev)
}

// Get returns a snapshot of the job.
func (m *Manager) Get(id uuid.UUID) (models.TranscriptionJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return models.TranscriptionJob{}, false
	}
	return j.record, true
}

// Selection returns the job's speaker selection, present once the job has
// completed.
func (m *Manager) Selection(id uuid.UUID) (*transcript.Selection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok || j.selection == nil {
		return nil, false
	}
	return j.selection, true
}

// Cancel stops a running job. Cancelling an already-terminal job is an error.
func (m *Manager) Cancel(id uuid.UUID) error {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return ErrJobNotFound
	}
	if j.record.State.Terminal() {
		m.mu.Unlock()
		return fmt.Errorf("job %s already %s", id, j.record.State)
	}
	cancel := j.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// Restore materializes a completed job from a saved session, with the
// speaker selection re-initialized to every speaker in the transcript.
func (m *Manager) Restore(result *models.TranscriptionResult, mediaURL string) uuid.UUID {
	now := time.Now()
	j := &job{
		record: models.TranscriptionJob{
			ID:        uuid.New(),
			State:     models.JobCompleted,
			Progress:  100,
			MediaURL:  mediaURL,
			Result:    result,
			CreatedAt: now,
			UpdatedAt: now,
		},
		selection: transcript.NewSelectionFromResult(result),
	}

	m.mu.Lock()
	m.jobs[j.record.ID] = j
	m.mu.Unlock()
	return j.record.ID
}
