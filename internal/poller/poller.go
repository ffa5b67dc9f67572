// Package poller implements the status poll loop for an asynchronous
// transcription job: check on a fixed interval until the job completes,
// fails, or an attempt ceiling is reached.
package poller

import (
	"context"
	"time"

	"speakerscope/models"
)

const (
	// DefaultInterval matches the 5-second check cadence of the service UI.
	DefaultInterval = 5 * time.Second
	// DefaultMaxAttempts bounds polling to roughly five minutes.
	DefaultMaxAttempts = 60

	// Progress while polling covers the 60 to 100 band; upload and submission
	// account for the band below it.
	progressBase = 60.0
	progressSpan = 40.0
)

// TimedOutError is returned when the attempt ceiling is reached before the
// remote job finishes.
type TimedOutError struct {
	Attempts int
}

func (e *TimedOutError) Error() string { return "transcription timed out" }

// StatusFetcher fetches the current state of a transcription job.
type StatusFetcher interface {
	GetTranscript(ctx context.Context, jobID string) (*models.TranscriptionResult, error)
}

// Poller waits for a transcription job to reach a terminal state. At most one
// status check is in flight at a time; the next check is scheduled only after
// the previous one resolves. Cancelling the context stops the loop and the
// in-flight request.
type Poller struct {
	Fetcher     StatusFetcher
	Interval    time.Duration
	MaxAttempts int

	// OnProgress, when set, receives a monotonically non-decreasing
	// percentage estimate. It reaches exactly 100 only on completion.
	OnProgress func(percent float64)
}

// New creates a Poller with the default interval and attempt ceiling.
func New(f StatusFetcher) *Poller {
	return &Poller{
		Fetcher:     f,
		Interval:    DefaultInterval,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Wait polls the job until it completes, fails, times out, or the context is
// cancelled. The first check happens immediately; subsequent checks are
// spaced by Interval. Fetch errors are terminal: the adapter already
// distinguishes transport failures from remote-reported job failures.
func (p *Poller) Wait(ctx context.Context, jobID string) (*models.TranscriptionResult, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	attempts := 0
	for {
		result, err := p.Fetcher.GetTranscript(ctx, jobID)
		if err != nil {
			return nil, err
		}

		if result.Status == models.StatusCompleted {
			p.report(100)
			return result, nil
		}

		// Still queued or processing.
		p.report(pollProgress(attempts, maxAttempts))

		if attempts >= maxAttempts {
			return nil, &TimedOutError{Attempts: attempts}
		}
		attempts++

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (p *Poller) report(percent float64) {
	if p.OnProgress != nil {
		p.OnProgress(percent)
	}
}

// pollProgress estimates completion as a fraction of the attempt ceiling,
// capped below 100 so that 100 is reported only on actual completion.
func pollProgress(attempts, maxAttempts int) float64 {
	percent := progressBase + progressSpan*float64(attempts)/float64(maxAttempts)
	if percent > 99 {
		percent = 99
	}
	return percent
}
