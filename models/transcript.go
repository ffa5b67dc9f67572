package models

import (
	"errors"
	"fmt"
	"sort"
)

// TranscriptStatus is the remote job status reported by AssemblyAI.
type TranscriptStatus string

const (
	StatusQueued     TranscriptStatus = "queued"
	StatusProcessing TranscriptStatus = "processing"
	StatusCompleted  TranscriptStatus = "completed"
	StatusError      TranscriptStatus = "error"
)

// ErrUnknownStatus is returned when the remote service reports a status
// outside the documented set. Callers treat this as terminal rather than
// silently polling forever on a value we do not understand.
var ErrUnknownStatus = errors.New("unknown transcript status")

// ParseTranscriptStatus validates a raw status string against the closed set.
func ParseTranscriptStatus(raw string) (TranscriptStatus, error) {
	switch s := TranscriptStatus(raw); s {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusError:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
}

// Terminal reports whether the status is one the remote service will never
// move away from.
func (s TranscriptStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// TranscriptWord is a single transcribed word with its timing.
// All times are milliseconds from the start of the media.
type TranscriptWord struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker"`
}

// TranscriptUtterance is one continuous speech segment attributed to a single
// speaker. Speaker labels are opaque diarization tags (typically "A", "B", ...)
// but must not be assumed to be single characters.
type TranscriptUtterance struct {
	Speaker    string           `json:"speaker"`
	Start      int              `json:"start"`
	End        int              `json:"end"`
	Confidence float64          `json:"confidence"`
	Text       string           `json:"text"`
	Words      []TranscriptWord `json:"words"`
}

// TranscriptionResult is the full payload of one transcription job. It is
// replaced wholesale on every poll and becomes immutable once Status is
// terminal.
type TranscriptionResult struct {
	ID         string                `json:"id"`
	Status     TranscriptStatus      `json:"status"`
	Text       string                `json:"text"`
	Error      string                `json:"error,omitempty"`
	Utterances []TranscriptUtterance `json:"utterances"`
}

// Speakers returns the sorted distinct speaker labels present in the result.
func (r *TranscriptionResult) Speakers() []string {
	seen := make(map[string]struct{})
	for _, u := range r.Utterances {
		seen[u.Speaker] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
