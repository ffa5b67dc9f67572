package transcript

import (
	"sync"

	"speakerscope/models"
)

// Selection is the set of speaker labels currently enabled for audio and
// caption display, plus cosmetic display-name overrides. Matching always
// keys on the original label; display names never affect filtering.
type Selection struct {
	mu      sync.RWMutex
	enabled map[string]struct{}
	names   map[string]string
}

// NewSelection creates a selection with the given labels enabled.
func NewSelection(labels []string) *Selection {
	s := &Selection{
		enabled: make(map[string]struct{}, len(labels)),
		names:   make(map[string]string),
	}
	for _, label := range labels {
		s.enabled[label] = struct{}{}
	}
	return s
}

// NewSelectionFromResult enables every distinct speaker present in the
// result, the default state when a transcript first arrives.
func NewSelectionFromResult(result *models.TranscriptionResult) *Selection {
	return NewSelection(result.Speakers())
}

// Toggle flips a label's membership: enabled becomes disabled and vice versa.
// An all-disabled selection is permitted; it simply yields silence and no
// captions.
func (s *Selection) Toggle(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enabled[label]; ok {
		delete(s.enabled, label)
	} else {
		s.enabled[label] = struct{}{}
	}
}

// Enabled reports whether the label is currently selected.
func (s *Selection) Enabled(label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.enabled[label]
	return ok
}

// EnabledCount returns the number of enabled labels.
func (s *Selection) EnabledCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.enabled)
}

// SetDisplayName assigns a user-chosen name to a label. A blank name clears
// the override.
func (s *Selection) SetDisplayName(label, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		delete(s.names, label)
		return
	}
	s.names[label] = name
}

// DisplayName returns the override for a label, or "Speaker <label>" when
// none is set.
func (s *Selection) DisplayName(label string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name, ok := s.names[label]; ok {
		return name
	}
	return "Speaker " + label
}
