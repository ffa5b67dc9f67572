// Package transcript maps a continuously advancing playback position onto a
// diarized transcript: which utterances and words are active, what caption
// text to show, and whether filtered audio should be muted.
package transcript

import (
	"strings"

	"speakerscope/models"
)

// Millis converts a playback position in floating seconds, as reported by a
// media element, to the millisecond scale of transcript timings.
func Millis(seconds float64) int {
	return int(seconds * 1000)
}

// contains tests the utterance/word time-range match. Both ends are
// inclusive, so a position exactly on the boundary between two adjacent
// segments activates both. Unusual, but preserved for compatibility with the
// rendering this feeds.
func contains(start, end, tMs int) bool {
	return tMs >= start && tMs <= end
}

// ActiveUtterances returns the indices of utterances whose time range
// contains tMs and whose speaker is enabled. A linear scan per tick; n is
// utterance count, typically tens to low hundreds.
func ActiveUtterances(utterances []models.TranscriptUtterance, tMs int, sel *Selection) []int {
	var active []int
	for i, u := range utterances {
		if contains(u.Start, u.End, tMs) && sel.Enabled(u.Speaker) {
			active = append(active, i)
		}
	}
	return active
}

// CaptionAt assembles the live caption for tMs: for each active utterance,
// the words whose own time range contains tMs, in original order, joined by
// single spaces.
func CaptionAt(utterances []models.TranscriptUtterance, tMs int, sel *Selection) string {
	var parts []string
	for _, i := range ActiveUtterances(utterances, tMs, sel) {
		for _, w := range utterances[i].Words {
			if contains(w.Start, w.End, tMs) {
				parts = append(parts, w.Text)
			}
		}
	}
	return strings.Join(parts, " ")
}

// Player models the audible output controls of the media element: a user-set
// volume, a mute flag, and the "original sound" switch. With original sound
// off, audio is gated to the selected speakers only.
type Player struct {
	Volume        float64
	Muted         bool
	OriginalSound bool
}

// EffectiveVolume computes the output volume for the current position. When
// original sound is off and no active utterance matches the selection, the
// volume is forced to zero; otherwise the user-set volume applies. Recomputed
// from scratch on every tick, so an explicit seek needs no special handling.
func (p Player) EffectiveVolume(utterances []models.TranscriptUtterance, tMs int, sel *Selection) float64 {
	if p.Muted {
		return 0
	}
	if p.OriginalSound {
		return p.Volume
	}
	if len(ActiveUtterances(utterances, tMs, sel)) == 0 {
		return 0
	}
	return p.Volume
}
