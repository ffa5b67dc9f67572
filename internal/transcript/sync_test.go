package transcript

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"speakerscope/models"
)

func sampleUtterances() []models.TranscriptUtterance {
	return []models.TranscriptUtterance{
		{
			Speaker: "A", Start: 0, End: 2000, Text: "hello there friend",
			Words: []models.TranscriptWord{
				{Text: "hello", Start: 0, End: 600, Speaker: "A"},
				{Text: "there", Start: 600, End: 1200, Speaker: "A"},
				{Text: "friend", Start: 1200, End: 2000, Speaker: "A"},
			},
		},
		{
			Speaker: "B", Start: 2000, End: 3500, Text: "hi",
			Words: []models.TranscriptWord{
				{Text: "hi", Start: 2000, End: 3500, Speaker: "B"},
			},
		},
		{
			Speaker: "A", Start: 4000, End: 5000, Text: "bye",
			Words: []models.TranscriptWord{
				{Text: "bye", Start: 4000, End: 5000, Speaker: "A"},
			},
		},
	}
}

func TestActiveUtterances_InclusiveBounds(t *testing.T) {
	utts := sampleUtterances()
	sel := NewSelection([]string{"A", "B"})

	tests := []struct {
		name string
		tMs  int
		want []int
	}{
		{"inside first", 1000, []int{0}},
		{"exact start", 0, []int{0}},
		{"exact end and adjacent start activates both", 2000, []int{0, 1}},
		{"gap between utterances", 3700, nil},
		{"inside last", 4500, []int{2}},
		{"past the end", 9000, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ActiveUtterances(utts, tc.tMs, sel)
			if len(got) != len(tc.want) {
				t.Fatalf("active = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("active = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestActiveUtterances_RespectsSelection(t *testing.T) {
	utts := sampleUtterances()
	sel := NewSelection([]string{"A", "B"})
	sel.Toggle("A")

	if got := ActiveUtterances(utts, 1000, sel); got != nil {
		t.Errorf("disabled speaker still active: %v", got)
	}
	if got := ActiveUtterances(utts, 2500, sel); len(got) != 1 || got[0] != 1 {
		t.Errorf("active = %v, want [1]", got)
	}
}

func TestCaptionAt(t *testing.T) {
	utts := sampleUtterances()
	sel := NewSelection([]string{"A", "B"})

	if got := CaptionAt(utts, 700, sel); got != "there" {
		t.Errorf("caption = %q, want %q", got, "there")
	}
	// Word boundary is inclusive on both ends too.
	if got := CaptionAt(utts, 600, sel); got != "hello there" {
		t.Errorf("caption = %q, want %q", got, "hello there")
	}
	if got := CaptionAt(utts, 3700, sel); got != "" {
		t.Errorf("caption = %q, want empty", got)
	}
}

func TestPlayerEffectiveVolume(t *testing.T) {
	utts := sampleUtterances()
	sel := NewSelection([]string{"A"})

	filtered := Player{Volume: 0.8}

	// Active selected speaker at t=1s, silence in the gap at t=3.7s and
	// while the unselected speaker B talks at t=2.5s.
	if got := filtered.EffectiveVolume(utts, Millis(1.0), sel); got != 0.8 {
		t.Errorf("volume = %v, want 0.8", got)
	}
	if got := filtered.EffectiveVolume(utts, Millis(2.5), sel); got != 0 {
		t.Errorf("volume = %v, want 0 for unselected speaker", got)
	}
	if got := filtered.EffectiveVolume(utts, Millis(3.7), sel); got != 0 {
		t.Errorf("volume = %v, want 0 in gap", got)
	}

	original := Player{Volume: 0.8, OriginalSound: true}
	if got := original.EffectiveVolume(utts, Millis(3.7), sel); got != 0.8 {
		t.Errorf("volume = %v, want user volume with original sound on", got)
	}

	muted := Player{Volume: 0.8, Muted: true, OriginalSound: true}
	if got := muted.EffectiveVolume(utts, Millis(1.0), sel); got != 0 {
		t.Errorf("volume = %v, want 0 when muted", got)
	}
}

func TestMillis(t *testing.T) {
	if got := Millis(2.5); got != 2500 {
		t.Errorf("Millis(2.5) = %d, want 2500", got)
	}
	if got := Millis(0); got != 0 {
		t.Errorf("Millis(0) = %d, want 0", got)
	}
}

func TestActiveUtterances_LargeTranscript(t *testing.T) {
	gofakeit.Seed(11)

	// Back-to-back utterances alternating speakers; every boundary tie must
	// activate exactly two utterances.
	var utts []models.TranscriptUtterance
	labels := []string{"A", "B", "C", "D"}
	for i := 0; i < 200; i++ {
		start := i * 1000
		utts = append(utts, models.TranscriptUtterance{
			Speaker: labels[i%len(labels)],
			Start:   start,
			End:     start + 1000,
			Text:    gofakeit.Sentence(3),
		})
	}
	sel := NewSelection(labels)

	for _, boundary := range []int{1000, 50000, 199000} {
		if got := ActiveUtterances(utts, boundary, sel); len(got) != 2 {
			t.Errorf("boundary %d: %d active, want 2", boundary, len(got))
		}
	}
	if got := ActiveUtterances(utts, 500, sel); len(got) != 1 {
		t.Errorf("mid-utterance: %d active, want 1", len(got))
	}
}
