package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"speakerscope/internal/transcript"
	"speakerscope/models"
	"speakerscope/utils"
)

// RenameSpeakerPayload defines the body for assigning a display name to a
// diarization label.
type RenameSpeakerPayload struct {
	DisplayName string `json:"display_name"`
}

// completedJob fetches a job and its selection, ensuring it is completed.
// On failure the error response has already been written; ok is false and err
// carries only the write error, so callers must return without touching the
// snapshot or selection.
func (h *ApplicationHandler) completedJob(c *fiber.Ctx) (snapshot models.TranscriptionJob, sel *transcript.Selection, ok bool, err error) {
	jobID, parseErr := uuid.Parse(c.Params("jobId"))
	if parseErr != nil {
		return snapshot, nil, false, utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	snapshot, found := h.Jobs.Get(jobID)
	if !found {
		return snapshot, nil, false, utils.RespondWithError(c, fiber.StatusNotFound, "Job not found")
	}
	if snapshot.State != models.JobCompleted || snapshot.Result == nil {
		return snapshot, nil, false, utils.RespondWithError(c, fiber.StatusConflict, "Transcription is not completed yet")
	}

	sel, found = h.Jobs.Selection(jobID)
	if !found {
		return snapshot, nil, false, utils.RespondWithError(c, fiber.StatusConflict, "Speaker selection unavailable")
	}
	return snapshot, sel, true, nil
}

// GetCaptions computes the playback-synchronized view for a position: active
// utterances for the enabled speakers, the live caption text, and the gated
// output volume.
// GET /api/v1/transcriptions/:jobId/captions?t=12.5&volume=0.8&original_sound=false&muted=false
func (h *ApplicationHandler) GetCaptions(c *fiber.Ctx) error {
	snapshot, sel, ok, err := h.completedJob(c)
	if !ok {
		return err
	}

	seconds, err := strconv.ParseFloat(c.Query("t", "0"), 64)
	if err != nil || seconds < 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "t must be a non-negative number of seconds")
	}

	volume := 1.0
	if raw := c.Query("volume"); raw != "" {
		volume, err = strconv.ParseFloat(raw, 64)
		if err != nil || volume < 0 || volume > 1 {
			return utils.RespondWithError(c, fiber.StatusBadRequest, "volume must be between 0 and 1")
		}
	}

	player := transcript.Player{
		Volume:        volume,
		Muted:         c.QueryBool("muted", false),
		OriginalSound: c.QueryBool("original_sound", false),
	}

	tMs := transcript.Millis(seconds)
	utterances := snapshot.Result.Utterances

	activeIdx := transcript.ActiveUtterances(utterances, tMs, sel)
	active := make([]fiber.Map, 0, len(activeIdx))
	for _, i := range activeIdx {
		u := utterances[i]
		active = append(active, fiber.Map{
			"speaker":      u.Speaker,
			"display_name": sel.DisplayName(u.Speaker),
			"start":        u.Start,
			"end":          u.End,
			"text":         u.Text,
		})
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"position_ms": tMs,
		"active":      active,
		"caption":     transcript.CaptionAt(utterances, tMs, sel),
		"volume":      player.EffectiveVolume(utterances, tMs, sel),
	})
}

// ToggleSpeaker flips whether a speaker's audio and captions are enabled.
// POST /api/v1/transcriptions/:jobId/speakers/:label/toggle
func (h *ApplicationHandler) ToggleSpeaker(c *fiber.Ctx) error {
	_, sel, ok, err := h.completedJob(c)
	if !ok {
		return err
	}

	label := c.Params("label")
	sel.Toggle(label)
	h.Logger.Infof("Toggled speaker %s, now enabled=%v", label, sel.Enabled(label))

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"speaker": label,
		"enabled": sel.Enabled(label),
	})
}

// RenameSpeaker assigns a cosmetic display name to a speaker label. Matching
// and filtering always keep using the original label.
// PATCH /api/v1/transcriptions/:jobId/speakers/:label
func (h *ApplicationHandler) RenameSpeaker(c *fiber.Ctx) error {
	_, sel, ok, err := h.completedJob(c)
	if !ok {
		return err
	}

	payload := new(RenameSpeakerPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	label := c.Params("label")
	name := strings.TrimSpace(payload.DisplayName)
	sel.SetDisplayName(label, name)

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"speaker":      label,
		"display_name": sel.DisplayName(label),
	})
}
