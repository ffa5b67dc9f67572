package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"speakerscope/internal/session"
	"speakerscope/models"
	"speakerscope/utils"
)

// CreateSessionPayload defines the body for saving a completed transcription
// to the library.
type CreateSessionPayload struct {
	Title    string `json:"title" validate:"required"`
	JobID    string `json:"job_id" validate:"required,uuid4"`
	MediaURL string `json:"media_url" validate:"omitempty,url"`
}

// CreateSession saves a completed transcription to the library.
// POST /api/v1/sessions
func (h *ApplicationHandler) CreateSession(c *fiber.Ctx) error {
	payload := new(CreateSessionPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse JSON: %v", err))
	}

	if err := validate.Struct(payload); err != nil {
		errs := utils.FormatValidationErrors(err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(errs, ", "))
	}

	title := utils.SanitizeInput(payload.Title)
	if title == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Title must not be blank")
	}

	jobID, _ := uuid.Parse(payload.JobID)
	snapshot, ok := h.Jobs.Get(jobID)
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Job not found")
	}
	if snapshot.State != models.JobCompleted || snapshot.Result == nil {
		return utils.RespondWithError(c, fiber.StatusConflict, "Only completed transcriptions can be saved")
	}

	mediaURL := payload.MediaURL
	if mediaURL == "" {
		mediaURL = snapshot.MediaURL
	}

	saved := models.SavedSession{
		ID:        uuid.New(),
		Title:     title,
		MediaURL:  mediaURL,
		Result:    *snapshot.Result,
		CreatedAt: time.Now(),
	}

	if err := h.Sessions.Append(saved); err != nil {
		h.Logger.Errorf("Error saving session: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not save session: %v", err))
	}

	h.Logger.Infof("Saved session %s (%q)", saved.ID, saved.Title)
	return utils.RespondWithJSON(c, fiber.StatusCreated, saved)
}

// ListSessions returns every saved session in the library.
// GET /api/v1/sessions
func (h *ApplicationHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.Sessions.List()
	if err != nil {
		h.Logger.Errorf("Error listing sessions: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not list sessions: %v", err))
	}
	if sessions == nil {
		sessions = []models.SavedSession{}
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, sessions)
}

// GetSession returns one saved session.
// GET /api/v1/sessions/:id
func (h *ApplicationHandler) GetSession(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid session ID format")
	}

	saved, err := h.Sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Session not found")
		}
		h.Logger.Errorf("Error fetching session %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not fetch session: %v", err))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, saved)
}

// DeleteSession removes a saved session from the library.
// DELETE /api/v1/sessions/:id
func (h *ApplicationHandler) DeleteSession(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid session ID format")
	}

	if err := h.Sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Session not found")
		}
		h.Logger.Errorf("Error deleting session %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not delete session: %v", err))
	}

	h.Logger.Infof("Deleted session %s", id)
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"id": id})
}

// OpenSession loads a saved session back into a live job so the playback and
// caption endpoints work against it. The speaker selection starts over with
// every speaker enabled.
// POST /api/v1/sessions/:id/open
func (h *ApplicationHandler) OpenSession(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid session ID format")
	}

	saved, err := h.Sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Session not found")
		}
		h.Logger.Errorf("Error fetching session %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not fetch session: %v", err))
	}

	result := saved.Result
	jobID := h.Jobs.Restore(&result, saved.MediaURL)
	h.Logger.Infof("Opened session %s as job %s", id, jobID)

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"job_id":  jobID,
		"session": saved,
	})
}
