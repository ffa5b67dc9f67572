package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"speakerscope/internal/jobs"
	"speakerscope/utils"
)

var validate = validator.New()

// CreateTranscriptionPayload defines the JSON body for transcribing media
// already reachable at a URL.
type CreateTranscriptionPayload struct {
	MediaURL         string `json:"media_url" validate:"required,url"`
	SpeakersExpected int    `json:"speakers_expected" validate:"omitempty,gte=1"`
	APIKey           string `json:"api_key"`
}

// UploadTranscription accepts a multipart media file and queues a
// transcription job for it.
// POST /api/v1/transcriptions/upload
func (h *ApplicationHandler) UploadTranscription(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Error getting file: %v", err))
	}

	h.Logger.Infof("Received upload %s (%d bytes)", file.Filename, file.Size)

	fileHandle, err := file.Open()
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Error opening file: %v", err))
	}
	defer fileHandle.Close()

	content, err := io.ReadAll(fileHandle)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Error reading file: %v", err))
	}

	speakers := 0
	if raw := c.FormValue("speakers_expected"); raw != "" {
		speakers, err = strconv.Atoi(raw)
		if err != nil || speakers < 1 {
			return utils.RespondWithError(c, fiber.StatusBadRequest, "speakers_expected must be a positive integer")
		}
	}

	contentType := ""
	if values := file.Header["Content-Type"]; len(values) > 0 {
		contentType = values[0]
	}

	jobID, err := h.Jobs.SubmitUpload(content, file.Filename, contentType, c.FormValue("api_key"), speakers)
	if err != nil {
		return h.respondSubmitError(c, err)
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{"job_id": jobID})
}

// CreateTranscription queues a transcription job for a media URL, skipping
// the upload step.
// POST /api/v1/transcriptions
func (h *ApplicationHandler) CreateTranscription(c *fiber.Ctx) error {
	payload := new(CreateTranscriptionPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse JSON: %v", err))
	}

	if err := validate.Struct(payload); err != nil {
		errs := utils.FormatValidationErrors(err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(errs, ", "))
	}

	jobID, err := h.Jobs.SubmitURL(payload.MediaURL, payload.APIKey, payload.SpeakersExpected)
	if err != nil {
		return h.respondSubmitError(c, err)
	}

	h.Logger.Infof("Queued transcription job %s for %s", jobID, payload.MediaURL)
	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{"job_id": jobID})
}

// GetTranscription returns the current snapshot of a job: state, progress,
// and the full result once terminal.
// GET /api/v1/transcriptions/:jobId
func (h *ApplicationHandler) GetTranscription(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("jobId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	snapshot, ok := h.Jobs.Get(jobID)
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Job not found")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, snapshot)
}

// CancelTranscription stops a running job.
// DELETE /api/v1/transcriptions/:jobId
func (h *ApplicationHandler) CancelTranscription(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("jobId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	if err := h.Jobs.Cancel(jobID); err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Job not found")
		}
		return utils.RespondWithError(c, fiber.StatusConflict, err.Error())
	}

	h.Logger.Infof("Cancelled transcription job %s", jobID)
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"job_id": jobID})
}

func (h *ApplicationHandler) respondSubmitError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, jobs.ErrAPIKeyRequired):
		return utils.RespondWithError(c, fiber.StatusBadRequest, "API key required. Provide api_key or configure a default.")
	case errors.Is(err, jobs.ErrQueueFull):
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		h.Logger.Errorf("Error queuing transcription: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not queue transcription: %v", err))
	}
}
