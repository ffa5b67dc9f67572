// Package assemblyai wraps the three AssemblyAI HTTP calls the pipeline
// needs: upload a media blob, create a transcription job with speaker
// diarization, and fetch job status by id. The client keeps no local state;
// retry behavior lives in the poll loop, not here.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"speakerscope/internal/media"
	"speakerscope/models"
)

const defaultTimeout = 2 * time.Minute

// Client calls the AssemblyAI v2 API. The API key is an opaque credential
// passed verbatim in the Authorization header.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL and API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Upload sends raw media bytes to the upload endpoint and returns the
// reference URL the transcription job should be created against. When the
// caller-supplied content type is absent or generic, it is inferred from the
// filename extension.
func (c *Client) Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = media.TypeByName(filename)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", r)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UploadError{StatusCode: resp.StatusCode, Body: truncate(body, 200)}
	}

	var parsed struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if parsed.UploadURL == "" {
		return "", fmt.Errorf("upload response missing upload_url")
	}
	return parsed.UploadURL, nil
}

// Submit creates a transcription job for the given media URL with speaker
// labels enabled and returns the job id. expectedSpeakers below 1 falls back
// to 2, the service default for two-party conversations.
func (c *Client) Submit(ctx context.Context, audioURL string, expectedSpeakers int) (string, error) {
	if expectedSpeakers < 1 {
		expectedSpeakers = 2
	}

	payload, err := json.Marshal(map[string]interface{}{
		"audio_url":         audioURL,
		"speaker_labels":    true,
		"speakers_expected": expectedSpeakers,
	})
	if err != nil {
		return "", fmt.Errorf("encode submission payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create submission request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit transcription: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read submission response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Body: truncate(body, 200)}
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode submission response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("submission response missing id")
	}
	return parsed.ID, nil
}

// transcriptResponse mirrors the JSON shape of the transcript status endpoint.
type transcriptResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Text       string `json:"text"`
	Error      string `json:"error"`
	Utterances []struct {
		Confidence float64 `json:"confidence"`
		End        int     `json:"end"`
		Speaker    string  `json:"speaker"`
		Start      int     `json:"start"`
		Text       string  `json:"text"`
		Words      []struct {
			Text       string  `json:"text"`
			Start      int     `json:"start"`
			End        int     `json:"end"`
			Confidence float64 `json:"confidence"`
			Speaker    string  `json:"speaker"`
		} `json:"words"`
	} `json:"utterances"`
}

// GetTranscript fetches the current state of a transcription job. A remote
// status of "error" is surfaced as *TranscriptionFailedError with the
// service-provided message; a status outside the documented set is rejected
// with models.ErrUnknownStatus instead of being treated as still-processing.
func (c *Client) GetTranscript(ctx context.Context, jobID string) (*models.TranscriptionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("create transcript request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("read transcript response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{StatusCode: resp.StatusCode, Body: truncate(body, 200)}
	}

	var parsed transcriptResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("decode transcript response: %w", err)}
	}

	status, err := models.ParseTranscriptStatus(parsed.Status)
	if err != nil {
		return nil, fmt.Errorf("transcript %s: %w", jobID, err)
	}

	if status == models.StatusError {
		msg := parsed.Error
		if msg == "" {
			msg = "Unknown error occurred"
		}
		return nil, &TranscriptionFailedError{Message: msg}
	}

	result := &models.TranscriptionResult{
		ID:         parsed.ID,
		Status:     status,
		Text:       parsed.Text,
		Utterances: make([]models.TranscriptUtterance, len(parsed.Utterances)),
	}
	for i, u := range parsed.Utterances {
		words := make([]models.TranscriptWord, len(u.Words))
		for j, w := range u.Words {
			words[j] = models.TranscriptWord{
				Text:       w.Text,
				Start:      w.Start,
				End:        w.End,
				Confidence: w.Confidence,
				Speaker:    w.Speaker,
			}
		}
		result.Utterances[i] = models.TranscriptUtterance{
			Speaker:    u.Speaker,
			Start:      u.Start,
			End:        u.End,
			Confidence: u.Confidence,
			Text:       u.Text,
			Words:      words,
		}
	}
	return result, nil
}

// truncate returns the first n bytes of body as a string.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
