package assemblyai

import "fmt"

// UploadError reports a non-success HTTP response from the media upload call.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed with status %d: %s", e.StatusCode, e.Body)
}

// SubmissionError reports a non-success HTTP response when creating a
// transcription job.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("transcription submission failed with status %d: %s", e.StatusCode, e.Body)
}

// FetchError reports a transport or HTTP failure while checking job status.
type FetchError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch transcript: %v", e.Err)
	}
	return fmt.Sprintf("fetch transcript failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TranscriptionFailedError means the remote service explicitly reported the
// job as failed, carrying its message.
type TranscriptionFailedError struct {
	Message string
}

func (e *TranscriptionFailedError) Error() string {
	return fmt.Sprintf("transcription failed: %s", e.Message)
}
