// Package media provides content-type inference and lightweight local probing
// for uploaded audio/video files.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// mimeTypes maps known media file extensions to their MIME types. Browsers
// frequently report an empty or generic type for audio files, so the upload
// path falls back to this table.
var mimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
}

// TypeByName infers a MIME type from the file extension, defaulting to
// audio/mpeg for unknown extensions.
func TypeByName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	return "audio/mpeg"
}

// IsMediaFile reports whether the filename has a recognized media extension.
func IsMediaFile(filename string) bool {
	_, ok := mimeTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// WAVInfo describes a locally probed WAV file.
type WAVInfo struct {
	Duration   time.Duration
	SampleRate int
	Channels   int
	BitDepth   int
}

// ProbeWAV reads the header of a WAV file and returns its basic parameters.
// Files that are not valid WAV return an error; callers treat that as
// "no local metadata" rather than a failure of the upload itself.
func ProbeWAV(path string) (*WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	d.ReadInfo()
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", filepath.Base(path))
	}

	dur, err := d.Duration()
	if err != nil {
		return nil, fmt.Errorf("read wav duration: %w", err)
	}

	return &WAVInfo{
		Duration:   dur,
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}, nil
}
