// Package watch submits media files dropped into a watched directory, the
// server-side analog of drag-and-drop upload.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"speakerscope/internal/media"
)

// settleDelay is how long a file must sit unchanged before submission, so a
// file still being copied in is not uploaded half-written.
const settleDelay = 2 * time.Second

// Submitter queues a transcription for a local media file.
type Submitter interface {
	SubmitFile(path string) (uuid.UUID, error)
}

// Watcher observes one directory for new media files.
type Watcher struct {
	dir    string
	log    *logrus.Logger
	submit Submitter

	// pollInterval drives the fallback scanner when fsnotify is unavailable.
	pollInterval time.Duration
}

// New creates a watcher for dir.
func New(dir string, log *logrus.Logger, submit Submitter) *Watcher {
	return &Watcher{
		dir:          dir,
		log:          log,
		submit:       submit,
		pollInterval: 5 * time.Second,
	}
}

// Run watches until the context is cancelled. Falls back to periodic
// directory scans when fsnotify cannot be initialized.
func (w *Watcher) Run(ctx context.Context) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.log.Errorf("Cannot create watch directory %s: %v", w.dir, err)
		return
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Warnf("fsnotify not available, falling back to polling: %v", err)
		w.runPolling(ctx)
		return
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		w.log.Warnf("Cannot watch %s, falling back to polling: %v", w.dir, err)
		w.runPolling(ctx)
		return
	}

	w.log.Infof("Watching %s for new media files", w.dir)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !media.IsMediaFile(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warnf("Watcher error: %v", err)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settleDelay {
					continue
				}
				delete(pending, path)
				w.submitFile(path)
			}
		}
	}
}

// runPolling scans the directory on an interval, submitting files it has not
// seen before.
func (w *Watcher) runPolling(ctx context.Context) {
	seen := make(map[string]struct{})

	// Skip files already present at startup.
	if entries, err := os.ReadDir(w.dir); err == nil {
		for _, e := range entries {
			seen[filepath.Join(w.dir, e.Name())] = struct{}{}
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries, err := os.ReadDir(w.dir)
			if err != nil {
				w.log.Warnf("Scan %s failed: %v", w.dir, err)
				continue
			}
			for _, e := range entries {
				path := filepath.Join(w.dir, e.Name())
				if _, ok := seen[path]; ok || e.IsDir() || !media.IsMediaFile(path) {
					continue
				}
				seen[path] = struct{}{}
				w.submitFile(path)
			}
		}
	}
}

func (w *Watcher) submitFile(path string) {
	id, err := w.submit.SubmitFile(path)
	if err != nil {
		w.log.Errorf("Auto-submit %s failed: %v", filepath.Base(path), err)
		return
	}
	w.log.WithFields(logrus.Fields{
		"file":   filepath.Base(path),
		"job_id": id.String(),
	}).Info("Auto-submitted dropped media file")
}
