package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"voice-intake/internal/logger"
	"voice-intake/internal/pipeline"
	"voice-intake/internal/transcription"
)

const defaultSettle = 500 * time.Millisecond

// Watcher monitors a drop directory for audio files and runs each one
// through the transcription pipeline, replacing the old bulk "process
// the uploads folder" script with a live equivalent. Processed files are
// removed from the drop directory so a restart does not replay them.
type Watcher struct {
	dir      string
	pipeline *pipeline.Pipeline
	log      *logger.Logger
	jobs     chan string
	settle   time.Duration
}

// New creates a watcher over dir. The watcher is inert until Start.
func New(dir string, p *pipeline.Pipeline, log *logger.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		pipeline: p,
		log:      log.WithComponent("watcher"),
		jobs:     make(chan string, 100),
		settle:   defaultSettle,
	}
}

// Start backfills files already present in the drop directory, then
// watches for new ones until ctx is cancelled. Files are processed one
// at a time; the recognizer serializes anyway.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	go w.worker(ctx)

	go func() {
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-fsw.Events:
				if evt.Op&(fsnotify.Create|fsnotify.Rename) != 0 && transcription.ValidateAudioFormat(evt.Name) {
					w.enqueue(evt.Name)
				}
			case err := <-fsw.Errors:
				w.log.WithError(err).Warn("watch error")
			}
		}
	}()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}
	w.backfill()
	w.log.WithField("dir", w.dir).Info("watching drop directory")
	return nil
}

func (w *Watcher) backfill() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.WithError(err).Warn("backfill scan failed")
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if transcription.ValidateAudioFormat(e.Name()) {
			w.enqueue(filepath.Join(w.dir, e.Name()))
		}
	}
}

func (w *Watcher) enqueue(path string) {
	select {
	case w.jobs <- path:
	default:
		w.log.WithField("path", path).Warn("drop queue full, file skipped")
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.jobs:
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	name := filepath.Base(path)
	log := w.log.WithField("file", name)

	// A Create event fires before the copy into the directory finishes, so
	// the file is only picked up once its size holds still across a settle
	// interval.
	if err := waitUntilStable(ctx, path, w.settle); err != nil {
		log.WithError(err).Warn("dropped file never settled")
		return
	}

	res, err := w.pipeline.ProcessFile(ctx, path, name)
	if err != nil {
		log.WithError(err).Error("failed to process dropped file")
		return
	}
	log.WithField("sheet_status", res.SheetStatus).Info("dropped file processed")

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to remove processed file")
	}
}

// waitUntilStable returns once two consecutive size samples of the file,
// taken one interval apart, are equal. A file that disappears mid-copy
// yields the stat error.
func waitUntilStable(ctx context.Context, path string, interval time.Duration) error {
	lastSize := int64(-1)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == lastSize {
			return nil
		}
		lastSize = info.Size()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
