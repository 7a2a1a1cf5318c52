package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"voice-intake/internal/logger"
)

// Scheduler periodically removes stale temporary audio files. Uploads
// are deleted by the pipeline on completion; the scheduler catches
// leftovers from crashes and interrupted requests.
type Scheduler struct {
	tempDir  string
	interval time.Duration
	maxAge   time.Duration
	log      *logger.Logger
	stop     chan struct{}
}

// NewScheduler creates a scheduler for tempDir.
func NewScheduler(tempDir string, intervalMinutes, maxAgeHours int, log *logger.Logger) *Scheduler {
	return &Scheduler{
		tempDir:  tempDir,
		interval: time.Duration(intervalMinutes) * time.Minute,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
		log:      log.WithComponent("cleanup"),
		stop:     make(chan struct{}),
	}
}

// Start runs an initial sweep, then sweeps on the configured interval
// until Stop.
func (s *Scheduler) Start() {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				ticker.Stop()
				return
			}
		}
	}()

	s.log.WithField("interval", s.interval).WithField("max_age", s.maxAge).Info("cleanup scheduler started")
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) sweep() {
	now := time.Now()
	deleted := 0

	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if now.Sub(info.ModTime()) <= s.maxAge {
			return nil
		}
		if err := os.Remove(path); err != nil {
			s.log.WithError(err).WithField("path", path).Warn("failed to delete stale temp file")
			return nil
		}
		deleted++
		return nil
	})
	if err != nil {
		s.log.WithError(err).Warn("cleanup sweep failed")
	}
	if deleted > 0 {
		s.log.WithField("deleted", deleted).Info("cleanup sweep complete")
	}
}
