package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"voice-intake/internal/backup"
	"voice-intake/internal/logger"
	"voice-intake/internal/pipeline"
	"voice-intake/internal/types"
)

type fakeEngine struct {
	calls int
}

func (e *fakeEngine) Transcribe(_ context.Context, _ string) (*types.ASRResult, error) {
	e.calls++
	return &types.ASRResult{Text: "dropped file text"}, nil
}

func newTestWatcher(t *testing.T, engine *fakeEngine) (*Watcher, string) {
	t.Helper()
	base := t.TempDir()
	dropDir := filepath.Join(base, "drop")
	if err := os.MkdirAll(dropDir, 0755); err != nil {
		t.Fatal(err)
	}
	bw, err := backup.NewWriter(filepath.Join(base, "transcripts"), filepath.Join(base, "webhooks"))
	if err != nil {
		t.Fatalf("backup writer: %v", err)
	}
	p := pipeline.New(engine, nil, "", "TRANSCRIPT FINAL", filepath.Join(base, "uploads"), bw, nil, logger.New())
	w := New(dropDir, p, logger.New())
	w.settle = time.Millisecond
	return w, dropDir
}

func TestWaitUntilStable_SettledFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := waitUntilStable(context.Background(), path, time.Millisecond); err != nil {
		t.Fatalf("waitUntilStable: %v", err)
	}
}

func TestWaitUntilStable_MissingFile(t *testing.T) {
	err := waitUntilStable(context.Background(), filepath.Join(t.TempDir(), "gone.mp3"), time.Millisecond)
	if err == nil {
		t.Fatal("expected stat error for a missing file")
	}
}

func TestWaitUntilStable_GrowingFileHonorsDeadline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copying.mp3")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		chunk := make([]byte, 4096)
		for {
			select {
			case <-stop:
				return
			default:
				f.Write(chunk)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err = waitUntilStable(ctx, path, 2*time.Millisecond)
	close(stop)
	<-done

	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want context.DeadlineExceeded for a file still growing", err)
	}
}

func TestProcess_TranscribesAndRemovesSettledFile(t *testing.T) {
	engine := &fakeEngine{}
	w, dropDir := newTestWatcher(t, engine)

	path := filepath.Join(dropDir, "talk.mp3")
	if err := os.WriteFile(path, []byte("audio-bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	w.process(context.Background(), path)

	if engine.calls != 1 {
		t.Fatalf("engine calls = %d, want 1", engine.calls)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("processed file must be removed from the drop directory")
	}
}

func TestProcess_MissingFileNeverReachesRecognizer(t *testing.T) {
	engine := &fakeEngine{}
	w, dropDir := newTestWatcher(t, engine)

	w.process(context.Background(), filepath.Join(dropDir, "never-arrived.mp3"))

	if engine.calls != 0 {
		t.Fatalf("engine calls = %d, want 0", engine.calls)
	}
}
