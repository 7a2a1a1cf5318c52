package transcription

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"voice-intake/internal/logger"
	"voice-intake/internal/types"
)

// WhisperEngine runs the Whisper CLI (`python -m whisper`) as the
// external recognizer. One transcription runs at a time; the CLI loads
// the model per invocation and concurrent runs would thrash memory.
type WhisperEngine struct {
	model   string
	device  string
	threads int
	tempDir string
	log     *logger.Logger

	mu sync.Mutex
}

// NewWhisperEngine creates an engine that writes its scratch output under
// tempDir. The CLI itself is only exercised on the first Transcribe call.
func NewWhisperEngine(model, device string, threads int, tempDir string, log *logger.Logger) *WhisperEngine {
	return &WhisperEngine{
		model:   model,
		device:  device,
		threads: threads,
		tempDir: tempDir,
		log:     log.WithComponent("whisper"),
	}
}

// Transcribe runs the recognizer over the audio file at audioPath.
func (e *WhisperEngine) Transcribe(ctx context.Context, audioPath string) (*types.ASRResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	absPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("resolve audio path: %w", err)
	}

	outputDir, err := os.MkdirTemp(e.tempDir, "whisper_out_")
	if err != nil {
		return nil, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	args := []string{
		"-m", "whisper",
		absPath,
		"--model", e.model,
		"--device", e.device,
		"--threads", strconv.Itoa(e.threads),
		"--output_dir", outputDir,
		"--output_format", "json",
		"--fp16", "False",
	}
	cmd := exec.CommandContext(ctx, "python", args...)

	e.log.WithField("audio_path", audioPath).Info("starting transcription")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper failed: %w\noutput: %s", err, output)
	}

	result, err := readWhisperResult(outputDir, absPath)
	if err != nil {
		return nil, err
	}

	e.log.WithField("segments", len(result.Segments)).
		WithField("language", result.Language).
		WithField("duration_sec", result.Duration).
		Info("transcription completed")
	return result, nil
}
