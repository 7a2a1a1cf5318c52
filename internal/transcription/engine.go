package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"voice-intake/internal/types"
)

// Engine is the external speech recognition capability: audio file in,
// recognized text plus a detected-language confidence out.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) (*types.ASRResult, error)
}

// whisperOutput matches the Whisper CLI's JSON output format.
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		ID         int     `json:"id"`
		Start      float64 `json:"start"`
		End        float64 `json:"end"`
		Text       string  `json:"text"`
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// parseWhisperJSON converts the CLI's JSON output into an ASRResult. The
// language confidence is derived from the mean segment log-probability,
// since the CLI does not report the detector's probability directly.
func parseWhisperJSON(raw []byte) (*types.ASRResult, error) {
	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	segments := make([]types.Segment, len(out.Segments))
	var logprobSum float64
	for i, seg := range out.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
		logprobSum += seg.AvgLogprob
	}

	var duration, confidence float64
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
		confidence = math.Exp(logprobSum / float64(len(segments)))
	}

	return &types.ASRResult{
		Text:               strings.TrimSpace(out.Text),
		Language:           out.Language,
		LanguageConfidence: confidence,
		Duration:           duration,
		Segments:           segments,
	}, nil
}

// readWhisperResult loads the JSON file the CLI writes next to the audio
// file's base name inside outputDir.
func readWhisperResult(outputDir, audioPath string) (*types.ASRResult, error) {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	raw, err := os.ReadFile(filepath.Join(outputDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}
	return parseWhisperJSON(raw)
}
