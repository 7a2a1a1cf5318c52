package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voice-intake/internal/textproc"
)

// Writer persists local JSON snapshots of processed events. Backups are a
// best-effort audit trail; callers log write failures and move on.
type Writer struct {
	transcriptDir string
	webhookDir    string
}

// NewWriter creates a backup writer rooted at the two target directories,
// creating them if needed.
func NewWriter(transcriptDir, webhookDir string) (*Writer, error) {
	for _, dir := range []string{transcriptDir, webhookDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create backup dir %s: %w", dir, err)
		}
	}
	return &Writer{transcriptDir: transcriptDir, webhookDir: webhookDir}, nil
}

// WebhookDir returns the webhook backup directory path.
func (w *Writer) WebhookDir() string { return w.webhookDir }

// TranscriptDir returns the transcript backup directory path.
func (w *Writer) TranscriptDir() string { return w.transcriptDir }

// transcriptSnapshot is the on-disk shape of one transcript backup.
type transcriptSnapshot struct {
	Filename      string  `json:"filename"`
	Transcription string  `json:"transcription"`
	Timestamp     string  `json:"timestamp"`
	Duration      float64 `json:"duration,omitempty"`
}

// SaveTranscript writes one JSON snapshot named from the original
// filename and returns the path written.
func (w *Writer) SaveTranscript(filename, transcription string, duration float64) (string, error) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if base == "" {
		base = "transcript"
	}
	path := filepath.Join(w.transcriptDir, base+"_transcript.json")

	snap := transcriptSnapshot{
		Filename:      filename,
		Transcription: transcription,
		Timestamp:     time.Now().Format(time.RFC3339),
		Duration:      duration,
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript backup: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("write transcript backup: %w", err)
	}
	return path, nil
}

// webhookSnapshot pairs the raw provider payload with the row the mapper
// produced from it.
type webhookSnapshot struct {
	OriginalPayload json.RawMessage   `json:"original_payload"`
	MappedData      map[string]string `json:"mapped_data"`
	ProcessedAt     string            `json:"processed_at"`
}

// SaveWebhook writes one JSON snapshot named by timestamp plus the
// sanitized contact name and returns the path written.
func (w *Writer) SaveWebhook(original json.RawMessage, mapped map[string]string, contactName string) (string, error) {
	name := textproc.SanitizeFilename(strings.ReplaceAll(contactName, " ", "_"))
	if name == "" {
		name = "unknown_contact"
	}
	path := filepath.Join(w.webhookDir,
		fmt.Sprintf("%s_%s.json", time.Now().Format("20060102_150405"), name))

	snap := webhookSnapshot{
		OriginalPayload: original,
		MappedData:      mapped,
		ProcessedAt:     time.Now().Format(time.RFC3339),
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal webhook backup: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("write webhook backup: %w", err)
	}
	return path, nil
}
