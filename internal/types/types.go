package types

import "strings"

// Sheet write status values reported by the transcription pipeline. The
// spreadsheet write is best-effort: its outcome travels in the response
// body instead of failing the request.
const (
	SheetNotAttempted = "not_attempted"
	SheetSuccess      = "success"
	SheetFailed       = "failed"
	SheetError        = "error"
)

// TranscriptRecord is one normalized transcript keyed by the original
// (sanitized) filename. The spreadsheet holds at most one live row per
// filename.
type TranscriptRecord struct {
	Filename  string `json:"filename"`
	Text      string `json:"transcription"`
	Timestamp string `json:"timestamp"` // "2006-01-02 15:04:05"
}

// ASRResult is the output of the external speech recognition engine.
type ASRResult struct {
	Text               string
	Language           string
	LanguageConfidence float64
	Duration           float64
	Segments           []Segment
}

// Segment is a timestamped slice of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// WordCount returns the number of whitespace-separated tokens in the text.
func (r *ASRResult) WordCount() int {
	return len(strings.Fields(r.Text))
}
