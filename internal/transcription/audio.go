package transcription

import (
	"path/filepath"
	"strings"
)

var supportedFormats = map[string]struct{}{
	".mp3": {}, ".mp4": {}, ".wav": {}, ".m4a": {},
	".ogg": {}, ".flac": {}, ".webm": {}, ".aac": {}, ".wma": {},
}

// ValidateAudioFormat reports whether the filename carries a supported
// audio extension.
func ValidateAudioFormat(filename string) bool {
	_, ok := supportedFormats[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// InferExtension returns the filename's extension, defaulting to .mp3
// when the upload carries none.
func InferExtension(filename string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	return ".mp3"
}
