package webhook

// ExtractContent selects the textual payload of an answer based on its
// declared type. Video and audio answers carry a transcription, text
// answers carry free text, polls carry the chosen option. Unknown types
// and missing fields yield an empty string; this never fails.
func ExtractContent(a Answer) string {
	switch a.Type {
	case "video", "audio":
		return a.Transcription
	case "text":
		return a.Text
	case "poll":
		return a.PollOptionContent
	default:
		return ""
	}
}
