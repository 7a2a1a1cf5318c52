package webhook

// EventTypeFormResponse is the only event type the pipeline processes;
// everything else is acknowledged and skipped.
const EventTypeFormResponse = "form_response"

// Payload is a VideoAsk webhook delivery.
type Payload struct {
	EventType string  `json:"event_type"`
	Contact   Contact `json:"contact"`
	Form      Form    `json:"form"`
}

// Contact is the respondent plus their answers.
type Contact struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Location    string   `json:"location"`
	CreatedAt   string   `json:"created_at"`
	ProductName string   `json:"product_name"`
	Answers     []Answer `json:"answers"`
}

// Answer is one response to one form question. Which field carries the
// content depends on Type.
type Answer struct {
	QuestionID        string `json:"question_id"`
	Type              string `json:"type"`
	Transcription     string `json:"transcription"`
	Text              string `json:"text"`
	PollOptionContent string `json:"poll_option_content"`
	ShareURL          string `json:"share_url"`
}

// Form describes the questions the contact answered.
type Form struct {
	Questions []Question `json:"questions"`
}

// Question is one form question; Label and Title carry the human-facing
// text the classifier matches on.
type Question struct {
	QuestionID string `json:"question_id"`
	Label      string `json:"label"`
	Title      string `json:"title"`
	ShareURL   string `json:"share_url"`
}
