package webhook

// SamplePayload returns the built-in payload used by the webhook test
// endpoint to exercise the mapping pipeline without a live provider.
func SamplePayload() Payload {
	return Payload{
		EventType: EventTypeFormResponse,
		Contact: Contact{
			Name:      "Test User",
			Email:     "test.user@example.com",
			Location:  "Portland, OR",
			CreatedAt: "2025-06-01T12:30:00Z",
			Answers: []Answer{
				{
					QuestionID:    "intro_q1",
					Type:          "video",
					Transcription: "This is a test transcription from the built-in sample.",
					ShareURL:      "https://example.com/share/test_intro",
				},
				{
					QuestionID: "influence_q1",
					Type:       "text",
					Text:       "Testing the influence question response.",
					ShareURL:   "https://example.com/share/test_influence",
				},
				{
					QuestionID:    "advice_q1",
					Type:          "video",
					Transcription: "This is advice from our test user.",
					ShareURL:      "https://example.com/share/test_advice",
				},
			},
		},
		Form: Form{
			Questions: []Question{
				{
					QuestionID: "intro_q1",
					Label:      "Introduce Yourself",
					Title:      "Tell us about yourself",
					ShareURL:   "https://example.com/share/test_intro",
				},
				{
					QuestionID: "influence_q1",
					Label:      "Foundation's Influence",
					Title:      "How has the foundation influenced you?",
					ShareURL:   "https://example.com/share/test_influence",
				},
				{
					QuestionID: "advice_q1",
					Label:      "Sharing Advice",
					Title:      "What advice would you share?",
					ShareURL:   "https://example.com/share/test_advice",
				},
			},
		},
	}
}
