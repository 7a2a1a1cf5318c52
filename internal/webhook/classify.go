package webhook

import "strings"

// Category is the semantic slot a form question maps to in the contact
// row.
type Category int

const (
	CategoryUnclassified Category = iota
	CategoryIntro
	CategoryInfluence
	CategoryAdvice
	CategoryPurpose
	CategoryConnected
)

func (c Category) String() string {
	switch c {
	case CategoryIntro:
		return "Intro"
	case CategoryInfluence:
		return "Influence"
	case CategoryAdvice:
		return "Advice"
	case CategoryPurpose:
		return "Purpose"
	case CategoryConnected:
		return "Connected"
	default:
		return "Unclassified"
	}
}

// markerTable drives classification. Order matters: the first marker
// whose phrase appears in the question's label (then title) wins, so a
// question matching several phrases classifies by the earliest entry.
var markerTable = []struct {
	phrase   string
	category Category
}{
	{"Introduce Yourself", CategoryIntro},
	{"Foundation's Influence", CategoryInfluence},
	{"Sharing Advice", CategoryAdvice},
	{"Purpose & Joy", CategoryPurpose},
	{"Staying Connected", CategoryConnected},
}

// ClassifyQuestions maps question ids to categories by case-sensitive
// substring search against the marker table, label before title.
// Questions matching no marker are dropped from the mapping; answers to
// them are ignored downstream. The mapping is rebuilt per payload since
// forms may differ between submissions.
func ClassifyQuestions(questions []Question) map[string]Category {
	mapping := make(map[string]Category, len(questions))
	for _, q := range questions {
		if cat := classifyQuestion(q); cat != CategoryUnclassified {
			mapping[q.QuestionID] = cat
		}
	}
	return mapping
}

func classifyQuestion(q Question) Category {
	for _, m := range markerTable {
		if strings.Contains(q.Label, m.phrase) {
			return m.category
		}
	}
	for _, m := range markerTable {
		if strings.Contains(q.Title, m.phrase) {
			return m.category
		}
	}
	return CategoryUnclassified
}
