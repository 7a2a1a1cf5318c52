package webhook

import (
	"time"
)

// CellPair is one category's share link plus extracted content.
type CellPair struct {
	Link    string
	Content string
}

// ContactRow is the fixed-schema output record of the mapping pipeline.
// It is constructed once per payload and never mutated afterward.
type ContactRow struct {
	Name     string
	Date     string
	Email    string
	Location string
	Cells    map[Category]CellPair
}

// rowCategories is the column order of the per-category cell pairs.
var rowCategories = []Category{
	CategoryIntro,
	CategoryInfluence,
	CategoryAdvice,
	CategoryPurpose,
	CategoryConnected,
}

// reviewerColumns are owned by human reviewers. The pipeline declares
// them in the header and always leaves them blank.
var reviewerColumns = []string{"Review Status", "Reviewer Notes", "Final Copy"}

// ContactHeader is the header row of the contact worksheet.
var ContactHeader = buildContactHeader()

func buildContactHeader() []string {
	header := []string{"Name", "Date", "Email", "Location"}
	for _, cat := range rowCategories {
		header = append(header, cat.String()+" Link", cat.String()+" Content")
	}
	return append(header, reviewerColumns...)
}

// MapPayload builds one ContactRow from one webhook payload. Identity
// fields copy verbatim from the contact except Date, which is
// reformatted; answers fill the category cell pairs. When two answers
// map to the same category, the later answer in payload order wins.
func MapPayload(p Payload) ContactRow {
	row := ContactRow{
		Name:     p.Contact.Name,
		Date:     formatContactDate(p.Contact.CreatedAt),
		Email:    p.Contact.Email,
		Location: p.Contact.Location,
		Cells:    make(map[Category]CellPair, len(rowCategories)),
	}

	categories := ClassifyQuestions(p.Form.Questions)
	questionLinks := make(map[string]string, len(p.Form.Questions))
	for _, q := range p.Form.Questions {
		questionLinks[q.QuestionID] = q.ShareURL
	}

	for _, a := range p.Contact.Answers {
		cat, ok := categories[a.QuestionID]
		if !ok {
			// Unknown or unclassified question; forms may carry
			// extra questions this sheet has no column for.
			continue
		}
		link := a.ShareURL
		if link == "" {
			link = questionLinks[a.QuestionID]
		}
		row.Cells[cat] = CellPair{Link: link, Content: ExtractContent(a)}
	}
	return row
}

// Values renders the row in ContactHeader order, with reviewer columns
// blank.
func (r ContactRow) Values() []string {
	values := []string{r.Name, r.Date, r.Email, r.Location}
	for _, cat := range rowCategories {
		pair := r.Cells[cat]
		values = append(values, pair.Link, pair.Content)
	}
	for range reviewerColumns {
		values = append(values, "")
	}
	return values
}

// Mapped returns the row as a header-keyed map, used by the test
// endpoint response and the local backup snapshot.
func (r ContactRow) Mapped() map[string]string {
	values := r.Values()
	out := make(map[string]string, len(values))
	for i, name := range ContactHeader {
		out[name] = values[i]
	}
	return out
}

// formatContactDate reformats the contact's creation timestamp (RFC 3339,
// trailing Z accepted) into "2006-01-02 15:04:05". An unparseable or
// missing timestamp yields an empty Date rather than failing the mapping.
func formatContactDate(createdAt string) string {
	if createdAt == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, createdAt); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return ""
}
