package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Normalize turns raw recognized speech into sentence-cased, punctuated
// prose: whitespace runs collapse to single spaces, each sentence gets a
// capitalized first letter, and a terminal "." is appended unless the
// sentence already ends in ".", "!" or "?". Empty input yields empty
// output and no failure escapes.
func Normalize(raw string) string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if collapsed == "" {
		return ""
	}

	sentences := splitSentences(collapsed)
	if len(sentences) == 0 {
		sentences = fallbackSplit(collapsed)
	}

	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(s)
		s = string(unicode.ToUpper(r)) + s[size:]
		last := s[len(s)-1]
		if last != '.' && last != '!' && last != '?' {
			s += "."
		}
		out = append(out, s)
	}
	return strings.Join(out, " ")
}

// splitSentences segments text on Unicode sentence boundaries (UAX #29),
// which keeps abbreviations like "e.g." and decimal numbers intact. Speech
// recognizers rarely capitalize sentence starts, and the Unicode rules
// refuse to break before a lowercase letter, so each segment is further
// refined at periods the boundary rules kept attached.
func splitSentences(text string) []string {
	var sentences []string
	state := -1
	rest := text
	for len(rest) > 0 {
		var sentence string
		sentence, rest, state = uniseg.FirstSentenceInString(rest, state)
		if sentence == "" {
			break
		}
		sentences = append(sentences, refineSegment(sentence)...)
	}
	return sentences
}

// refineSegment splits one segment at "period space" boundaries unless the
// word ending in that period looks like an abbreviation or an initial.
// "!" and "?" boundaries are already handled by the Unicode rules.
func refineSegment(segment string) []string {
	var parts []string
	start := 0
	for i := 0; i+1 < len(segment); i++ {
		if segment[i] != '.' || segment[i+1] != ' ' {
			continue
		}
		if isAbbreviation(lastWord(segment[start:i])) {
			continue
		}
		parts = append(parts, segment[start:i+1])
		start = i + 2
	}
	parts = append(parts, segment[start:])
	return parts
}

// Terms routinely followed by a period mid-sentence. Dotted forms such as
// "e.g." and "i.e." are caught by the embedded-period check instead.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {},
	"st": {}, "vs": {}, "etc": {}, "no": {}, "approx": {},
}

func isAbbreviation(word string) bool {
	if word == "" {
		return true
	}
	if utf8.RuneCountInString(word) == 1 {
		return true
	}
	if strings.ContainsRune(word, '.') {
		return true
	}
	_, ok := abbreviations[strings.ToLower(word)]
	return ok
}

func lastWord(s string) string {
	if idx := strings.LastIndexByte(s, ' '); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// fallbackSplit is the conservative boundary-punctuation split used when
// the segmenter produces nothing usable. It only breaks on terminal
// punctuation followed by a space, so it never splits inside a token.
func fallbackSplit(text string) []string {
	marked := strings.NewReplacer(". ", ".\x00", "! ", "!\x00", "? ", "?\x00").Replace(text)
	return strings.Split(marked, "\x00")
}
