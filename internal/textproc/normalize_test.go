package textproc

import (
	"strings"
	"testing"
)

func TestNormalize_CapitalizesAndTerminates(t *testing.T) {
	got := Normalize("hello world. this is A test")
	want := "Hello world. This is A test."
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	got := Normalize("  hello   world.\n\tthis  is   fine  ")
	want := "Hello world. This is fine."
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("Normalize(\"\") = %q, want empty", got)
	}
	if got := Normalize("   \n\t "); got != "" {
		t.Fatalf("Normalize(whitespace) = %q, want empty", got)
	}
}

func TestNormalize_KeepsExistingPunctuation(t *testing.T) {
	got := Normalize("is this working? yes! great.")
	want := "Is this working? Yes! Great."
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_DoesNotSplitAbbreviations(t *testing.T) {
	got := Normalize("we tried many fruits, e.g. apples and pears. they were good")
	if strings.Contains(got, "e.g. Apples") {
		t.Fatalf("abbreviation was treated as a sentence boundary: %q", got)
	}
	if !strings.HasSuffix(got, "They were good.") {
		t.Fatalf("expected final sentence capitalized and terminated, got %q", got)
	}
}

func TestNormalize_DoesNotSplitDecimals(t *testing.T) {
	got := Normalize("the value was 3.14 exactly")
	want := "The value was 3.14 exactly."
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_SingleSentenceNoTrailingSpace(t *testing.T) {
	got := Normalize("just one sentence")
	want := "Just one sentence."
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestFallbackSplit(t *testing.T) {
	parts := fallbackSplit("one. two! three? four")
	if len(parts) != 4 {
		t.Fatalf("fallbackSplit returned %d parts: %#v", len(parts), parts)
	}
	if parts[0] != "one." || parts[3] != "four" {
		t.Fatalf("unexpected parts: %#v", parts)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"recording.mp3", "recording.mp3"},
		{"../../etc/passwd", "....etcpasswd"},
		{"my file (1).mp3", "myfile1.mp3"},
		{"***", ""},
		{"ok_name-v2.wav", "ok_name-v2.wav"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
