package textproc

import "strings"

// SanitizeFilename strips everything except ASCII alphanumerics, dots,
// underscores and hyphens. The result is used both as a spreadsheet key
// and in backup file names, so path separators must never survive.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
