package workload

import "strings"

// Sanitize converts s into a directory-name-safe segment. Alphanumeric
// characters and dots are preserved, every other character becomes an
// underscore, runs of underscores collapse to one, and leading and
// trailing underscores are trimmed. The result is idempotent under
// repeated application.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastUnderscore := false
	for _, c := range s {
		safe := c == '.' ||
			(c >= '0' && c <= '9') ||
			(c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z')
		if safe {
			b.WriteRune(c)
			lastUnderscore = false

			continue
		}

		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}
