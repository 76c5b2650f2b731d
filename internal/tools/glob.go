package tools

import (
	"regexp"
	"strings"
)

// globToRegexp translates a glob pattern into an anchored regular
// expression matched against a "/"-separated relative path. "**" matches
// across directory separators, "*" matches within one path segment, and
// "?" matches exactly one non-separator character.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	pattern = filepathToSlash(pattern)

	var b strings.Builder
	b.WriteByte('^')
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '*' && i+1 < len(runes) && runes[i+1] == '*':
			b.WriteString(".*")
			i++
			if i+1 < len(runes) && runes[i+1] == '/' {
				i++
			}
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString("[^/]")
		case strings.ContainsRune(`.+()|{}^$\`, c):
			b.WriteByte('\\')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte('$')

	return regexp.Compile(b.String())
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
