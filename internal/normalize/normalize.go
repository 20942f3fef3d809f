package normalize

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Title converts a display title into its canonical comparison form:
// bracketed segments are stripped, "&" becomes "and", diacritics are
// folded away, and only lowercase letters, digits, and single spaces
// survive. Empty input yields an empty string.
func Title(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	title = stripBrackets(title)
	title = replaceAmpersand(title)
	title = foldDiacritics(title)

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FileName returns the file-name component of a path, or empty when the
// input is empty.
func FileName(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}

// stripBrackets removes (...) [...] {...} segments, tracking nesting depth.
// Unmatched closers are ignored rather than treated as errors.
func stripBrackets(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func replaceAmpersand(s string) string {
	return strings.ReplaceAll(s, "&", " and ")
}

// foldDiacritics applies canonical decomposition and drops combining marks,
// so "Pokémon" and "Pokemon" normalize identically.
func foldDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
