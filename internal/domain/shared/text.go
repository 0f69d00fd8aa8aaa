package shared

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// name particles kept in lowercase by NameCase
var nameParticles = map[string]bool{"e": true, "de": true, "da": true, "das": true, "do": true, "dos": true}

// NameCase capitalizes a person or company name: "JOSÉ DA SILVA" becomes
// "José da Silva". Repeated spaces are collapsed.
func NameCase(s string) string {
	words := make([]string, 0, 4)
	for _, w := range strings.Split(s, " ") {
		if w == "" {
			continue
		}
		down := []rune(strings.ToLower(w))
		if !nameParticles[string(down)] {
			down[0] = unicode.ToUpper(down[0])
		}
		words = append(words, string(down))
	}
	return strings.Join(words, " ")
}

// RemoveDiacritics strips accents: "carroça" becomes "carroca".
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// OnlyDigits drops every rune that is not an ASCII digit
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PadLeft left-pads s with pad up to width runes
func PadLeft(s string, width int, pad rune) string {
	n := width - len([]rune(s))
	if n <= 0 {
		return s
	}
	return strings.Repeat(string(pad), n) + s
}

// IsBlank reports whether s is empty or whitespace only
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail reports whether s looks like a mailbox address
func IsValidEmail(s string) bool {
	return len(s) <= 200 && emailRegex.MatchString(s)
}
