package features

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	leadingBulletRe  = regexp.MustCompile(`^[•*—\-–\x{f0b7}]+\s*`)
	cidRe            = regexp.MustCompile(`\s*\(cid:\d+\)\s*`)
	hyphenBreakRe    = regexp.MustCompile(`([\p{L}\p{N}_]+)-\n([\p{L}\p{N}_]+)`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
	startsNumberRe   = regexp.MustCompile(`^\d+(\.\d+)*(\s+|$)`)
	bulletPrefixRe   = regexp.MustCompile(`^[•*—\-–]+\s*`)
	conventionalHdRe = []*regexp.Regexp{
		regexp.MustCompile(`^(appendix\s+[a-z\d]+[:.]?|section\s+\d+[:.]?|chapter\s+\d+[:.]?|part\s+[ivxlcdm]+[:.]?|\d+\.\s+)`),
		regexp.MustCompile(`^introduction[:.]?$`),
		regexp.MustCompile(`^conclusion[:.]?$`),
		regexp.MustCompile(`^summary[:.]?$`),
		regexp.MustCompile(`^abstract$`),
		regexp.MustCompile(`^references$`),
	}
)

// Minor words allowed in lower case inside a title-cased line.
var titleStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"for": true, "nor": true, "on": true, "at": true, "to": true, "from": true,
	"by": true, "of": true, "in": true, "with": true,
}

// CleanText strips bullet glyphs and extraction artifacts, rejoins
// hyphenated line breaks and collapses whitespace.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	s = leadingBulletRe.ReplaceAllString(s, "")
	s = cidRe.ReplaceAllString(s, "")
	s = hyphenBreakRe.ReplaceAllString(s, "$1$2")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsTitleCase reports whether every word is title-cased or a minor word.
func IsTitleCase(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !isTitleWord(w) && !titleStopWords[strings.ToLower(w)] {
			return false
		}
	}
	return true
}

// isTitleWord: upper-case letters only follow uncased runes, lower-case
// letters only follow cased runes, and at least one letter is cased.
func isTitleWord(w string) bool {
	cased := false
	prevCased := false
	for _, r := range w {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}

// IsUpper reports whether s has cased letters, all of them upper case,
// and is longer than one character.
func IsUpper(s string) bool {
	if len([]rune(strings.TrimSpace(s))) <= 1 {
		return false
	}
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

func EndsWithColon(s string) bool {
	return strings.HasSuffix(strings.TrimSpace(s), ":")
}

func StartsWithNumber(s string) bool {
	return startsNumberRe.MatchString(strings.TrimSpace(s))
}

func WordCount(s string) int {
	return len(strings.Fields(s))
}

func HasBulletPrefix(s string) bool {
	return bulletPrefixRe.MatchString(strings.TrimSpace(s))
}

// IsConventionalHeading matches numbering prefixes and stock section names.
func IsConventionalHeading(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, re := range conventionalHdRe {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
