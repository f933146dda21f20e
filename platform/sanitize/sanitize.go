// Package sanitize cleans free text typed by users before it is stored.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
)

// StripHTML removes markup, including tags hidden behind entities.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	return tagPattern.ReplaceAllString(s, "")
}

// Line cleans a single-line value such as a name or an address line. Control
// characters are dropped, line breaks become spaces and whitespace runs
// collapse to one space.
func Line(s string) string {
	return strings.Join(strings.Fields(dropControl(StripHTML(s))), " ")
}

// Text cleans multi-line text such as notes and quote information. Line
// breaks survive; trailing spaces and repeated blank lines do not.
func Text(s string) string {
	s = strings.ReplaceAll(StripHTML(s), "\r\n", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRightFunc(dropControl(line), unicode.IsSpace)
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// LinePtr applies Line to an optional value.
func LinePtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Line(*s)
	return &result
}

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}
