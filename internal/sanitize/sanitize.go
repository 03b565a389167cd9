// Package sanitize cleans atom text on its way into the store. Card fronts
// are later injected into agent context through the MCP queue resource, so
// imported decks are a stored prompt-injection surface: control characters,
// markdown hierarchy markers, XML/HTML tags, and code-fence sequences are
// stripped while the card's meaning is preserved.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxCardLength is the maximum allowed length for a card side.
const MaxCardLength = 2000

// MaxConceptLength is the maximum allowed length for a concept name.
const MaxConceptLength = 80

var (
	// reXMLTag matches XML/HTML tags including those with attributes,
	// self-closing tags, and processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reMarkdownHeading matches markdown headings at the start of a line.
	reMarkdownHeading = regexp.MustCompile(`(?m)^#{1,6}\s+`)

	// reHorizontalRule matches markdown horizontal rules (---, ***, ___).
	reHorizontalRule = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)

	// reTripleBacktick matches triple (or more) backtick code fences.
	reTripleBacktick = regexp.MustCompile("```+")

	// reExcessiveNewlines matches 3 or more consecutive newlines.
	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)

	// reWhitespaceRun matches 2 or more consecutive spaces or tabs.
	reWhitespaceRun = regexp.MustCompile(`[ \t]{2,}`)
)

// CardText sanitizes one side of an atom for safe storage and later
// injection into agent context. It strips control characters, markdown
// headings, horizontal rules, XML/HTML tags, and code fences while
// preserving the card's meaning.
//
// The pipeline runs in this order:
//  1. Strip null bytes and ASCII control characters (except \n, \t)
//  2. Strip XML/HTML tags
//  3. Replace markdown headings with list markers
//  4. Remove markdown horizontal rules
//  5. Collapse code fences to a single backtick
//  6. Collapse excessive newlines (3+ -> 2)
//  7. Trim leading/trailing whitespace
//  8. Truncate to MaxCardLength
func CardText(input string) string {
	if input == "" {
		return ""
	}

	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reMarkdownHeading.ReplaceAllString(s, "- ")
	s = reHorizontalRule.ReplaceAllString(s, "")
	s = reTripleBacktick.ReplaceAllString(s, "`")
	s = reExcessiveNewlines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	if len(s) > MaxCardLength {
		s = s[:MaxCardLength] + "..."
	}
	return s
}

// Concept sanitizes a concept name. Concepts are short human-readable
// phrases ("TCP handshake"), so letters, digits, spaces, hyphens,
// underscores, and slashes survive; everything else is dropped. Whitespace
// runs collapse to a single space and the result is capped at
// MaxConceptLength characters.
func Concept(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == ' ' || r == '-' || r == '_' || r == '/' {
			b.WriteRune(r)
		}
	}
	s := reWhitespaceRun.ReplaceAllString(b.String(), " ")
	s = strings.TrimSpace(s)

	if len(s) > MaxConceptLength {
		s = s[:MaxConceptLength]
	}
	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F) except
// newline and tab.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
