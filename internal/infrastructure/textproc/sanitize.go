// Package textproc cleans extracted text before persistence.
package textproc

import "strings"

// Sanitize removes characters the persistence layer cannot store and
// normalizes encoding artifacts. It is idempotent and never reorders the
// retained content: invalid UTF-8 sequences, NUL bytes, byte order marks and
// C0 control characters (except newline and tab) are dropped, and CR/CRLF
// line endings collapse to LF.
func Sanitize(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\uFEFF", "")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		if r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
