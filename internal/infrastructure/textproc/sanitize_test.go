package textproc

import (
	"strings"
	"testing"
)

func TestSanitizeDropsNulAndControlBytes(t *testing.T) {
	in := "hel\x00lo\x01 wor\x1fld"
	got := Sanitize(in)
	if got != "hello world" {
		t.Fatalf("Sanitize(%q) = %q", in, got)
	}
}

func TestSanitizeNormalizesLineEndings(t *testing.T) {
	got := Sanitize("a\r\nb\rc\nd")
	if got != "a\nb\nc\nd" {
		t.Fatalf("unexpected line endings: %q", got)
	}
}

func TestSanitizeKeepsTabsAndNewlines(t *testing.T) {
	in := "col1\tcol2\nrow"
	if got := Sanitize(in); got != in {
		t.Fatalf("Sanitize(%q) = %q, want unchanged", in, got)
	}
}

func TestSanitizeDropsInvalidUTF8AndBOM(t *testing.T) {
	in := "\uFEFF\uFEFFvalid \xff\xfe text"
	got := Sanitize(in)
	if got != "valid  text" {
		t.Fatalf("Sanitize(%q) = %q", in, got)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"nul\x00 bytes\x00",
		"mixed\r\nline\rendings\n",
		"\uFEFFbom twice \uFEFF\uFEFF",
		"ctrl \x01\x02\x03 chars \x7f",
		"bin\xc3\x28ary",
		strings.Repeat("page text\n\n", 50),
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Fatalf("Sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
