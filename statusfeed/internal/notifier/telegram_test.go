package notifier

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("short", 10); got != "short" {
		t.Errorf("under the limit must pass through, got %q", got)
	}

	// The digest separator is a multi-byte em dash; a byte-offset cut
	// through a run of them would produce invalid UTF-8.
	text := strings.Repeat("—", 3000)
	got := truncateRunes(text, 2048)
	if !utf8.ValidString(got) {
		t.Fatal("truncation produced invalid UTF-8")
	}
	if n := utf8.RuneCountInString(got); n != 2048 {
		t.Errorf("expected 2048 characters, got %d", n)
	}
}
