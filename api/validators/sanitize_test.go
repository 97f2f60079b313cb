package validators

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeStringTrims(t *testing.T) {
	if got := SanitizeString("  skunk  ", 100); got != "skunk" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := SanitizeString("  skunk  ", 0); got != "skunk" {
		t.Fatalf("expected no cap when maxLen is zero, got %q", got)
	}
}

func TestSanitizeStringCutsOnRuneBoundary(t *testing.T) {
	input := strings.Repeat("a", 99) + "ção"
	got := SanitizeString(input, 100)
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid utf8, got tail %q", got[len(got)-4:])
	}
	if want := strings.Repeat("a", 99) + "ç"; got != want {
		t.Fatalf("expected %d characters ending in ç, got %q", 100, got[len(got)-4:])
	}

	if got := SanitizeString("maçã", 3); got != "maç" {
		t.Fatalf("expected maç, got %q", got)
	}
}
