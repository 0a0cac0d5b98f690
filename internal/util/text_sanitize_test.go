package util

import "testing"

func TestSanitizeText(t *testing.T) {
	in := "copay\x00 applies\x01 after\tdeductible\n"
	got := SanitizeText(in)
	want := "copay applies after\tdeductible"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSanitizeTextEmpty(t *testing.T) {
	if got := SanitizeText(""); got != "" {
		t.Fatalf("got %q", got)
	}
}
